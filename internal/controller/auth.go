package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Efimish/whisper-backend/internal/models"
)

// (POST /api/auth/register).
func (c *Controller) Register(ctx echo.Context) error {
	var body models.RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&body); err != nil {
		return err
	}

	resp, err := c.authService.Register(
		ctx.Request().Context(),
		body,
		ctx.RealIP(),
		ctx.Request().UserAgent(),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, resp)
}

// (POST /api/auth/login). Runs behind the optional auth middleware so a
// still-valid previous session can be revoked on re-login.
func (c *Controller) Login(ctx echo.Context) error {
	var body models.LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&body); err != nil {
		return err
	}

	var prior *models.AuthUser
	if user, err := authUser(ctx); err == nil {
		prior = &user
	}

	resp, err := c.authService.Login(
		ctx.Request().Context(),
		body,
		ctx.RealIP(),
		ctx.Request().UserAgent(),
		prior,
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, resp)
}

// (POST /api/auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	var body models.RefreshRequest
	if err := ctx.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := ctx.Validate(&body); err != nil {
		return err
	}

	pair, err := c.authService.Refresh(
		ctx.Request().Context(),
		body.RefreshToken,
		ctx.RealIP(),
		ctx.Request().UserAgent(),
	)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	user, err := authUser(ctx)
	if err != nil {
		return err
	}

	if err := c.authService.Logout(ctx.Request().Context(), user.SessionID); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusOK)
}
