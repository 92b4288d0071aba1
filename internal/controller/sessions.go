package controller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Efimish/whisper-backend/internal/util"
)

// (GET /api/sessions).
func (c *Controller) GetAllSessions(ctx echo.Context) error {
	user, err := authUser(ctx)
	if err != nil {
		return err
	}

	sessions, err := c.authService.ListSessions(ctx.Request().Context(), user.UserID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, sessions)
}

// (POST /api/sessions/end/:id).
func (c *Controller) EndSession(ctx echo.Context) error {
	user, err := authUser(ctx)
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid session id")
	}

	if err := c.authService.EndSession(ctx.Request().Context(), user.UserID, sessionID); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusOK)
}

// (POST /api/sessions/endAll).
func (c *Controller) EndAllSessions(ctx echo.Context) error {
	user, err := authUser(ctx)
	if err != nil {
		return err
	}

	if err := c.authService.EndAllSessions(ctx.Request().Context(), user.UserID); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusOK)
}
