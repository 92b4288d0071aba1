package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/service"
)

type Controller struct {
	zapLogger     *zap.SugaredLogger
	authService   *service.AuthService
	healthService *service.HealthService
}

func NewController(logger *zap.SugaredLogger, authService *service.AuthService, healthService *service.HealthService) *Controller {
	return &Controller{
		zapLogger:     logger,
		authService:   authService,
		healthService: healthService,
	}
}

// RegisterHandlersWithBaseURL sets up all routes under base. The require
// middleware guards protected routes; optional lets login see a
// pre-existing identity without demanding one.
func RegisterHandlersWithBaseURL(e *echo.Echo, c *Controller, base string, require, optional echo.MiddlewareFunc) {
	g := e.Group(base)

	auth := g.Group("/auth")
	auth.POST("/register", c.Register)
	auth.POST("/login", c.Login, optional)
	auth.POST("/refresh", c.Refresh)
	auth.POST("/logout", c.Logout, require)

	sessions := g.Group("/sessions", require)
	sessions.GET("", c.GetAllSessions)
	sessions.POST("/end/:id", c.EndSession)
	sessions.POST("/endAll", c.EndAllSessions)

	g.GET("/health", c.CheckHealth)
	g.GET("/ping", c.CheckServer)
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

func authUser(ctx echo.Context) (models.AuthUser, error) {
	user, ok := ctx.Get(models.MwAuthUserKey).(models.AuthUser)
	if !ok {
		return models.AuthUser{}, service.ErrUnauthorized
	}
	return user, nil
}
