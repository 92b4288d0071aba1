package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// (GET /api/health).
func (c *Controller) CheckHealth(ctx echo.Context) error {
	report := c.healthService.Check(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, report)
}
