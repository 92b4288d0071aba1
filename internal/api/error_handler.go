package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/service"
	"github.com/Efimish/whisper-backend/internal/storage"
	"github.com/Efimish/whisper-backend/internal/util"
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// ErrorHandler is the single place where internal errors become HTTP
// responses. Authentication failures all map to one 401 with a
// WWW-Authenticate header; internal causes stay in the log.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		switch {
		case errors.Is(err, service.ErrUnauthorized) || errors.Is(err, service.ErrTokenInvalid):
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Token")
			writeJSON(c, log, http.StatusUnauthorized, errorResponse{Reason: service.ErrUnauthorized.Error()})
			return

		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(c, log, http.StatusBadRequest, errorResponse{Reason: service.ErrInvalidCredentials.Error()})
			return

		case errors.Is(err, storage.ErrUsernameTaken):
			writeJSON(c, log, http.StatusBadRequest, errorResponse{Reason: "Username is already taken"})
			return

		case errors.Is(err, storage.ErrEmailTaken):
			writeJSON(c, log, http.StatusBadRequest, errorResponse{Reason: "Email is already taken"})
			return
		}

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			writeJSON(c, log, http.StatusBadRequest, errorResponse{Reason: validationMessage(validationErrs)})
			return
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			writeJSON(c, log, respErr.Status, errorResponse{Reason: respErr.Msg})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			writeJSON(c, log, httpErr.Code, errorResponse{Reason: http.StatusText(httpErr.Code)})
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeJSON(c, log, http.StatusInternalServerError, errorResponse{Reason: "internal server error"})
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "validation failed"
	}
	e := errs[0]
	switch e.Field() {
	case "Username":
		return "Username must be between 3 and 24 characters and contain only english letters, numbers and underscore"
	case "Email":
		return "Email must be valid"
	case "Password":
		return "Password must be at least 3 characters"
	default:
		return "validation failed"
	}
}

func writeJSON(c echo.Context, log *zap.SugaredLogger, status int, body errorResponse) {
	if err := c.JSON(status, body); err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}
