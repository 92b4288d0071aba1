package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/service"
	"github.com/Efimish/whisper-backend/internal/storage"
)

const bearerPrefix = "Bearer "

// AuthMiddleware is the per-request authentication gate. Each check
// walks: header → token signature/audience/expiry → session row still
// present → touch last_active.
type AuthMiddleware struct {
	tokens   *service.TokenService
	sessions storage.SessionRepository
	log      *zap.SugaredLogger
}

func NewAuthMiddleware(tokens *service.TokenService, sessions storage.SessionRepository, log *zap.SugaredLogger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		sessions: sessions,
		log:      log,
	}
}

// Authenticate resolves an Authorization header value into an identity.
// Every failure mode collapses into service.ErrUnauthorized; the actual
// cause only reaches the log.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string) (models.AuthUser, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return models.AuthUser{}, service.ErrUnauthorized
	}
	token := header[len(bearerPrefix):]

	claims, err := m.tokens.Validate(token, models.AudienceAccess)
	if err != nil {
		m.log.Debugw("Access token rejected", "error", err)
		return models.AuthUser{}, service.ErrUnauthorized
	}

	sessionID, err := claims.SessionID()
	if err != nil {
		return models.AuthUser{}, service.ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.AuthUser{}, service.ErrUnauthorized
	}

	exists, err := m.sessions.SessionExists(ctx, sessionID)
	if err != nil {
		return models.AuthUser{}, err
	}
	if !exists {
		// The pair was revoked; the embedded expiry no longer matters.
		return models.AuthUser{}, service.ErrUnauthorized
	}

	if err := m.sessions.TouchSession(ctx, sessionID, time.Now()); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			// Lost the race with a logout between the existence check
			// and the touch.
			return models.AuthUser{}, service.ErrUnauthorized
		}
		// A failed activity update alone does not invalidate an
		// otherwise valid request.
		m.log.Warnw("Failed to touch session", "sessionID", sessionID, "error", err)
	}

	return models.AuthUser{UserID: userID, SessionID: sessionID}, nil
}

// Require rejects the request with 401 unless it authenticates.
func (m *AuthMiddleware) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return service.ErrUnauthorized
			}

			user, err := m.Authenticate(c.Request().Context(), header)
			if err != nil {
				return err
			}

			c.Set(models.MwAuthUserKey, user)
			return next(c)
		}
	}
}

// Optional stores an identity when the request carries a valid one but
// never rejects. Login uses it to revoke a pre-existing session.
func (m *AuthMiddleware) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header != "" {
				if user, err := m.Authenticate(c.Request().Context(), header); err == nil {
					c.Set(models.MwAuthUserKey, user)
				}
			}
			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
