package api

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/service"
	"github.com/Efimish/whisper-backend/internal/storage/memory"
	"github.com/Efimish/whisper-backend/internal/util"
)

func testTokenService(t *testing.T) *service.TokenService {
	t.Helper()
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return service.NewTokenService(
		&util.TokenConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour},
		&service.KeyPair{Private: private, Public: &private.PublicKey},
	)
}

func testGate(t *testing.T) (*AuthMiddleware, *service.TokenService, *memory.Storage) {
	t.Helper()
	tokens := testTokenService(t)
	store := memory.NewStorage()
	return NewAuthMiddleware(tokens, store, zap.NewNop().Sugar()), tokens, store
}

func openTestSession(t *testing.T, tokens *service.TokenService, store *memory.Storage) (uuid.UUID, models.TokenPair) {
	t.Helper()
	userID := uuid.New()
	pair, sessionID, err := tokens.IssuePair(userID)
	require.NoError(t, err)
	require.NoError(t, store.CreateSession(context.Background(), models.Session{
		ID:         sessionID,
		UserID:     userID,
		LastActive: time.Now(),
	}))
	return userID, pair
}

func TestAuthenticate_ValidAccessToken(t *testing.T) {
	gate, tokens, store := testGate(t)
	userID, pair := openTestSession(t, tokens, store)

	user, err := gate.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userID, user.UserID)
}

func TestAuthenticate_TouchesLastActive(t *testing.T) {
	gate, tokens, store := testGate(t)
	userID, pair := openTestSession(t, tokens, store)

	before, err := store.ListUserSessions(context.Background(), userID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = gate.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	require.NoError(t, err)

	after, err := store.ListUserSessions(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, after[0].LastActive.After(before[0].LastActive))
}

func TestAuthenticate_RejectsBadScheme(t *testing.T) {
	gate, tokens, store := testGate(t)
	_, pair := openTestSession(t, tokens, store)

	for _, header := range []string{
		pair.AccessToken,
		"Basic " + pair.AccessToken,
		"bearer " + pair.AccessToken,
	} {
		_, err := gate.Authenticate(context.Background(), header)
		require.ErrorIs(t, err, service.ErrUnauthorized, "header %q", header)
	}
}

func TestAuthenticate_RejectsRefreshToken(t *testing.T) {
	gate, tokens, store := testGate(t)
	_, pair := openTestSession(t, tokens, store)

	_, err := gate.Authenticate(context.Background(), "Bearer "+pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestAuthenticate_RejectsRevokedSession(t *testing.T) {
	gate, tokens, store := testGate(t)
	_, pair := openTestSession(t, tokens, store)

	// No matching session row: the unexpired token is dead anyway.
	claims, err := tokens.Validate(pair.AccessToken, models.AudienceAccess)
	require.NoError(t, err)
	sessionID, err := claims.SessionID()
	require.NoError(t, err)
	require.NoError(t, store.DeleteSession(context.Background(), sessionID))

	_, err = gate.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	require.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestRequire_NoHeaderIs401(t *testing.T) {
	gate, _, _ := testGate(t)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop().Sugar())
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, gate.Require())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Token", rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestRequire_StoresIdentity(t *testing.T) {
	gate, tokens, store := testGate(t)
	userID, pair := openTestSession(t, tokens, store)

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		user, ok := c.Get(models.MwAuthUserKey).(models.AuthUser)
		require.True(t, ok)
		require.Equal(t, userID, user.UserID)
		return c.NoContent(http.StatusOK)
	}, gate.Require())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOptional_BadTokenStillPasses(t *testing.T) {
	gate, _, _ := testGate(t)

	e := echo.New()
	e.GET("/open", func(c echo.Context) error {
		require.Nil(t, c.Get(models.MwAuthUserKey))
		return c.NoContent(http.StatusOK)
	}, gate.Optional())

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
