package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/storage/memory"
)

type staticDeviceInfo struct{}

func (staticDeviceInfo) Collect(_ context.Context, ip, _ string) (models.DeviceInfo, error) {
	return models.DeviceInfo{IP: ip, OS: "Linux", Country: "Netherlands", City: "Amsterdam"}, nil
}

func testAuthService(t *testing.T) (*AuthService, *memory.Storage) {
	t.Helper()
	store := memory.NewStorage()
	auth := NewAuthService(
		store,
		testTokenService(t, time.Minute, time.Hour),
		testHasher(t),
		staticDeviceInfo{},
		zap.NewNop().Sugar(),
	)
	return auth, store
}

func register(t *testing.T, auth *AuthService, username string) models.AuthResponse {
	t.Helper()
	resp, err := auth.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "hunter2",
	}, "203.0.113.7", "Mozilla/5.0 (X11; Linux x86_64)")
	require.NoError(t, err)
	return resp
}

func TestRegister_OpensSession(t *testing.T) {
	auth, _ := testAuthService(t)

	resp := register(t, auth, "alice")
	require.Equal(t, "alice", resp.User.Username)
	require.NotEmpty(t, resp.Tokens.AccessToken)
	require.NotEmpty(t, resp.Tokens.RefreshToken)

	sessions, err := auth.ListSessions(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "203.0.113.7", sessions[0].UserIP)
	require.Equal(t, "Linux", sessions[0].UserAgent)
}

func TestRegister_LowercasesUsername(t *testing.T) {
	auth, _ := testAuthService(t)

	resp, err := auth.Register(context.Background(), models.RegisterRequest{
		Username: "Alice",
		Email:    "Alice@Example.COM",
		Password: "hunter2",
	}, "203.0.113.7", "")
	require.NoError(t, err)
	require.Equal(t, "alice", resp.User.Username)

	// Mixed-case login resolves to the same account.
	_, err = auth.Login(context.Background(), models.LoginRequest{
		Username: "ALICE",
		Password: "hunter2",
	}, "203.0.113.7", "", nil)
	require.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	auth, _ := testAuthService(t)
	register(t, auth, "alice")

	_, err := auth.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "wrong",
	}, "203.0.113.7", "", nil)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	auth, _ := testAuthService(t)

	_, err := auth.Login(context.Background(), models.LoginRequest{
		Username: "ghost",
		Password: "whatever",
	}, "203.0.113.7", "", nil)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RevokesPriorSession(t *testing.T) {
	auth, _ := testAuthService(t)
	first := register(t, auth, "alice")

	priorClaims, err := auth.tokens.Validate(first.Tokens.AccessToken, models.AudienceAccess)
	require.NoError(t, err)
	priorSession, err := priorClaims.SessionID()
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), models.LoginRequest{
		Username: "alice",
		Password: "hunter2",
	}, "203.0.113.7", "", &models.AuthUser{UserID: first.User.ID, SessionID: priorSession})
	require.NoError(t, err)

	sessions, err := auth.ListSessions(context.Background(), first.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotEqual(t, priorSession, sessions[0].ID)
}

func TestRefresh_RotatesExactlyOnce(t *testing.T) {
	auth, _ := testAuthService(t)
	resp := register(t, auth, "alice")

	fresh, err := auth.Refresh(context.Background(), resp.Tokens.RefreshToken, "203.0.113.7", "")
	require.NoError(t, err)
	require.NotEqual(t, resp.Tokens.RefreshToken, fresh.RefreshToken)

	// The consumed token is dead even though it has not expired.
	_, err = auth.Refresh(context.Background(), resp.Tokens.RefreshToken, "203.0.113.7", "")
	require.ErrorIs(t, err, ErrUnauthorized)

	// The replacement still works.
	_, err = auth.Refresh(context.Background(), fresh.RefreshToken, "203.0.113.7", "")
	require.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	auth, _ := testAuthService(t)
	resp := register(t, auth, "alice")

	_, err := auth.Refresh(context.Background(), resp.Tokens.AccessToken, "203.0.113.7", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout_KillsRefresh(t *testing.T) {
	auth, _ := testAuthService(t)
	resp := register(t, auth, "alice")

	claims, err := auth.tokens.Validate(resp.Tokens.RefreshToken, models.AudienceRefresh)
	require.NoError(t, err)
	sessionID, err := claims.SessionID()
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), sessionID))

	_, err = auth.Refresh(context.Background(), resp.Tokens.RefreshToken, "203.0.113.7", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestEndSession_IgnoresForeignSession(t *testing.T) {
	auth, _ := testAuthService(t)
	alice := register(t, auth, "alice")
	bob := register(t, auth, "bob")

	bobSessions, err := auth.ListSessions(context.Background(), bob.User.ID)
	require.NoError(t, err)
	require.Len(t, bobSessions, 1)

	// Alice cannot end bob's session; the call is a silent no-op.
	require.NoError(t, auth.EndSession(context.Background(), alice.User.ID, bobSessions[0].ID))

	bobSessions, err = auth.ListSessions(context.Background(), bob.User.ID)
	require.NoError(t, err)
	require.Len(t, bobSessions, 1)
}

func TestEndAllSessions(t *testing.T) {
	auth, _ := testAuthService(t)
	resp := register(t, auth, "alice")

	for i := 0; i < 2; i++ {
		_, err := auth.Login(context.Background(), models.LoginRequest{
			Username: "alice",
			Password: "hunter2",
		}, "203.0.113.7", "", nil)
		require.NoError(t, err)
	}

	sessions, err := auth.ListSessions(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	require.NoError(t, auth.EndAllSessions(context.Background(), resp.User.ID))

	sessions, err = auth.ListSessions(context.Background(), resp.User.ID)
	require.NoError(t, err)
	require.Empty(t, sessions)

	_, err = auth.Refresh(context.Background(), resp.Tokens.RefreshToken, "203.0.113.7", "")
	require.ErrorIs(t, err, ErrUnauthorized)
}
