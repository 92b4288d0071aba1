package service

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/util"
)

func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	private, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &KeyPair{Private: private, Public: &private.PublicKey}
}

func testTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) *TokenService {
	t.Helper()
	cfg := &util.TokenConfig{AccessTTL: accessTTL, RefreshTTL: refreshTTL}
	return NewTokenService(cfg, testKeyPair(t))
}

func TestIssuePair_SharedSessionID(t *testing.T) {
	ts := testTokenService(t, 10*time.Minute, 30*24*time.Hour)
	userID := uuid.New()

	pair, sessionID, err := ts.IssuePair(userID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, sessionID)

	accessClaims, err := ts.Validate(pair.AccessToken, models.AudienceAccess)
	require.NoError(t, err)
	refreshClaims, err := ts.Validate(pair.RefreshToken, models.AudienceRefresh)
	require.NoError(t, err)

	accessSession, err := accessClaims.SessionID()
	require.NoError(t, err)
	refreshSession, err := refreshClaims.SessionID()
	require.NoError(t, err)

	require.Equal(t, sessionID, accessSession)
	require.Equal(t, sessionID, refreshSession)

	accessUser, err := accessClaims.UserID()
	require.NoError(t, err)
	require.Equal(t, userID, accessUser)
}

func TestValidate_RejectsCrossAudienceUse(t *testing.T) {
	ts := testTokenService(t, 10*time.Minute, 30*24*time.Hour)

	pair, _, err := ts.IssuePair(uuid.New())
	require.NoError(t, err)

	_, err = ts.Validate(pair.AccessToken, models.AudienceRefresh)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ts.Validate(pair.RefreshToken, models.AudienceAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	// TTL well past the parser leeway, in the past.
	ts := testTokenService(t, -time.Hour, -time.Hour)

	pair, _, err := ts.IssuePair(uuid.New())
	require.NoError(t, err)

	_, err = ts.Validate(pair.AccessToken, models.AudienceAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_RejectsForeignSignature(t *testing.T) {
	issuer := testTokenService(t, 10*time.Minute, time.Hour)
	verifier := testTokenService(t, 10*time.Minute, time.Hour)

	pair, _, err := issuer.IssuePair(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Validate(pair.AccessToken, models.AudienceAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_RejectsGarbage(t *testing.T) {
	ts := testTokenService(t, 10*time.Minute, time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := ts.Validate(token, models.AudienceAccess)
		require.ErrorIs(t, err, ErrTokenInvalid)
	}
}
