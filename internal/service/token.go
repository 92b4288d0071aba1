package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/util"
)

// ErrTokenInvalid is the single outcome for every validation failure:
// bad signature, wrong audience, expiry, malformed claims. Collapsing
// them avoids giving callers an oracle for why a token was rejected.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the signed payload of both tokens. The registered claims
// carry everything: jti is the session id shared by the pair, sub the
// user id, aud either "access" or "refresh".
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) SessionID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenService signs and validates token pairs. It never touches
// storage; persistence of the backing session row is the caller's job.
type TokenService struct {
	keys       *KeyPair
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(cfg *util.TokenConfig, keys *KeyPair) *TokenService {
	return &TokenService{
		keys:       keys,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// IssuePair creates an access/refresh pair sharing one fresh session id
// and returns that id so the caller can persist the session row.
func (ts *TokenService) IssuePair(userID uuid.UUID) (models.TokenPair, uuid.UUID, error) {
	sessionID := uuid.New()
	now := time.Now()

	accessToken, err := ts.sign(userID, sessionID, models.AudienceAccess, now, ts.accessTTL)
	if err != nil {
		return models.TokenPair{}, uuid.Nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := ts.sign(userID, sessionID, models.AudienceRefresh, now, ts.refreshTTL)
	if err != nil {
		return models.TokenPair{}, uuid.Nil, fmt.Errorf("sign refresh token: %w", err)
	}

	pair := models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	return pair, sessionID, nil
}

func (ts *TokenService) sign(userID, sessionID uuid.UUID, audience string, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(ts.keys.Private)
}

// Validate verifies the signature against the public key, the audience
// against expectedAudience and the expiry against now.
func (ts *TokenService) Validate(tokenString, expectedAudience string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(expectedAudience),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	}

	parsedToken, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return ts.keys.Public, nil
		},
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsedToken.Claims.(*Claims)
	if !ok || !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	if _, err := claims.SessionID(); err != nil {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
