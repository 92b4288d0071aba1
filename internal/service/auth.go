package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/storage"
)

var (
	// ErrInvalidCredentials deliberately never says which of
	// username/password was wrong.
	ErrInvalidCredentials = errors.New("username or password is wrong")

	// ErrUnauthorized covers every authentication failure: missing or
	// malformed header, bad signature, wrong audience, expired token,
	// revoked session. Externally indistinguishable.
	ErrUnauthorized = errors.New("authentication required")
)

// AuthService ties together the password hasher, the token service and
// the stores to implement the full session lifecycle.
type AuthService struct {
	storage    storage.Storage
	tokens     *TokenService
	hasher     *PasswordHasher
	deviceInfo DeviceInfoProvider
	log        *zap.SugaredLogger
}

func NewAuthService(
	st storage.Storage,
	tokens *TokenService,
	hasher *PasswordHasher,
	deviceInfo DeviceInfoProvider,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		storage:    st,
		tokens:     tokens,
		hasher:     hasher,
		deviceInfo: deviceInfo,
		log:        log,
	}
}

// Register creates the account and logs the new user straight in.
// Usernames and emails are stored lowercase to keep lookups case
// insensitive.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, ip, userAgent string) (models.AuthResponse, error) {
	username := strings.ToLower(req.Username)
	email := strings.ToLower(req.Email)

	passwordHash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, username, email, passwordHash)
	if err != nil {
		return models.AuthResponse{}, err
	}

	tokens, err := s.openSession(ctx, user.ID, ip, userAgent)
	if err != nil {
		return models.AuthResponse{}, err
	}

	return models.AuthResponse{User: user, Tokens: tokens}, nil
}

// Login verifies credentials and issues a fresh pair. When the caller
// already holds a live session (prior), that session is revoked first so
// a re-login does not pile up rows for the same device.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, ip, userAgent string, prior *models.AuthUser) (models.AuthResponse, error) {
	username := strings.ToLower(req.Username)

	cred, err := s.storage.GetCredential(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.AuthResponse{}, ErrInvalidCredentials
		}
		return models.AuthResponse{}, fmt.Errorf("get credential: %w", err)
	}

	if err := s.hasher.Verify(ctx, req.Password, cred.PasswordHash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return models.AuthResponse{}, ErrInvalidCredentials
		}
		return models.AuthResponse{}, fmt.Errorf("verify password: %w", err)
	}

	if prior != nil {
		if err := s.storage.DeleteSession(ctx, prior.SessionID); err != nil {
			s.log.Warnw("Failed to revoke previous session on login", "sessionID", prior.SessionID, "error", err)
		}
	}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf("get user: %w", err)
	}

	tokens, err := s.openSession(ctx, user.ID, ip, userAgent)
	if err != nil {
		return models.AuthResponse{}, err
	}

	return models.AuthResponse{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token: the old session row is deleted before
// the new pair is issued, so each refresh token works exactly once.
// Of two concurrent calls with the same token, the one that observes the
// row still present wins; the other gets ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (models.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, models.AudienceRefresh)
	if err != nil {
		return models.TokenPair{}, ErrUnauthorized
	}

	sessionID, err := claims.SessionID()
	if err != nil {
		return models.TokenPair{}, ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.TokenPair{}, ErrUnauthorized
	}

	exists, err := s.storage.SessionExists(ctx, sessionID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("check session: %w", err)
	}
	if !exists {
		// Already rotated or logged out; a replayed token lands here.
		return models.TokenPair{}, ErrUnauthorized
	}

	// The old pair is permanently unusable from this point, even if
	// issuing the replacement fails below.
	if err := s.storage.DeleteSession(ctx, sessionID); err != nil {
		return models.TokenPair{}, fmt.Errorf("delete rotated session: %w", err)
	}

	return s.openSession(ctx, userID, ip, userAgent)
}

// Logout revokes the calling session.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.storage.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListSessions returns the caller's sessions, most recently active first.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.storage.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// EndSession revokes one of the caller's sessions. Ending a session that
// does not exist, or that belongs to someone else, is a no-op.
func (s *AuthService) EndSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	sessions, err := s.storage.ListUserSessions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			return s.storage.DeleteSession(ctx, sessionID)
		}
	}
	return nil
}

// EndAllSessions revokes every session of the caller, invalidating all
// outstanding token pairs at once.
func (s *AuthService) EndAllSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.storage.DeleteAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *AuthService) openSession(ctx context.Context, userID uuid.UUID, ip, userAgent string) (models.TokenPair, error) {
	pair, sessionID, err := s.tokens.IssuePair(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	info, err := s.deviceInfo.Collect(ctx, ip, userAgent)
	if err != nil {
		s.log.Warnw("Device info collection failed", "error", err)
		info = models.DeviceInfo{IP: ip}
	}

	session := models.Session{
		ID:         sessionID,
		UserID:     userID,
		UserIP:     info.IP,
		UserAgent:  info.OS,
		Country:    info.Country,
		City:       info.City,
		LastActive: time.Now(),
	}
	if err := s.storage.CreateSession(ctx, session); err != nil {
		return models.TokenPair{}, fmt.Errorf("create session: %w", err)
	}

	return pair, nil
}
