package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Efimish/whisper-backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already taken")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage interface {
	SessionRepository
	UserRepository
}

// SessionRepository persists one row per live token pair.
type SessionRepository interface {
	// CreateSession inserts a new session row. Inserting an id that is
	// already present returns ErrSessionExists, never a silent overwrite.
	CreateSession(ctx context.Context, session models.Session) error

	SessionExists(ctx context.Context, sessionID uuid.UUID) (bool, error)

	// TouchSession updates last_active. Returns ErrSessionNotFound when
	// the row has concurrently been deleted.
	TouchSession(ctx context.Context, sessionID uuid.UUID, now time.Time) error

	// DeleteSession and DeleteAllUserSessions are idempotent: deleting
	// a session that does not exist is not an error.
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error

	// ListUserSessions returns the user's sessions, most recently
	// active first.
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
}

// UserRepository owns user accounts and their credentials.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetCredential(ctx context.Context, username string) (models.Credential, error)
}
