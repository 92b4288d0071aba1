package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"

	"github.com/Efimish/whisper-backend/internal/util"
)

// ErrPasswordMismatch covers both a wrong password and a hash that could
// not be interpreted. Callers must not be able to tell those apart; the
// distinction only shows up in logs.
var ErrPasswordMismatch = errors.New("password mismatch")

const argon2Version = argon2.Version

// PasswordHasher derives Argon2id hashes on a bounded pool so a burst of
// login attempts cannot starve request-serving goroutines. Callers block
// on a semaphore slot, honoring their request context.
type PasswordHasher struct {
	cfg *util.HasherConfig
	sem *semaphore.Weighted
	log *zap.SugaredLogger
}

func NewPasswordHasher(cfg *util.HasherConfig, log *zap.SugaredLogger) *PasswordHasher {
	return &PasswordHasher{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.Workers),
		log: log,
	}
}

// Hash derives an encoded hash with a fresh random salt. The returned
// string is self-describing: algorithm, version, cost parameters, salt
// and digest, so Verify never depends on current configuration.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash worker: %w", err)
	}
	defer h.sem.Release(1)

	salt := make([]byte, h.cfg.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.cfg.Time, h.cfg.MemoryKiB, h.cfg.Threads, h.cfg.KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		h.cfg.MemoryKiB,
		h.cfg.Time,
		h.cfg.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify re-derives the password with the parameters embedded in
// encodedHash and compares in constant time.
func (h *PasswordHasher) Verify(ctx context.Context, password, encodedHash string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire hash worker: %w", err)
	}
	defer h.sem.Release(1)

	params, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		h.log.Warnw("Malformed password hash", "error", err)
		return ErrPasswordMismatch
	}

	derived := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Threads, uint32(len(key)))

	if subtle.ConstantTimeCompare(derived, key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type argonParams struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, errors.New("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2Version {
		return argonParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var params argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Time, &params.Threads); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("parse parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) == 0 {
		return argonParams{}, nil, nil, errors.New("empty derived key")
	}

	return params, salt, key, nil
}
