package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/storage"
)

type userRecord struct {
	user         models.User
	email        string
	passwordHash string
}

type InMemoryUserManager struct {
	mu    sync.RWMutex
	users map[string]userRecord
}

func NewUserRepository() *InMemoryUserManager {
	return &InMemoryUserManager{
		users: make(map[string]userRecord),
	}
}

func (m *InMemoryUserManager) CreateUser(_ context.Context, username, email, passwordHash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; ok {
		return models.User{}, storage.ErrUsernameTaken
	}
	for _, rec := range m.users {
		if rec.email == email {
			return models.User{}, storage.ErrEmailTaken
		}
	}

	user := models.User{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
	}
	m.users[username] = userRecord{
		user:         user,
		email:        email,
		passwordHash: passwordHash,
	}
	return user, nil
}

func (m *InMemoryUserManager) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.users[username]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return rec.user, nil
}

func (m *InMemoryUserManager) GetCredential(_ context.Context, username string) (models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.users[username]
	if !ok {
		return models.Credential{}, storage.ErrUserNotFound
	}
	return models.Credential{
		UserID:       rec.user.ID,
		PasswordHash: rec.passwordHash,
	}, nil
}
