package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Efimish/whisper-backend/internal/models"
	"github.com/Efimish/whisper-backend/internal/storage"
)

// InMemorySessionManager keeps sessions in a map guarded by a RWMutex.
// Used by tests and local runs without postgres.
type InMemorySessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

func NewSessionRepository() *InMemorySessionManager {
	return &InMemorySessionManager{
		sessions: make(map[uuid.UUID]models.Session),
	}
}

func (m *InMemorySessionManager) CreateSession(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; ok {
		return storage.ErrSessionExists
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *InMemorySessionManager) SessionExists(_ context.Context, sessionID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sessions[sessionID]
	return ok, nil
}

func (m *InMemorySessionManager) TouchSession(_ context.Context, sessionID uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return storage.ErrSessionNotFound
	}
	session.LastActive = now
	m.sessions[sessionID] = session
	return nil
}

func (m *InMemorySessionManager) DeleteSession(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

func (m *InMemorySessionManager) DeleteAllUserSessions(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *InMemorySessionManager) ListUserSessions(_ context.Context, userID uuid.UUID) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sessions []models.Session
	for _, session := range m.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActive.After(sessions[j].LastActive)
	})
	return sessions, nil
}
