package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"p9e.in/plotdesk/models"
)

// ErrNotFound is returned for unknown or expired sessions
var ErrNotFound = errors.New("session not found")

// Store keeps SessionState values between requests
type Store interface {
	// Create starts a non-admin session with no GPS fix
	Create(ctx context.Context) (models.SessionState, error)
	Get(ctx context.Context, id string) (models.SessionState, error)
	// Save writes state back and extends its expiry
	Save(ctx context.Context, state models.SessionState) (models.SessionState, error)
	Delete(ctx context.Context, id string) error
}

func newState(ttl time.Duration, now time.Time) models.SessionState {
	return models.SessionState{ID: uuid.NewString(), ExpiresAt: now.Add(ttl)}
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]models.SessionState
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: map[string]models.SessionState{}, now: time.Now}
}

func (m *MemoryStore) Create(ctx context.Context) (models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	s := newState(m.ttl, m.now())
	m.sessions[s.ID] = s
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.SessionState{}, ErrNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return models.SessionState{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Save(ctx context.Context, state models.SessionState) (models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[state.ID]
	if !ok {
		return models.SessionState{}, ErrNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, state.ID)
		return models.SessionState{}, ErrNotFound
	}
	state.ExpiresAt = m.now().Add(m.ttl)
	m.sessions[state.ID] = state
	return state, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// sweep drops expired sessions; caller holds mu
func (m *MemoryStore) sweep() {
	now := m.now()
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}
