package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs an in-memory Store implementation for tests
// and development.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the stored session so callers cannot mutate the
// store's state outside the version-checked operations.
func (m *memoryStore) Get(_ context.Context, externalID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[externalID]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (m *memoryStore) Begin(_ context.Context, externalID int64, workflow string, initial State) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := int64(1)
	if prev, ok := m.sessions[externalID]; ok {
		version = prev.Version + 1
	}
	s := &Session{
		Workflow: workflow,
		State:    initial,
		Scratch:  make(map[string]any),
		Version:  version,
	}
	m.sessions[externalID] = s
	return cloneSession(s), nil
}

func (m *memoryStore) Advance(_ context.Context, externalID int64, fromVersion int64, next State, updates map[string]any) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[externalID]
	if !ok || s.Version != fromVersion {
		return nil, ErrConflict
	}
	s.State = next
	if s.Scratch == nil {
		s.Scratch = make(map[string]any)
	}
	for k, v := range updates {
		s.Scratch[k] = v
	}
	s.Version++
	return cloneSession(s), nil
}

func (m *memoryStore) Complete(_ context.Context, externalID int64, fromVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[externalID]
	if !ok || s.Version != fromVersion {
		return ErrConflict
	}
	delete(m.sessions, externalID)
	return nil
}

func (m *memoryStore) Clear(_ context.Context, externalID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, externalID)
	return nil
}

func cloneSession(s *Session) *Session {
	out := &Session{
		Workflow: s.Workflow,
		State:    s.State,
		Scratch:  make(map[string]any, len(s.Scratch)),
		Version:  s.Version,
	}
	for k, v := range s.Scratch {
		out.Scratch[k] = v
	}
	return out
}
