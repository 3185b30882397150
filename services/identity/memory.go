package identity

import (
	"context"
	"sync"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch"
)

// MemoryDirectory is an in-memory dispatch.Directory for tests and
// development.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[int64]dispatch.Identity
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[int64]dispatch.Identity)}
}

// Seed inserts an identity directly, bypassing registration rules.
func (m *MemoryDirectory) Seed(id dispatch.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id.ExternalID] = id
}

func (m *MemoryDirectory) FindByExternalID(_ context.Context, externalID int64) (*dispatch.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[externalID]
	if !ok {
		return nil, nil
	}
	out := id
	return &out, nil
}

func (m *MemoryDirectory) Create(_ context.Context, profile dispatch.Profile, role access.Role) (*dispatch.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[profile.ExternalID]; exists {
		return nil, ErrAlreadyRegistered
	}
	id := dispatch.Identity{
		ExternalID: profile.ExternalID,
		Username:   profile.Username,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		Role:       role,
		Active:     true,
	}
	m.users[profile.ExternalID] = id
	out := id
	return &out, nil
}

func (m *MemoryDirectory) Update(_ context.Context, externalID int64, fields dispatch.IdentityUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.users[externalID]
	if !ok {
		return false, nil
	}
	if fields.Username != nil {
		id.Username = *fields.Username
	}
	if fields.FirstName != nil {
		id.FirstName = *fields.FirstName
	}
	if fields.LastName != nil {
		id.LastName = *fields.LastName
	}
	m.users[externalID] = id
	return true, nil
}

// ListActive mirrors the Postgres service for admin-flow tests.
func (m *MemoryDirectory) ListActive(_ context.Context) ([]*dispatch.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*dispatch.Identity, 0, len(m.users))
	for _, id := range m.users {
		if !id.Active {
			continue
		}
		copied := id
		out = append(out, &copied)
	}
	return out, nil
}

// AssignRole mirrors the Postgres service for admin-flow tests.
func (m *MemoryDirectory) AssignRole(_ context.Context, externalID int64, role access.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.users[externalID]
	if !ok || !id.Active {
		return false, nil
	}
	id.Role = role
	m.users[externalID] = id
	return true, nil
}
