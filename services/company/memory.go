package company

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and development.
type MemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	companies map[int64]Company
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, companies: make(map[int64]Company)}
}

func (m *MemoryRepository) Insert(_ context.Context, c Company) (*Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	m.companies[c.ID] = c
	out := c
	return &out, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id int64) (*Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := c
	return &out, nil
}

func (m *MemoryRepository) ListActive(_ context.Context) ([]Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Company, 0, len(m.companies))
	for _, c := range m.companies {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) FindByName(_ context.Context, name string) (*Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.companies {
		if c.Active && strings.EqualFold(c.Name, name) {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) SetActive(_ context.Context, id int64, active bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return false, nil
	}
	c.Active = active
	m.companies[id] = c
	return true, nil
}
