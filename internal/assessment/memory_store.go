package assessment

import (
	"context"
	"sync"
	"time"
)

// Check is a server-side session with its ownership metadata.
type Check struct {
	ID         string
	Session    *Session
	CreatedAt  time.Time
	LastActive time.Time
}

// SessionStore holds in-progress checks. Checks never leave the process;
// only the anonymous outcome of a completed check is persisted.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Check, error)
	Put(ctx context.Context, check *Check) error
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, at time.Time) error
	// ListIdle returns ids of checks whose last activity is before cutoff.
	ListIdle(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is the in-process SessionStore.
type MemoryStore struct {
	mu     sync.RWMutex
	checks map[string]*Check
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty check store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{checks: make(map[string]*Check)}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Check, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.checks[id]
	if !ok {
		return nil, ErrCheckNotFound
	}
	return c, nil
}

func (m *MemoryStore) Put(ctx context.Context, check *Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checks[check.ID] = check
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.checks[id]; !ok {
		return ErrCheckNotFound
	}
	delete(m.checks, id)
	return nil
}

func (m *MemoryStore) Touch(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.checks[id]
	if !ok {
		return ErrCheckNotFound
	}
	c.LastActive = at
	return nil
}

func (m *MemoryStore) ListIdle(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, c := range m.checks {
		if len(ids) >= limit {
			break
		}
		if c.LastActive.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checks), nil
}
