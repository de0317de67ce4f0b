package flows

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. Flows are deep-copied on the way in and out.
type MemoryStore struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory flow store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flows: make(map[string]*Flow)}
}

// NewDefaultMemoryStore creates a store seeded with the built-in catalog.
func NewDefaultMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	for category, f := range Defaults() {
		s.flows[category] = f
	}
	return s
}

func (s *MemoryStore) GetFlow(ctx context.Context, category string) (*Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[category]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return f.Clone(), nil
}

func (s *MemoryStore) ListFlows(ctx context.Context) ([]*Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Flow, 0, len(s.flows))
	for _, f := range s.flows {
		result = append(result, f.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

// SaveFlow inserts or replaces a flow, bumping its version past the stored one.
func (s *MemoryStore) SaveFlow(ctx context.Context, flow *Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := flow.Clone()
	cp.Version = 1
	if existing, ok := s.flows[flow.Category]; ok {
		cp.Version = existing.Version + 1
	}
	cp.UpdatedAt = time.Now()
	s.flows[flow.Category] = cp

	flow.Version = cp.Version
	flow.UpdatedAt = cp.UpdatedAt
	return nil
}

func (s *MemoryStore) DeleteFlow(ctx context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flows[category]; !ok {
		return ErrFlowNotFound
	}
	delete(s.flows, category)
	return nil
}
