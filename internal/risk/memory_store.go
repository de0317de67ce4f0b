package risk

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mbd888/scamcheck/internal/pagination"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	outcomes []*Outcome
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory outcome store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, outcome *Outcome) error {
	if outcome == nil || outcome.ID == "" || !outcome.RiskLevel.Valid() {
		return ErrInvalidOutcome
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o := *outcome
	s.outcomes = append(s.outcomes, &o)
	return nil
}

func (s *MemoryStore) ListRecent(ctx context.Context, category string, limit int, after *pagination.Cursor) ([]*Outcome, error) {
	s.mu.RLock()
	matched := make([]*Outcome, 0, len(s.outcomes))
	for _, o := range s.outcomes {
		if category != "" && o.Category != category {
			continue
		}
		if !after.Before(o.CompletedAt, o.ID) {
			continue
		}
		cp := *o
		matched = append(matched, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CompletedAt.Equal(matched[j].CompletedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CompletedAt.After(matched[j].CompletedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := newStats()
	for _, o := range s.outcomes {
		if o.CompletedAt.Before(since) {
			continue
		}
		stats.add(o.Category, o.RiskLevel, 1)
	}
	return stats, nil
}
