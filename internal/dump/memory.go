package dump

import (
	"context"
	"sync"

	"notifier-go/internal/model"
	"notifier-go/internal/notify"
)

// MemoryStore retains run-metrics records in memory. Useful in tests and
// when no off-site retention is wanted but records should still be
// inspectable in-process.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.RunMetrics
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) PutRunMetrics(_ context.Context, m model.RunMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, m)
	return nil
}

// Records returns a copy of everything stored so far.
func (s *MemoryStore) Records() []model.RunMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.RunMetrics, len(s.records))
	copy(out, s.records)
	return out
}

// Compile-time check that MemoryStore implements notify.DumpStore
var _ notify.DumpStore = (*MemoryStore)(nil)
