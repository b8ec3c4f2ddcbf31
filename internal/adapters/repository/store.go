// Package repository stores ranking runs for the lifetime of the process.
package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/pkg/metrics"
)

const defaultMaxRuns = 256

// Store provides read/write access to runs.
type Store interface {
	// Create stores a new run. Returns ErrExists for a duplicate ID.
	Create(ctx context.Context, run model.Run) error

	// Get returns a copy of the run. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (model.Run, error)

	// Update applies fn to the stored run under the store lock and returns
	// the updated copy.
	Update(ctx context.Context, id string, fn func(*model.Run)) (model.Run, error)

	// List returns up to limit runs, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) []model.Run

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*model.Run
	order   []string
	maxRuns int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{runs: make(map[string]*model.Run), maxRuns: defaultMaxRuns}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateStoredRuns(0)
	return s
}

// Create stores a new run.
func (s *MemoryStore) Create(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return ErrExists
	}
	if s.maxRuns > 0 && len(s.order) >= s.maxRuns {
		s.evictLocked()
	}
	r := clone(run)
	s.runs[run.ID] = &r
	s.order = append(s.order, run.ID)
	metrics.UpdateStoredRuns(len(s.order))
	return nil
}

// evictLocked drops the oldest finished run, if any.
func (s *MemoryStore) evictLocked() {
	for i, id := range s.order {
		if s.runs[id].Finished() {
			delete(s.runs, id)
			s.order = slices.Delete(s.order, i, i+1)
			return
		}
	}
}

// Get returns a copy of the run.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	return clone(*r), nil
}

// Update applies fn to the stored run.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*model.Run)) (model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	fn(r)
	r.ID = id
	return clone(*r), nil
}

// List returns runs newest first.
func (s *MemoryStore) List(_ context.Context, limit int) []model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Run, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, clone(*s.runs[s.order[i]]))
	}
	return out
}

// Count returns the number of stored runs.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// clone copies the mutable slices of a run. Results are never modified after
// they are attached, so the pointer is shared.
func clone(r model.Run) model.Run {
	r.Files = slices.Clone(r.Files)
	r.Diagnostics = slices.Clone(r.Diagnostics)
	return r
}
