// Package memory provides in-process repositories backing the artifact API
// and the test suite.
package memory

import (
	"context"
	"sync"

	"winstack/domain/core"
	"winstack/domain/run"
	"winstack/ports"
)

// RunRepository stores completed run results in memory, insertion-ordered.
type RunRepository struct {
	mu      sync.RWMutex
	results map[core.RunID]*run.Result
	order   []core.RunID
}

// NewRunRepository creates an empty in-memory run store.
func NewRunRepository() ports.RunRepository {
	return &RunRepository{results: make(map[core.RunID]*run.Result)}
}

// StoreRun records one run's artifact bundle.
func (r *RunRepository) StoreRun(ctx context.Context, result *run.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.results[result.RunID]; !exists {
		r.order = append(r.order, result.RunID)
	}
	r.results[result.RunID] = result
	return nil
}

// RunByID retrieves one run's artifact bundle.
func (r *RunRepository) RunByID(ctx context.Context, id core.RunID) (*run.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[id]
	if !ok {
		return nil, core.ErrRunNotFound
	}
	return result, nil
}

// RunIDs lists stored runs in insertion order.
func (r *RunRepository) RunIDs(ctx context.Context) ([]core.RunID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]core.RunID(nil), r.order...), nil
}
