// Package inflight tracks which subjects have a pipeline operation in
// flight, enforcing the single-writer-per-subject discipline.
package inflight

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Registry grants exclusive in-flight ownership of a subject. A second
// operation for the same subject is rejected, never interleaved; distinct
// subjects proceed independently.
type Registry interface {
	// Acquire claims the subject for the caller. Returns ErrSubjectBusy if
	// another operation already holds it.
	Acquire(ctx context.Context, subjectID string) error

	// Release returns the subject. Releasing an unheld subject is a no-op.
	Release(ctx context.Context, subjectID string)

	// Size returns the number of subjects currently held.
	Size() int64
}

// inMemoryRegistry implements Registry with a mutex-guarded set.
type inMemoryRegistry struct {
	mu   sync.Mutex
	held map[string]struct{}
	size atomic.Int64
}

// NewInMemoryRegistry creates an empty in-flight registry.
func NewInMemoryRegistry() Registry {
	return &inMemoryRegistry{
		held: make(map[string]struct{}),
	}
}

func (r *inMemoryRegistry) Acquire(ctx context.Context, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.held[subjectID]; busy {
		return fmt.Errorf("%w: %s", ErrSubjectBusy, subjectID)
	}
	r.held[subjectID] = struct{}{}
	r.size.Add(1)
	return nil
}

func (r *inMemoryRegistry) Release(ctx context.Context, subjectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.held[subjectID]; ok {
		delete(r.held, subjectID)
		r.size.Add(-1)
	}
}

func (r *inMemoryRegistry) Size() int64 {
	return r.size.Load()
}
