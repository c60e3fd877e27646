package net

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoSnapshot is returned when no parameters have been published yet.
	ErrNoSnapshot = errors.New("no snapshot published")

	// ErrStaleSnapshot is returned when publishing a version that is not
	// newer than the current one.
	ErrStaleSnapshot = errors.New("stale snapshot version")
)

// Registry holds the current parameter snapshot of a model.
//
// Readers pin the snapshot that is current when they start and keep using
// it for the whole unroll. Writers swap in a new immutable snapshot under
// the write lock, so an unroll never sees a half-applied update.
type Registry struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewRegistry creates a registry. initial may be nil.
func NewRegistry(initial *Snapshot) *Registry {
	return &Registry{current: initial}
}

// Current returns the current snapshot, or nil.
func (r *Registry) Current() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Publish makes s current. Its version must be newer than the current one.
func (r *Registry) Publish(s *Snapshot) error {
	if s == nil {
		return ErrNoSnapshot
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publishLocked(s)
}

// Update runs fn with exclusive access and publishes the snapshot it returns.
// No other Update or Publish can interleave with fn.
func (r *Registry) Update(fn func(cur *Snapshot) (*Snapshot, error)) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, ErrNoSnapshot
	}
	if err := r.publishLocked(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (r *Registry) publishLocked(s *Snapshot) error {
	if r.current != nil && s.Version <= r.current.Version {
		return fmt.Errorf("%w: have v%d, got v%d", ErrStaleSnapshot, r.current.Version, s.Version)
	}
	r.current = s
	return nil
}

// Predict unrolls seq against the current snapshot.
func (r *Registry) Predict(seq [][]float64, future int) (*Trace, error) {
	return Unroll(r.Current(), seq, future)
}

// PredictBatch unrolls independent sequences against the current snapshot.
func (r *Registry) PredictBatch(seqs [][][]float64, future, workers int) ([]*Trace, error) {
	return UnrollBatch(r.Current(), seqs, future, workers)
}
