package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	byID        map[string]*net.Snapshot
	byName      map[string][]*net.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.byID = make(map[string]*net.Snapshot)
	s.byName = make(map[string][]*net.Snapshot)
	return nil
}

func (s *MemoryStore) Save(_ context.Context, snap *net.Snapshot) error {
	if snap == nil {
		return net.ErrNoSnapshot
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.New("store is not initialized")
	}

	if old, ok := s.byID[snap.ID]; ok {
		s.byName[old.Name] = slices.DeleteFunc(s.byName[old.Name], func(x *net.Snapshot) bool { return x.ID == snap.ID })
	}
	s.byID[snap.ID] = snap
	versions := append(s.byName[snap.Name], snap)
	slices.SortStableFunc(versions, func(a, b *net.Snapshot) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	s.byName[snap.Name] = versions
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*net.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return snap, nil
}

func (s *MemoryStore) Latest(_ context.Context, name string) (*net.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.byName[name]
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: model %q", ErrNotFound, name)
	}
	return versions[len(versions)-1], nil
}

func (s *MemoryStore) List(_ context.Context, name string) ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.byName[name]
	out := make([]Meta, len(versions))
	for i, v := range versions {
		out[i] = metaOf(v)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
