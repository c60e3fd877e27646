package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

// DirStore keeps one JSON file per snapshot under a directory, named
// <name>@<version>.json.
type DirStore struct {
	dir string
	mu  sync.RWMutex
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("store directory is required")
	}
	return os.MkdirAll(s.dir, 0o755)
}

func (s *DirStore) path(name string, version uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s@%d.json", name, version))
}

func (s *DirStore) Save(_ context.Context, snap *net.Snapshot) error {
	if snap == nil {
		return net.ErrNoSnapshot
	}
	if snap.Name == "" || strings.ContainsAny(snap.Name, `@/\`) {
		return fmt.Errorf("model name %q cannot be stored as a file name", snap.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return SaveFile(s.path(snap.Name, snap.Version), snap)
}

func (s *DirStore) Get(ctx context.Context, id string) (*net.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps, err := s.loadAll(func(string) bool { return true })
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.ID == id {
			return snap, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

func (s *DirStore) Latest(_ context.Context, name string) (*net.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps, err := s.loadAll(func(n string) bool { return n == name })
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: model %q", ErrNotFound, name)
	}
	return snaps[len(snaps)-1], nil
}

func (s *DirStore) List(_ context.Context, name string) ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps, err := s.loadAll(func(n string) bool { return n == name })
	if err != nil {
		return nil, err
	}
	out := make([]Meta, len(snaps))
	for i, snap := range snaps {
		out[i] = metaOf(snap)
	}
	return out, nil
}

// loadAll decodes every file whose model name passes keep, sorted by version.
func (s *DirStore) loadAll(keep func(name string) bool) ([]*net.Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*net.Snapshot
	for _, e := range entries {
		base, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		name, _, ok := strings.Cut(base, "@")
		if !ok || !keep(name) {
			continue
		}
		snap, err := LoadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	slices.SortFunc(out, func(a, b *net.Snapshot) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *DirStore) Close() error { return nil }
