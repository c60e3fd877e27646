// Package store persists model snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

var ErrNotFound = errors.New("snapshot not found")

// Meta describes a stored snapshot without loading its parameters.
type Meta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   uint64    `json:"version"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func metaOf(s *net.Snapshot) Meta {
	return Meta{ID: s.ID, Name: s.Name, Version: s.Version, Kind: s.Kernel.Kind.String(), CreatedAt: s.CreatedAt}
}

// Store is a versioned snapshot repository.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, snap *net.Snapshot) error
	Get(ctx context.Context, id string) (*net.Snapshot, error)
	// Latest returns the highest version saved under name.
	Latest(ctx context.Context, name string) (*net.Snapshot, error)
	// List returns every version saved under name, oldest first.
	List(ctx context.Context, name string) ([]Meta, error)
	Close() error
}
