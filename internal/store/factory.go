package store

import "fmt"

// NewStore builds a store backend: "memory", "sqlite" (path is the
// database file) or "file" (path is a directory).
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	case "file", "dir":
		return NewDirStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
