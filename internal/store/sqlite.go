package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *net.Snapshot) error {
	if snap == nil {
		return net.ErrNoSnapshot
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := Encode(snap)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (id, name, version, kind, created_at, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			kind = excluded.kind,
			created_at = excluded.created_at,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, snap.ID, snap.Name, int64(snap.Version), snap.Kernel.Kind.String(), snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		CurrentSchemaVersion, CurrentCodecVersion, payload)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*net.Snapshot, error) {
	return s.queryOne(ctx, fmt.Sprintf("id %s", id),
		`SELECT payload FROM snapshots WHERE id = ?`, id)
}

func (s *SQLiteStore) Latest(ctx context.Context, name string) (*net.Snapshot, error) {
	return s.queryOne(ctx, fmt.Sprintf("model %q", name),
		`SELECT payload FROM snapshots WHERE name = ? ORDER BY version DESC LIMIT 1`, name)
}

func (s *SQLiteStore) queryOne(ctx context.Context, what, query string, arg any) (*net.Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, query, arg).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, what)
		}
		return nil, err
	}

	snap, err := Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", what, err)
	}
	return snap, nil
}

func (s *SQLiteStore) List(ctx context.Context, name string) ([]Meta, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, version, kind, created_at FROM snapshots
		WHERE name = ? ORDER BY version ASC
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var (
			m       Meta
			version int64
			created string
		)
		if err := rows.Scan(&m.ID, &m.Name, &version, &m.Kind, &created); err != nil {
			return nil, err
		}
		m.Version = uint64(version)
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("snapshot %s: created_at: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			kind TEXT NOT NULL,
			created_at TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS snapshots_name_version ON snapshots (name, version);
	`)
	return err
}
