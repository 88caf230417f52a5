package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/provenv/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// Path is a filesystem path to the database file. Use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS env_inventory(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			env TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			digest TEXT NOT NULL,
			uniq TEXT NOT NULL UNIQUE,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_env_inventory_env ON env_inventory(env);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Save(ctx context.Context, rec store.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO env_inventory(env, kind, name, version, digest, uniq, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uniq) DO UPDATE SET
			version=excluded.version,
			digest=excluded.digest,
			updated_at=excluded.updated_at;`,
		rec.Env, rec.Kind, rec.Name, rec.Version, rec.Digest, rec.Key(), rec.UpdatedAt)
	return err
}

func (s *DB) ListByEnv(ctx context.Context, env string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT env, kind, name, version, digest, updated_at
		FROM env_inventory WHERE env=? ORDER BY kind, name;`, env)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []store.Record
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(&r.Env, &r.Kind, &r.Name, &r.Version, &r.Digest, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
