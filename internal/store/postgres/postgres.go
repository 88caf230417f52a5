package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/provenv/internal/store"
)

// DB implements store.Store for PostgreSQL via the pgx stdlib driver.
type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS env_inventory(
			id BIGSERIAL PRIMARY KEY,
			env TEXT NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			digest TEXT NOT NULL,
			uniq TEXT NOT NULL UNIQUE,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_env_inventory_env ON env_inventory(env);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Save(ctx context.Context, rec store.Record) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO env_inventory(env, kind, name, version, digest, uniq, updated_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(uniq) DO UPDATE SET
			version=EXCLUDED.version,
			digest=EXCLUDED.digest,
			updated_at=EXCLUDED.updated_at;`,
		rec.Env, rec.Kind, rec.Name, rec.Version, rec.Digest, rec.Key(), rec.UpdatedAt)
	return err
}

func (p *DB) ListByEnv(ctx context.Context, env string) ([]store.Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT env, kind, name, version, digest, updated_at
		FROM env_inventory WHERE env=$1 ORDER BY kind, name;`, env)
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
