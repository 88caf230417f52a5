package store

import (
	"context"
	"time"
)

// Record kinds persisted for an environment.
const (
	KindPackageManager = "package_manager"
	KindSoftware       = "software"
)

// Record is one persisted inventory entry. (Env, Kind, Name) is unique:
// re-provisioning an environment upserts its records in place.
// UpdatedAt should be in UTC.
type Record struct {
	Env       string    `json:"env"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	Digest    string    `json:"digest"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the unique key for upserts.
func (r Record) Key() string { return r.Env + "|" + r.Kind + "|" + r.Name }

// Store persists inventory records so that digests survive process
// restarts and can be compared across provisioning runs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, rec Record) error
	ListByEnv(ctx context.Context, env string) ([]Record, error)
	Close() error
}
