package provenv

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/provenv/internal/config"
	"github.com/loykin/provenv/internal/history"
	hfactory "github.com/loykin/provenv/internal/history/factory"
	"github.com/loykin/provenv/internal/inventory"
	"github.com/loykin/provenv/internal/manager"
	"github.com/loykin/provenv/internal/metrics"
	iapi "github.com/loykin/provenv/internal/server"
	"github.com/loykin/provenv/internal/store"
	sfactory "github.com/loykin/provenv/internal/store/factory"
	"github.com/loykin/provenv/internal/workspace"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type SoftwareEnvironment = workspace.SoftwareEnvironment

type CacheKey = workspace.CacheKey

type InventoryRecord = inventory.Record

type StoredRecord = store.Record

type Store = store.Store

type HistorySink = history.Sink

type HistoryEvent = history.Event

// Manager is a thin facade over internal/manager.Manager.
// It provides a stable public API for embedding.

type Manager struct{ inner *manager.Manager }

// New builds a Manager from a loaded config. dryRun forces simulation
// mode regardless of the config file setting.
func New(c *Config, dryRun bool) (*Manager, error) {
	inner, err := manager.New(c, dryRun)
	if err != nil {
		return nil, err
	}
	return &Manager{inner: inner}, nil
}

func (m *Manager) Provision(ctx context.Context, name string) error {
	return m.inner.Provision(ctx, name)
}
func (m *Manager) ProvisionAll(ctx context.Context) error { return m.inner.ProvisionAll(ctx) }
func (m *Manager) Environments() []SoftwareEnvironment    { return m.inner.Environments() }
func (m *Manager) DryRun() bool                           { return m.inner.DryRun() }
func (m *Manager) Inventory() *inventory.Inventory        { return m.inner.Inventory() }
func (m *Manager) Version(ctx context.Context) (string, error) {
	return m.inner.Version(ctx)
}
func (m *Manager) ActivateCommand(name string) ([]string, error) {
	return m.inner.ActivateCommand(name)
}
func (m *Manager) ActivationEnv(name string) ([]string, error) {
	return m.inner.ActivationEnv(name)
}
func (m *Manager) StoredInventory(ctx context.Context, env string) ([]StoredRecord, error) {
	return m.inner.StoredInventory(ctx, env)
}
func (m *Manager) ResetCache() { m.inner.ResetCache() }
func (m *Manager) SetStore(ctx context.Context, s Store) error {
	return m.inner.SetStore(ctx, s)
}
func (m *Manager) SetHistorySinks(sinks ...HistorySink) { m.inner.SetHistorySinks(sinks...) }
func (m *Manager) Close() error                         { return m.inner.Close() }

func LoadConfig(path string) (*Config, error) {
	return cfg.LoadConfig(path)
}

// NewStoreFromDSN builds an inventory store from a DSN such as
// "sqlite:///var/lib/provenv/inventory.db" or "postgres://...".
func NewStoreFromDSN(dsn string) (Store, error) {
	return sfactory.NewFromDSN(dsn)
}

// NewHistorySinkFromDSN builds a phase-history sink from a DSN such as
// "clickhouse://localhost:9000?table=env_history" or "opensearch://host/idx".
func NewHistorySinkFromDSN(dsn string) (HistorySink, error) {
	return hfactory.NewSinkFromDSN(dsn)
}

// NewHTTPServer starts an HTTP server exposing the internal API using the given manager.
func NewHTTPServer(addr, basePath string, m *Manager) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, m.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
