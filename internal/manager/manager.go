// Package manager coordinates environment provisioning across the
// workspace: it owns one PackageManager per environment, the shared
// inventory, and the optional persistence/history backends.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/loykin/provenv/internal/config"
	"github.com/loykin/provenv/internal/hashing"
	"github.com/loykin/provenv/internal/history"
	"github.com/loykin/provenv/internal/interpreter"
	"github.com/loykin/provenv/internal/inventory"
	"github.com/loykin/provenv/internal/logger"
	"github.com/loykin/provenv/internal/pkgman"
	"github.com/loykin/provenv/internal/runner"
	"github.com/loykin/provenv/internal/store"
	"github.com/loykin/provenv/internal/workspace"
)

// Manager provisions environments sequentially per environment; distinct
// environments may be provisioned concurrently because each has its own
// PackageManager and the workspace cache is thread-safe.
type Manager struct {
	cfg    *config.Config
	ws     *workspace.Workspace
	bs     interpreter.Executable
	inv    *inventory.Inventory
	logCfg logger.Config
	log    *slog.Logger

	mu    sync.Mutex
	pms   map[string]*pkgman.PackageManager
	st    store.Store
	sinks []history.Sink
}

// New resolves the bootstrap interpreter from the preference list and
// builds a manager for the configured workspace. dryRun overrides the
// config file setting when true.
func New(cfg *config.Config, dryRun bool) (*Manager, error) {
	bs, err := interpreter.Resolve("python3", "python")
	if err != nil {
		return nil, err
	}
	return NewWithInterpreter(cfg, dryRun, bs)
}

// NewWithInterpreter is New with an explicit bootstrap interpreter.
func NewWithInterpreter(cfg *config.Config, dryRun bool, bs interpreter.Executable) (*Manager, error) {
	ws, err := cfg.BuildWorkspace(dryRun)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:    cfg,
		ws:     ws,
		bs:     bs,
		inv:    inventory.New(),
		logCfg: cfg.Log.ToolOutput(),
		log:    slog.Default(),
		pms:    make(map[string]*pkgman.PackageManager),
	}, nil
}

// SetStore configures the inventory persistence store and ensures its
// schema. Passing nil clears it.
func (m *Manager) SetStore(ctx context.Context, s store.Store) error {
	m.mu.Lock()
	m.st = s
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.EnsureSchema(ctx)
}

// SetHistorySinks configures external sinks for phase events. They apply
// to package managers created afterwards.
func (m *Manager) SetHistorySinks(sinks ...history.Sink) {
	m.mu.Lock()
	m.sinks = append([]history.Sink(nil), sinks...)
	m.mu.Unlock()
}

// Workspace returns the underlying workspace.
func (m *Manager) Workspace() *workspace.Workspace { return m.ws }

// Inventory returns the shared in-process inventory.
func (m *Manager) Inventory() *inventory.Inventory { return m.inv }

// DryRun reports whether provisioning runs in simulation mode.
func (m *Manager) DryRun() bool { return m.ws.DryRun() }

// Environments lists the configured software environments.
func (m *Manager) Environments() []workspace.SoftwareEnvironment {
	return m.ws.Environments()
}

func (m *Manager) packageManager(name string) (*pkgman.PackageManager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pm, ok := m.pms[name]; ok {
		return pm, nil
	}
	if _, ok, err := m.ws.RenderEnvironment(name, true); err != nil || !ok {
		return nil, err
	}
	pm, err := pkgman.New(m.ws, name, m.bs, m.logCfg)
	if err != nil {
		return nil, err
	}
	if len(m.sinks) > 0 {
		pm.SetHistorySinks(m.sinks...)
	}
	m.pms[name] = pm
	return pm, nil
}

// Provision materializes the named environment, populates the inventory
// and persists the records when a store is configured.
func (m *Manager) Provision(ctx context.Context, name string) error {
	pm, err := m.packageManager(name)
	if err != nil {
		return err
	}
	m.log.Info("provisioning environment", "env", name, "path", pm.EnvPath(), "dry_run", m.ws.DryRun())
	if err := pm.Provision(ctx); err != nil {
		return err
	}
	if err := pm.PopulateInventory(ctx, m.inv); err != nil {
		return err
	}
	return m.persistInventory(ctx, name, pm)
}

func (m *Manager) persistInventory(ctx context.Context, name string, pm *pkgman.PackageManager) error {
	m.mu.Lock()
	st := m.st
	m.mu.Unlock()
	if st == nil {
		return nil
	}
	version, err := pm.Runner().Version(ctx)
	if err != nil {
		return err
	}
	digest, err := pm.Runner().InventoryHash()
	if err != nil {
		return err
	}
	recs := []store.Record{
		{Env: name, Kind: store.KindPackageManager, Name: pkgman.Name, Version: version, Digest: hashing.String(version)},
		{Env: name, Kind: store.KindSoftware, Name: m.ws.RelPath(pm.EnvPath()), Digest: digest},
	}
	for _, r := range recs {
		if err := st.Save(ctx, r); err != nil {
			return fmt.Errorf("persist inventory for %s: %w", name, err)
		}
	}
	return nil
}

// ProvisionAll provisions every configured environment in registration
// order, stopping at the first failure.
func (m *Manager) ProvisionAll(ctx context.Context) error {
	for _, se := range m.ws.Environments() {
		if err := m.Provision(ctx, se.Name); err != nil {
			return err
		}
	}
	return nil
}

// Version reports the pip version using the bootstrap interpreter.
func (m *Manager) Version(ctx context.Context) (string, error) {
	r := runner.NewWithInterpreter(m.bs)
	r.SetDryRun(true)
	return r.Version(ctx)
}

// StoredInventory returns the persisted records for an environment, or
// nil when no store is configured.
func (m *Manager) StoredInventory(ctx context.Context, env string) ([]store.Record, error) {
	m.mu.Lock()
	st := m.st
	m.mu.Unlock()
	if st == nil {
		return nil, nil
	}
	return st.ListByEnv(ctx, env)
}

// ActivateCommand returns the shell command activating the named
// environment's venv.
func (m *Manager) ActivateCommand(name string) ([]string, error) {
	pm, err := m.packageManager(name)
	if err != nil {
		return nil, err
	}
	return pm.Runner().ActivateCommand(), nil
}

// ActivationEnv returns the composed process environment for running
// commands inside the named environment.
func (m *Manager) ActivationEnv(name string) ([]string, error) {
	pm, err := m.packageManager(name)
	if err != nil {
		return nil, err
	}
	return pm.Runner().ActivationEnv(), nil
}

// ResetCache starts a fresh orchestration run: previously failed phases
// become eligible again.
func (m *Manager) ResetCache() { m.ws.ResetCache() }

// Close releases the store connection if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	st := m.st
	m.st = nil
	m.mu.Unlock()
	if st == nil {
		return nil
	}
	return st.Close()
}
