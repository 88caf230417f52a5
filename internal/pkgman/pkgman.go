// Package pkgman sequences the provisioning phases for one environment
// through the pip runner, guarded by the workspace phase cache so repeated
// pipeline runs do not redo completed work.
package pkgman

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/provenv/internal/hashing"
	"github.com/loykin/provenv/internal/history"
	"github.com/loykin/provenv/internal/interpreter"
	"github.com/loykin/provenv/internal/inventory"
	"github.com/loykin/provenv/internal/logger"
	"github.com/loykin/provenv/internal/metrics"
	"github.com/loykin/provenv/internal/runner"
	"github.com/loykin/provenv/internal/workspace"
)

// Name identifies the package-manager implementation in inventory records.
const Name = "pip"

// Phase labels used in workspace cache keys.
const (
	PhaseCreateEnv = "pip-env"
	PhaseInstall   = "pip-install"
)

// phase is one statically declared unit of provisioning work. RunAfter
// must reference phases declared earlier in the list; the dependency graph
// is validated once at construction instead of being discovered by
// runtime registration.
type phase struct {
	name     string
	runAfter []string
	run      func(ctx context.Context) error
}

// PackageManager provisions one named environment. Operations on a single
// instance are sequential; distinct environments use distinct instances.
type PackageManager struct {
	envName string
	ws      *workspace.Workspace
	runner  *runner.Runner
	phases  []phase
	sinks   []history.Sink
	log     *slog.Logger
}

// New builds a PackageManager for envName using the given bootstrap
// interpreter. logCfg routes installer output.
func New(ws *workspace.Workspace, envName string, bs interpreter.Executable, logCfg logger.Config) (*PackageManager, error) {
	if envName == "" {
		return nil, fmt.Errorf("environment name must not be empty")
	}
	r := runner.NewWithInterpreter(bs)
	r.SetLogConfig(logCfg, envName)
	r.SetDryRun(ws.DryRun())
	r.ConfigureEnv(ws.EnvPath(envName))
	p := &PackageManager{
		envName: envName,
		ws:      ws,
		runner:  r,
		log:     slog.Default().With("env", envName),
	}
	p.phases = []phase{
		{name: PhaseCreateEnv, run: p.createEnv},
		{name: PhaseInstall, runAfter: []string{PhaseCreateEnv}, run: p.install},
	}
	if err := validatePhases(p.phases); err != nil {
		return nil, err
	}
	return p, nil
}

// validatePhases checks that every runAfter edge points at an earlier
// phase, so the declared order is a valid topological order.
func validatePhases(phases []phase) error {
	seen := make(map[string]bool, len(phases))
	for _, ph := range phases {
		if seen[ph.name] {
			return fmt.Errorf("duplicate phase %q", ph.name)
		}
		for _, dep := range ph.runAfter {
			if !seen[dep] {
				return fmt.Errorf("phase %q depends on %q which is not declared before it", ph.name, dep)
			}
		}
		seen[ph.name] = true
	}
	return nil
}

// SetHistorySinks configures external sinks receiving phase events.
// Passing no sinks clears the list.
func (p *PackageManager) SetHistorySinks(sinks ...history.Sink) {
	p.sinks = append([]history.Sink(nil), sinks...)
}

// Runner exposes the underlying environment runner for activation
// commands and environment composition.
func (p *PackageManager) Runner() *runner.Runner { return p.runner }

// EnvPath returns the on-disk location of the managed environment.
func (p *PackageManager) EnvPath() string { return p.ws.EnvPath(p.envName) }

// Provision runs all phases in declared order. Each phase is skipped
// entirely when its cache key is already registered for this run; the key
// is registered before the body executes, so a failing phase is not
// retried within the same run but will be on the next one.
func (p *PackageManager) Provision(ctx context.Context) error {
	for _, ph := range p.phases {
		if err := p.runPhase(ctx, ph); err != nil {
			return err
		}
	}
	return nil
}

func (p *PackageManager) runPhase(ctx context.Context, ph phase) error {
	envPath := p.EnvPath()
	key := workspace.CacheKey{Phase: ph.name, EnvPath: envPath}
	if p.ws.CheckCache(key) {
		p.log.Debug("phase already in cache, skipping", "phase", ph.name, "key", key.String())
		metrics.IncPhaseCacheHit(ph.name)
		p.emit(ctx, history.EventPhaseSkipped, ph.name, 0, nil)
		return nil
	}
	p.ws.AddToCache(key)

	start := time.Now()
	err := ph.run(ctx)
	elapsed := time.Since(start)
	metrics.IncPhaseRun(ph.name)
	if err != nil {
		metrics.IncPhaseFailure(ph.name)
		p.emit(ctx, history.EventPhaseFailed, ph.name, elapsed, err)
		return fmt.Errorf("phase %s for %s: %w", ph.name, p.envName, err)
	}
	p.emit(ctx, history.EventPhaseRun, ph.name, elapsed, nil)
	return nil
}

func (p *PackageManager) emit(ctx context.Context, typ history.EventType, phaseName string, d time.Duration, err error) {
	if len(p.sinks) == 0 {
		return
	}
	e := history.Event{
		Type:       typ,
		Phase:      phaseName,
		Env:        p.envName,
		EnvPath:    p.EnvPath(),
		DryRun:     p.ws.DryRun(),
		OccurredAt: time.Now().UTC(),
		Duration:   d,
	}
	if err != nil {
		e.Error = err.Error()
	}
	for _, s := range p.sinks {
		_ = s.Send(ctx, e)
	}
}

// createEnv materializes the venv and the requirement file for the
// environment's package specs.
func (p *PackageManager) createEnv(ctx context.Context) error {
	p.log.Info("creating venv + pip environment")
	envPath := p.EnvPath()
	p.runner.SetDryRun(p.ws.DryRun())
	if err := p.runner.CreateEnv(ctx, envPath); err != nil {
		return err
	}
	se, ok, err := p.ws.RenderEnvironment(p.envName, false)
	if err != nil {
		return err
	}
	if !ok {
		p.log.Debug("no software environment defined, venv only")
		return nil
	}
	for _, spec := range se.Packages {
		if err := p.runner.AddSpec(spec); err != nil {
			return err
		}
	}
	metrics.SetSpecCount(p.envName, p.runner.SpecCount())
	return p.runner.GenerateRequirementFile()
}

// install runs pip against the generated requirement file.
func (p *PackageManager) install(ctx context.Context) error {
	p.log.Info("installing packages")
	if _, ok, err := p.ws.RenderEnvironment(p.envName, false); err != nil {
		return err
	} else if !ok {
		p.log.Debug("no software environment defined, skipping install")
		return nil
	}
	p.runner.SetDryRun(p.ws.DryRun())
	p.runner.ConfigureEnv(p.EnvPath())
	start := time.Now()
	if err := p.runner.Install(ctx); err != nil {
		return err
	}
	metrics.IncInstall(p.envName)
	metrics.ObserveInstallDuration(p.envName, time.Since(start))
	return nil
}

// PopulateInventory appends the package-manager and software fingerprint
// records for the provisioned environment.
func (p *PackageManager) PopulateInventory(ctx context.Context, inv *inventory.Inventory) error {
	p.runner.SetDryRun(p.ws.DryRun())
	p.runner.ConfigureEnv(p.EnvPath())

	version, err := p.runner.Version(ctx)
	if err != nil {
		return err
	}
	inv.AppendPackageManager(inventory.Record{
		Name:    Name,
		Version: version,
		Digest:  hashing.String(version),
	})
	digest, err := p.runner.InventoryHash()
	if err != nil {
		return err
	}
	inv.AppendSoftware(inventory.Record{
		Name:   p.ws.RelPath(p.EnvPath()),
		Digest: digest,
	})
	return nil
}
