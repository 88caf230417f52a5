package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/loykin/provenv/internal/config"
	"github.com/loykin/provenv/internal/interpreter"
	"github.com/loykin/provenv/internal/store"
	"github.com/loykin/provenv/internal/store/sqlite"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func fakePython(t *testing.T, dir string) interpreter.Executable {
	t.Helper()
	path := filepath.Join(dir, "fake-python")
	script := fmt.Sprintf(`#!/bin/sh
if [ "$2" = "venv" ]; then
  mkdir -p "$3/bin"
  touch "$3/bin/activate"
  cp "$0" "$3/bin/python"
fi
case "$*" in
  *--version*) echo "pip 24.0 from /lib/python3.12/site-packages/pip (python 3.12)";;
  *freeze*) printf 'numpy==1.26.4\n';;
esac
exit 0
`)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { // #nosec G306
		t.Fatalf("write stub: %v", err)
	}
	return interpreter.New(path)
}

func testConfig(root string) *config.Config {
	return &config.Config{
		Workspace: config.WorkspaceConfig{Root: root},
		Environments: []config.EnvConfig{
			{Name: "analysis", Packages: []string{"numpy==1.2"}},
			{Name: "plotting", Packages: []string{"matplotlib"}},
		},
	}
}

func TestProvisionDryRun(t *testing.T) {
	requireUnix(t)
	root := t.TempDir()
	m, err := NewWithInterpreter(testConfig(root), true, fakePython(t, t.TempDir()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !m.DryRun() {
		t.Fatalf("dry run flag lost")
	}
	if err := m.Provision(context.Background(), "analysis"); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if entries, _ := os.ReadDir(root); len(entries) != 0 {
		t.Fatalf("dry-run mutated the workspace: %v", entries)
	}
	sw := m.Inventory().Software()
	if len(sw) != 1 || sw[0].Digest == "" {
		t.Fatalf("dry-run inventory missing: %+v", sw)
	}
	if sw[0].Name != filepath.Join("envs", "analysis") {
		t.Fatalf("software record should use workspace-relative path: %s", sw[0].Name)
	}
}

func TestProvisionUnknownEnv(t *testing.T) {
	m, err := NewWithInterpreter(testConfig(t.TempDir()), true, interpreter.New("/x"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Provision(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for unknown environment")
	}
}

func TestProvisionAllPersistsInventory(t *testing.T) {
	requireUnix(t)
	root := t.TempDir()
	bs := fakePython(t, t.TempDir())
	m, err := NewWithInterpreter(testConfig(root), false, bs)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	db, err := sqlite.New(filepath.Join(root, "inventory.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if err := m.SetStore(ctx, db); err != nil {
		t.Fatalf("set store: %v", err)
	}
	defer func() { _ = m.Close() }()

	if err := m.ProvisionAll(ctx); err != nil {
		t.Fatalf("provision all: %v", err)
	}
	for _, env := range []string{"analysis", "plotting"} {
		recs, err := m.StoredInventory(ctx, env)
		if err != nil {
			t.Fatalf("stored inventory: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected 2 records for %s, got %d", env, len(recs))
		}
		if recs[0].Kind != store.KindPackageManager || recs[0].Version != "24.0" {
			t.Fatalf("unexpected record: %+v", recs[0])
		}
	}
	// Two environments, two records each in the in-process inventory.
	if n := len(m.Inventory().Software()); n != 2 {
		t.Fatalf("expected 2 software records, got %d", n)
	}
}

func TestProvisionIdempotentAcrossCalls(t *testing.T) {
	requireUnix(t)
	root := t.TempDir()
	bs := fakePython(t, t.TempDir())
	m, err := NewWithInterpreter(testConfig(root), false, bs)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := m.Provision(ctx, "analysis"); err != nil {
		t.Fatalf("provision: %v", err)
	}
	lock := filepath.Join(root, "envs", "analysis", "requirements.lock")
	st1, err := os.Stat(lock)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Same run: phases are cached, nothing re-executes.
	if err := m.Provision(ctx, "analysis"); err != nil {
		t.Fatalf("second provision: %v", err)
	}
	st2, _ := os.Stat(lock)
	if !st1.ModTime().Equal(st2.ModTime()) {
		t.Fatalf("lock file rewritten on cached provision")
	}
}

func TestActivation(t *testing.T) {
	m, err := NewWithInterpreter(testConfig(t.TempDir()), true, interpreter.New("/x"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cmd, err := m.ActivateCommand("analysis")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if len(cmd) != 1 || !strings.Contains(cmd[0], filepath.Join("envs", "analysis", ".venv", "bin", "activate")) {
		t.Fatalf("unexpected activate command: %v", cmd)
	}
	envs, err := m.ActivationEnv("analysis")
	if err != nil {
		t.Fatalf("activation env: %v", err)
	}
	var found bool
	for _, kv := range envs {
		if strings.HasPrefix(kv, "VIRTUAL_ENV=") {
			found = true
		}
	}
	if !found {
		t.Fatalf("VIRTUAL_ENV not set: %v", envs)
	}
}
