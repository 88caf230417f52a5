package env

import (
	"path/filepath"
	"strings"
	"testing"
)

func lookup(kvs []string, key string) (string, bool) {
	for _, kv := range kvs {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

func TestActivationSetsVirtualEnvAndPath(t *testing.T) {
	e := New()
	e.env = Var{"PATH": "/usr/bin", "HOME": "/home/u", "PYTHONHOME": "/opt/py"}
	venv := "/ws/envs/a/.venv"
	got := e.Activation(venv)

	if v, ok := lookup(got, "VIRTUAL_ENV"); !ok || v != venv {
		t.Fatalf("VIRTUAL_ENV = %q, %v", v, ok)
	}
	p, _ := lookup(got, "PATH")
	if !strings.HasPrefix(p, filepath.Join(venv, "bin")) || !strings.Contains(p, "/usr/bin") {
		t.Fatalf("PATH not prepended: %q", p)
	}
	if _, ok := lookup(got, "PYTHONHOME"); ok {
		t.Fatalf("PYTHONHOME should be dropped")
	}
}

func TestActivationGlobalOverridesAndExpansion(t *testing.T) {
	e := New()
	e.env = Var{"PATH": "/usr/bin", "BASE": "/data"}
	e.Set("CACHE_DIR", "${BASE}/cache")
	got := e.Activation("/ws/envs/a/.venv")
	if v, _ := lookup(got, "CACHE_DIR"); v != "/data/cache" {
		t.Fatalf("expansion failed: %q", v)
	}
	e.Unset("CACHE_DIR")
	got = e.Activation("/ws/envs/a/.venv")
	if _, ok := lookup(got, "CACHE_DIR"); ok {
		t.Fatalf("unset variable still present")
	}
}

func TestActivationEmptyPathBase(t *testing.T) {
	e := New()
	e.env = Var{}
	got := e.Activation("/v")
	if p, _ := lookup(got, "PATH"); p != filepath.Join("/v", "bin") {
		t.Fatalf("PATH = %q", p)
	}
}
