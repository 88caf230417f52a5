package workspace

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestCacheCheckAndRegister(t *testing.T) {
	w := New(t.TempDir(), false)
	k := CacheKey{Phase: "pip-env", EnvPath: "/env/a"}
	if w.CheckCache(k) {
		t.Fatalf("fresh cache should be empty")
	}
	w.AddToCache(k)
	if !w.CheckCache(k) {
		t.Fatalf("registered key not found")
	}
	if w.CheckCache(CacheKey{Phase: "pip-install", EnvPath: "/env/a"}) {
		t.Fatalf("distinct phase must have distinct key")
	}
	w.ResetCache()
	if w.CheckCache(k) {
		t.Fatalf("reset should clear keys")
	}
}

func TestCacheConcurrentRegistration(t *testing.T) {
	w := New(t.TempDir(), false)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			k := CacheKey{Phase: "pip-env", EnvPath: filepath.Join("/envs", string(rune('a'+n%8)))}
			w.AddToCache(k)
			_ = w.CheckCache(k)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		k := CacheKey{Phase: "pip-env", EnvPath: filepath.Join("/envs", string(rune('a'+i)))}
		if !w.CheckCache(k) {
			t.Fatalf("missing key %v", k)
		}
	}
}

func TestEnvPathAndRelPath(t *testing.T) {
	root := t.TempDir()
	w := New(root, false)
	p := w.EnvPath("analysis")
	if p != filepath.Join(root, "envs", "analysis") {
		t.Fatalf("unexpected env path: %s", p)
	}
	if got := w.RelPath(p); got != filepath.Join("envs", "analysis") {
		t.Fatalf("unexpected rel path: %s", got)
	}
	if got := w.RelPath("/elsewhere/x"); got != "/elsewhere/x" {
		t.Fatalf("outside path must be unchanged: %s", got)
	}
}

func TestRenderEnvironment(t *testing.T) {
	w := New(t.TempDir(), false)
	w.AddEnvironment(SoftwareEnvironment{Name: "a", Packages: []string{"numpy==1.2", "requests"}})

	se, ok, err := w.RenderEnvironment("a", true)
	if err != nil || !ok {
		t.Fatalf("render: %v %v", ok, err)
	}
	if len(se.Packages) != 2 || se.Packages[0] != "numpy==1.2" {
		t.Fatalf("unexpected packages: %v", se.Packages)
	}

	if _, ok, err := w.RenderEnvironment("missing", false); err != nil || ok {
		t.Fatalf("optional missing env should be ok=false, err=nil; got %v %v", ok, err)
	}
	if _, _, err := w.RenderEnvironment("missing", true); err == nil {
		t.Fatalf("required missing env must error")
	}
}

func TestEnvironmentsOrderAndReplace(t *testing.T) {
	w := New(t.TempDir(), false)
	w.AddEnvironment(SoftwareEnvironment{Name: "b", Packages: []string{"x"}})
	w.AddEnvironment(SoftwareEnvironment{Name: "a", Packages: []string{"y"}})
	w.AddEnvironment(SoftwareEnvironment{Name: "b", Packages: []string{"z"}})
	envs := w.Environments()
	if len(envs) != 2 || envs[0].Name != "b" || envs[1].Name != "a" {
		t.Fatalf("registration order lost: %v", envs)
	}
	if envs[0].Packages[0] != "z" {
		t.Fatalf("replacement lost: %v", envs[0].Packages)
	}
	names := w.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names not sorted: %v", names)
	}
}
