package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/loykin/provenv/internal/config"
	"github.com/loykin/provenv/internal/interpreter"
	mng "github.com/loykin/provenv/internal/manager"
)

func stubInterpreter(t *testing.T) interpreter.Executable {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
	path := filepath.Join(t.TempDir(), "fake-python")
	script := `#!/bin/sh
case "$*" in
  *--version*) echo "pip 24.0 from /lib/python3.12/site-packages/pip (python 3.12)";;
esac
exit 0
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { // #nosec G306
		t.Fatalf("write stub: %v", err)
	}
	return interpreter.New(path)
}

func setupRouter(t *testing.T, base string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Workspace: config.WorkspaceConfig{Root: t.TempDir()},
		Environments: []config.EnvConfig{
			{Name: "analysis", Packages: []string{"numpy==1.2"}},
		},
	}
	mgr, err := mng.NewWithInterpreter(cfg, true, stubInterpreter(t))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return NewRouter(mgr, base).Handler()
}

func doReq(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProvisionRequiresSelector(t *testing.T) {
	h := setupRouter(t, "/api")
	rec := doReq(t, h, http.MethodPost, "/api/provision")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProvisionRejectsBothSelectors(t *testing.T) {
	h := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/provision?name=analysis&all=1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProvisionUnsafeName(t *testing.T) {
	h := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/provision?name=..%2Fescape")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProvisionUnknownEnv(t *testing.T) {
	h := setupRouter(t, "")
	rec := doReq(t, h, http.MethodPost, "/provision?name=missing")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProvisionDryRunReportsFlag(t *testing.T) {
	h := setupRouter(t, "/api")
	rec := doReq(t, h, http.MethodPost, "/api/provision?name=analysis")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp okResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !resp.OK || !resp.DryRun {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEnvironments(t *testing.T) {
	h := setupRouter(t, "")
	rec := doReq(t, h, http.MethodGet, "/environments")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envs []environmentResp
	if err := json.Unmarshal(rec.Body.Bytes(), &envs); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(envs) != 1 || envs[0].Name != "analysis" {
		t.Fatalf("unexpected environments: %+v", envs)
	}
}

func TestInventoryAfterProvision(t *testing.T) {
	h := setupRouter(t, "")
	if rec := doReq(t, h, http.MethodPost, "/provision?all=1"); rec.Code != http.StatusOK {
		t.Fatalf("provision failed: %d %s", rec.Code, rec.Body.String())
	}
	rec := doReq(t, h, http.MethodGet, "/inventory")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var inv inventoryResp
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(inv.Software) != 1 || inv.Software[0].Digest == "" {
		t.Fatalf("unexpected inventory: %+v", inv)
	}
	if len(inv.PackageManagers) != 1 || inv.PackageManagers[0].Version != "24.0" {
		t.Fatalf("unexpected package managers: %+v", inv.PackageManagers)
	}
}

func TestVersion(t *testing.T) {
	h := setupRouter(t, "/api")
	rec := doReq(t, h, http.MethodGet, "/api/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var v versionResp
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.PackageManager != "pip" || v.Version != "24.0" {
		t.Fatalf("unexpected version: %+v", v)
	}
}

func TestActivate(t *testing.T) {
	h := setupRouter(t, "")
	rec := doReq(t, h, http.MethodGet, "/activate?name=analysis")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var a activateResp
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(a.Command) != 1 || len(a.Env) == 0 {
		t.Fatalf("unexpected activation payload: %+v", a)
	}
}

func TestSanitizeBase(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"/":     "",
		"api":   "/api",
		"/api/": "/api",
		" /v1 ": "/v1",
	}
	for in, want := range cases {
		if got := sanitizeBase(in); got != want {
			t.Fatalf("sanitizeBase(%q)=%q want %q", in, got, want)
		}
	}
}

func TestIsSafeName(t *testing.T) {
	for _, ok := range []string{"analysis", "env-1", "a.b_c"} {
		if !isSafeName(ok) {
			t.Fatalf("%q should be safe", ok)
		}
	}
	for _, bad := range []string{"", "..", "a/b", `a\b`, "x y", fmt.Sprintf("a%cb", 0)} {
		if isSafeName(bad) {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}
