package interpreter

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestResolvePreferenceOrder(t *testing.T) {
	requireUnix(t)
	exe, err := Resolve("definitely-not-a-real-tool-xyz", "sh")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasSuffix(exe.Path, "/sh") {
		t.Fatalf("unexpected resolved path: %s", exe.Path)
	}
}

func TestResolveNotFound(t *testing.T) {
	_, err := Resolve("definitely-not-a-real-tool-xyz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithDefaultArgsDoesNotMutate(t *testing.T) {
	base := New("/usr/bin/python3")
	pip := base.WithDefaultArgs("-m", "pip")
	if got := base.Args("x"); len(got) != 1 || got[0] != "x" {
		t.Fatalf("base mutated: %v", got)
	}
	if got := pip.Args("install"); strings.Join(got, " ") != "-m pip install" {
		t.Fatalf("unexpected derived args: %v", got)
	}
}

func TestOutputCaptures(t *testing.T) {
	requireUnix(t)
	sh, err := Resolve("sh")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out, err := sh.Output(context.Background(), "-c", "echo hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRunFailureWrapsToolError(t *testing.T) {
	requireUnix(t)
	sh, err := Resolve("sh")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	err = sh.Run(context.Background(), nil, nil, "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatalf("expected failure")
	}
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected ToolError, got %T", err)
	}
	if !strings.Contains(te.Output, "boom") {
		t.Fatalf("captured output missing diagnostics: %q", te.Output)
	}
}
