package factory

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteDSNVariants(t *testing.T) {
	dir := t.TempDir()
	for _, dsn := range []string{
		filepath.Join(dir, "a.db"),
		"sqlite://" + filepath.Join(dir, "b.db"),
		"sqlite://:memory:",
	} {
		s, err := NewFromDSN(dsn)
		if err != nil {
			t.Fatalf("NewFromDSN(%q): %v", dsn, err)
		}
		if err := s.EnsureSchema(context.Background()); err != nil {
			t.Fatalf("schema for %q: %v", dsn, err)
		}
		_ = s.Close()
	}
}

func TestInvalidDSN(t *testing.T) {
	if _, err := NewFromDSN(""); err == nil {
		t.Fatalf("empty DSN must error")
	}
	if _, err := NewFromDSN("redis://localhost:6379"); err == nil {
		t.Fatalf("unsupported scheme must error")
	}
}
