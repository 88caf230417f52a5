package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWritersFromDir(t *testing.T) {
	dir := t.TempDir()
	c := Config{Dir: dir}
	outW, errW, err := c.Writers("analysis")
	if err != nil {
		t.Fatalf("writers: %v", err)
	}
	if outW == nil || errW == nil {
		t.Fatalf("expected both writers when Dir is set")
	}
	if _, err := outW.Write([]byte("pip install output\n")); err != nil {
		t.Fatalf("write stdout: %v", err)
	}
	_ = outW.Close()
	_ = errW.Close()
	b, err := os.ReadFile(filepath.Join(dir, "analysis.stdout.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "pip install output") {
		t.Fatalf("log content missing: %q", string(b))
	}
}

func TestWritersEmptyConfig(t *testing.T) {
	outW, errW, err := Config{}.Writers("x")
	if err != nil {
		t.Fatalf("writers: %v", err)
	}
	if outW != nil || errW != nil {
		t.Fatalf("expected nil writers for empty config")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorTextHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)
	l := slog.New(h)
	l.Info("creating venv environment")
	s := buf.String()
	if !strings.Contains(s, "\033[32m") || !strings.Contains(s, "creating venv environment") {
		t.Fatalf("unexpected output: %q", s)
	}
	if strings.Contains(s, "time=") {
		t.Fatalf("time attribute should be stripped: %q", s)
	}
}
