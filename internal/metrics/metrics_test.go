package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotent(t *testing.T) {
	r := prometheus.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(r); err != nil {
		t.Fatalf("second register should be a no-op: %v", err)
	}
}

func TestCountersDoNotPanic(t *testing.T) {
	IncPhaseRun("pip-env")
	IncPhaseCacheHit("pip-env")
	IncPhaseFailure("pip-install")
	IncInstall("analysis")
	ObserveInstallDuration("analysis", 125*time.Millisecond)
	SetSpecCount("analysis", 2)
}
