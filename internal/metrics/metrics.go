package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	phaseRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provenv",
			Subsystem: "phase",
			Name:      "runs_total",
			Help:      "Number of provisioning phase bodies executed.",
		}, []string{"phase"},
	)
	phaseCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provenv",
			Subsystem: "phase",
			Name:      "cache_hits_total",
			Help:      "Number of phase executions skipped via the workspace cache.",
		}, []string{"phase"},
	)
	phaseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provenv",
			Subsystem: "phase",
			Name:      "failures_total",
			Help:      "Number of phase bodies that returned an error.",
		}, []string{"phase"},
	)
	installs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provenv",
			Subsystem: "env",
			Name:      "installs_total",
			Help:      "Number of completed package installations.",
		}, []string{"env"},
	)
	installDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "provenv",
			Subsystem: "env",
			Name:      "install_duration_seconds",
			Help:      "Wall time of the install phase including freeze.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"env"},
	)
	specCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "provenv",
			Subsystem: "env",
			Name:      "spec_count",
			Help:      "Number of package specs in the environment's requirement set.",
		}, []string{"env"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		phaseRuns, phaseCacheHits, phaseFailures, installs, installDuration, specCount,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns the promhttp handler for the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func IncPhaseRun(phase string)      { phaseRuns.WithLabelValues(phase).Inc() }
func IncPhaseCacheHit(phase string) { phaseCacheHits.WithLabelValues(phase).Inc() }
func IncPhaseFailure(phase string)  { phaseFailures.WithLabelValues(phase).Inc() }
func IncInstall(env string)         { installs.WithLabelValues(env).Inc() }

func ObserveInstallDuration(env string, d time.Duration) {
	installDuration.WithLabelValues(env).Observe(d.Seconds())
}

func SetSpecCount(env string, n int) { specCount.WithLabelValues(env).Set(float64(n)) }
