package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	passes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "passes_total",
			Help:      "Number of completed probe passes.",
		},
	)
	passFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "pass_failures_total",
			Help:      "Number of passes aborted because listing containers failed.",
		},
	)
	passDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "pass_duration_seconds",
			Help:      "Wall-clock duration of a full probe pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	probeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "probe_failures_total",
			Help:      "Number of per-container probe failures.",
		}, []string{"container"},
	)
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "transitions_total",
			Help:      "Number of health state transitions between two statuses.",
		}, []string{"from", "to"},
	)
	retriesArmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "retries_armed_total",
			Help:      "Number of deferred re-checks scheduled.",
		},
	)
	retriesResolved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "retries_resolved_total",
			Help:      "Number of re-checks that found the container healthy again.",
		},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "notifications_total",
			Help:      "Number of notifications emitted, by final status.",
		}, []string{"status"},
	)
	trackedContainers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "tracked_containers",
			Help:      "Current number of containers with a tracked health state.",
		},
	)
	retriesInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "healthmon",
			Subsystem: "monitor",
			Name:      "retries_inflight",
			Help:      "Current number of re-checks queued or sleeping.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{passes, passFailures, passDuration, probeFailures, transitions, retriesArmed, retriesResolved, notifications, trackedContainers, retriesInflight}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
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

// RegisterDefault registers collectors with the default Prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncPass() {
	if regOK.Load() {
		passes.Inc()
	}
}

func IncPassFailure() {
	if regOK.Load() {
		passFailures.Inc()
	}
}

func ObservePassDuration(seconds float64) {
	if regOK.Load() {
		passDuration.Observe(seconds)
	}
}

func IncProbeFailure(container string) {
	if regOK.Load() {
		probeFailures.WithLabelValues(container).Inc()
	}
}

func RecordTransition(from, to string) {
	if regOK.Load() {
		transitions.WithLabelValues(from, to).Inc()
	}
}

func IncRetryArmed() {
	if regOK.Load() {
		retriesArmed.Inc()
	}
}

func IncRetryResolved() {
	if regOK.Load() {
		retriesResolved.Inc()
	}
}

func IncNotification(status string) {
	if regOK.Load() {
		notifications.WithLabelValues(status).Inc()
	}
}

func SetTracked(n int) {
	if regOK.Load() {
		trackedContainers.Set(float64(n))
	}
}

func SetRetriesInflight(n int) {
	if regOK.Load() {
		retriesInflight.Set(float64(n))
	}
}
