package healthmon

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/loykin/healthmon/internal/config"
	"github.com/loykin/healthmon/internal/history"
	"github.com/loykin/healthmon/internal/history/factory"
	"github.com/loykin/healthmon/internal/metrics"
	"github.com/loykin/healthmon/internal/monitor"
	"github.com/loykin/healthmon/internal/notify"
	"github.com/loykin/healthmon/internal/probe"
	"github.com/loykin/healthmon/internal/retry"
	iapi "github.com/loykin/healthmon/internal/server"
	"github.com/loykin/healthmon/internal/state"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Status = probe.Status

const (
	StatusUnknown   = probe.StatusUnknown
	StatusStarting  = probe.StatusStarting
	StatusHealthy   = probe.StatusHealthy
	StatusUnhealthy = probe.StatusUnhealthy
	StatusNotFound  = probe.StatusNotFound
)

type Record = state.Record

type Source = probe.Source

type Result = probe.Result

type Config = monitor.Config

type Backoff = retry.Backoff

type Notification = notify.Notification

type Notifier = notify.Notifier

type Mailer = notify.Mailer

type SMTPConfig = notify.SMTPConfig

type Router = notify.Router

type Route = notify.Route

type LogNotifier = notify.LogNotifier

type HistorySink = history.Sink

type HistoryEvent = history.Event

type FileConfig = cfg.FileConfig

// Monitor is a thin facade over internal/monitor.Monitor.
// It provides a stable public API for embedding.
type Monitor struct{ inner *monitor.Monitor }

func New(c Config, src Source, n Notifier) *Monitor {
	return &Monitor{inner: monitor.New(c, src, n)}
}

func (m *Monitor) Start() error                       { return m.inner.Start() }
func (m *Monitor) Stop()                              { m.inner.Stop() }
func (m *Monitor) RunPass(ctx context.Context) error  { return m.inner.RunPass(ctx) }
func (m *Monitor) TriggerPass()                       { m.inner.TriggerPass() }
func (m *Monitor) Statuses() []Record                 { return m.inner.Statuses() }
func (m *Monitor) Status(name string) (Record, bool)  { return m.inner.Status(name) }
func (m *Monitor) PendingRetries() []string           { return m.inner.PendingRetries() }
func (m *Monitor) SetLogger(l *slog.Logger)           { m.inner.SetLogger(l) }
func (m *Monitor) SetHistorySinks(ss ...HistorySink)  { m.inner.SetHistorySinks(ss...) }

// NewDockerSource connects to the Docker daemon; an empty host uses the
// environment/default socket.
func NewDockerSource(host string) (Source, error) { return probe.NewDockerSource(host) }

// NewHistorySinkFromDSN builds a history sink from a DSN
// (sqlite://, postgres://, clickhouse://, opensearch://).
func NewHistorySinkFromDSN(dsn string) (HistorySink, error) { return factory.NewSinkFromDSN(dsn) }

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (*FileConfig, error) {
	fc, err := cfg.Load(path)
	if err != nil {
		return nil, err
	}
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return fc, nil
}

// NewHTTPHandler returns an http.Handler exposing the monitor API, mountable
// in any server or mux (gin, echo, net/http).
func NewHTTPHandler(m *Monitor, basePath string) http.Handler {
	return iapi.NewRouter(m.inner, basePath).Handler()
}

// NewHTTPServer returns an HTTP server for the monitor API on addr.
func NewHTTPServer(addr, basePath string, m *Monitor) *http.Server {
	return iapi.NewServer(addr, basePath, m.inner)
}

// RegisterMetrics registers the monitor's Prometheus collectors.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// RegisterMetricsDefault registers collectors with the default registry.
func RegisterMetricsDefault() error { return metrics.RegisterDefault() }

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler { return metrics.Handler() }

// ServeMetrics serves /metrics on addr. It blocks like ListenAndServe.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
