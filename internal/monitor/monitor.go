package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loykin/healthmon/internal/history"
	"github.com/loykin/healthmon/internal/metrics"
	"github.com/loykin/healthmon/internal/notify"
	"github.com/loykin/healthmon/internal/probe"
	"github.com/loykin/healthmon/internal/retry"
	"github.com/loykin/healthmon/internal/state"
)

// Config carries the monitor's tunables. Zero values are replaced with the
// defaults the original deployments ran with.
type Config struct {
	Interval         time.Duration // cadence between probe passes
	Workers          int           // worker pool size
	LogTailLines     int           // diagnostics lines included in escalations
	NotifyOnRecovery bool          // alert when a pass sees bad -> healthy
	Backoff          retry.Backoff // re-check delay policy
}

func (c *Config) normalize() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 30
	}
	if c.LogTailLines <= 0 {
		c.LogTailLines = 10
	}
	if c.Backoff.Delay <= 0 {
		c.Backoff.Delay = 15 * time.Minute
	}
	if c.Backoff.MaxAttempts < 1 {
		c.Backoff.MaxAttempts = 1
	}
}

// Monitor reconciles container health state: it runs bounded concurrent probe
// passes on a fixed cadence, tracks per-container transitions, and defers
// escalation of bad transitions through the retry registry so flapping
// containers that recover within the grace window never page anyone.
type Monitor struct {
	cfg      Config
	src      probe.Source
	notifier notify.Notifier
	store    *state.Store
	reg      *retry.Registry
	pool     *pool
	logger   *slog.Logger

	mu    sync.Mutex
	sinks []history.Sink

	ctx     context.Context
	cancel  context.CancelFunc
	kick    chan struct{}
	loopWG  sync.WaitGroup
	started atomic.Bool
}

func New(cfg Config, src probe.Source, notifier notify.Notifier) *Monitor {
	cfg.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		cfg:      cfg,
		src:      src,
		notifier: notifier,
		store:    state.New(),
		reg:      retry.NewRegistry(),
		pool:     newPool(cfg.Workers),
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		kick:     make(chan struct{}, 1),
	}
}

// SetLogger replaces the monitor's logger. Call before Start.
func (m *Monitor) SetLogger(l *slog.Logger) {
	if l != nil {
		m.logger = l
	}
}

// SetHistorySinks configures external audit sinks (SQLite, Postgres, ClickHouse,
// OpenSearch). Passing no sinks clears the list.
func (m *Monitor) SetHistorySinks(sinks ...history.Sink) {
	m.mu.Lock()
	m.sinks = append([]history.Sink(nil), sinks...)
	m.mu.Unlock()
}

// Start launches the pass-scheduling loop. The first pass runs immediately.
func (m *Monitor) Start() error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("monitor already started")
	}
	m.logger.Info("health monitor started",
		"interval", m.cfg.Interval,
		"workers", m.cfg.Workers,
		"retry_delay", m.cfg.Backoff.Delay,
		"backoff", m.cfg.Backoff.Enabled,
	)
	m.loopWG.Add(1)
	go m.loop()
	return nil
}

// Stop cancels all work and drains the worker pool. Re-checks that are
// mid-sleep are abandoned without probing or notifying.
func (m *Monitor) Stop() {
	m.cancel()
	m.loopWG.Wait()
	m.pool.Close()
	m.logger.Info("health monitor stopped")
}

// TriggerPass requests an immediate pass in addition to the fixed cadence.
func (m *Monitor) TriggerPass() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Monitor) loop() {
	defer m.loopWG.Done()
	_ = m.RunPass(m.ctx)
	tk := time.NewTicker(m.cfg.Interval)
	defer tk.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-tk.C:
		case <-m.kick:
		}
		if m.ctx.Err() != nil {
			return
		}
		_ = m.RunPass(m.ctx)
	}
}

// RunPass executes one bounded-concurrency probe pass over every listed
// container, then reports tracked containers that disappeared from the
// listing. A listing failure aborts the whole pass and leaves state untouched.
func (m *Monitor) RunPass(ctx context.Context) error {
	begin := time.Now()
	ids, err := m.src.ListIDs(ctx)
	if err != nil {
		metrics.IncPassFailure()
		m.logger.Error("listing containers failed, skipping pass", "err", err)
		return err
	}

	// Tracked set from before this pass; compared against the fresh listing
	// below for disappearance detection.
	before := m.store.Names()

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		ok := m.pool.Submit(func() {
			defer wg.Done()
			m.probeOne(ctx, id)
		})
		if !ok {
			wg.Done()
		}
	}
	wg.Wait()

	listed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		listed[id] = struct{}{}
	}
	for _, name := range before {
		if _, ok := listed[name]; !ok {
			m.reportGone(ctx, name)
		}
	}

	metrics.IncPass()
	metrics.ObservePassDuration(time.Since(begin).Seconds())
	metrics.SetTracked(m.store.Len())
	return nil
}

// probeOne checks a single container and evaluates its transition.
func (m *Monitor) probeOne(ctx context.Context, id string) {
	res, err := m.src.Probe(ctx, id)
	switch {
	case errors.Is(err, probe.ErrNoHealthcheck):
		// not opted into monitoring
		return
	case errors.Is(err, probe.ErrNotFound):
		// vanished between listing and probe; the next pass's listing diff
		// reports it
		m.logger.Debug("container gone mid-pass", "container", id)
		return
	case err != nil:
		metrics.IncProbeFailure(id)
		m.logger.Error("probe failed", "container", id, "err", err)
		return
	}

	now := time.Now()
	prev := probe.StatusUnknown
	if rec, ok := m.store.Get(id); ok {
		prev = rec.Status
	}
	m.store.Upsert(id, res.Project, res.Status, now)
	if res.Status == prev {
		return
	}

	m.logger.Info("status transition",
		"container", id, "project", res.Project,
		"from", prev.String(), "to", res.Status.String(),
	)
	metrics.RecordTransition(prev.String(), res.Status.String())
	m.record(ctx, history.Event{
		Type: history.EventTransition, OccurredAt: now,
		Name: id, Project: res.Project,
		From: prev.String(), To: res.Status.String(),
	})

	switch {
	case res.Status.Bad():
		m.Arm(id, res.Project, prev, 1)
	case res.Status == probe.StatusHealthy && prev.Bad() && !m.reg.Pending(id):
		// Recovery seen on a pass with no re-check in flight. When a re-check
		// is pending it resolves silently instead.
		m.record(ctx, history.Event{
			Type: history.EventRecovery, OccurredAt: now,
			Name: id, Project: res.Project,
			From: prev.String(), To: res.Status.String(),
		})
		if m.cfg.NotifyOnRecovery {
			m.dispatch(ctx, notify.Notification{
				Name: id, Project: res.Project,
				Status: res.Status, Previous: prev,
				Details: "container recovered to healthy status",
			})
		}
	}
}

// reportGone handles a tracked container missing from the current listing.
// Disappearance is not speculative the way "looks unhealthy" is, so it skips
// the retry window and notifies synchronously within the pass.
func (m *Monitor) reportGone(ctx context.Context, name string) {
	rec, ok := m.store.Get(name)
	if !ok {
		return
	}
	m.logger.Warn("container no longer running", "container", name, "project", rec.Project)
	m.store.Remove(name)
	m.record(ctx, history.Event{
		Type: history.EventNotFound, OccurredAt: time.Now(),
		Name: name, Project: rec.Project,
		From: rec.Status.String(), To: probe.StatusNotFound.String(),
	})
	m.dispatch(ctx, notify.Notification{
		Name: name, Project: rec.Project,
		Status: probe.StatusNotFound, Previous: rec.Status,
		Details: "container is no longer running or has been removed",
	})
}

// dispatch emits one notification. Delivery failures are logged by the
// notifier boundary and never alter tracked state.
func (m *Monitor) dispatch(ctx context.Context, n notify.Notification) {
	metrics.IncNotification(n.Status.String())
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, n); err != nil {
		m.logger.Error("notification failed", "container", n.Name, "err", err)
	}
}

// record fans an audit event out to all configured sinks, best-effort.
func (m *Monitor) record(ctx context.Context, e history.Event) {
	m.mu.Lock()
	sinks := append([]history.Sink(nil), m.sinks...)
	m.mu.Unlock()
	for _, s := range sinks {
		_ = s.Send(ctx, e)
	}
}

// Statuses returns a sorted snapshot of all tracked containers.
func (m *Monitor) Statuses() []state.Record {
	recs := m.store.Snapshot()
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs
}

// Status returns the tracked record for one container.
func (m *Monitor) Status(name string) (state.Record, bool) {
	return m.store.Get(name)
}

// PendingRetries returns the names of containers with a re-check in flight.
func (m *Monitor) PendingRetries() []string {
	names := m.reg.Names()
	sort.Strings(names)
	return names
}
