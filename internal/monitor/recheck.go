package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loykin/healthmon/internal/history"
	"github.com/loykin/healthmon/internal/metrics"
	"github.com/loykin/healthmon/internal/notify"
	"github.com/loykin/healthmon/internal/probe"
)

// recheck is one deferred re-probe of a container that transitioned into a
// bad status. previous is the status observed immediately before the first
// arm; it stays fixed across re-arms so the eventual alert shows the original
// transition.
type recheck struct {
	name     string
	project  string
	previous probe.Status
	attempt  int
	delay    time.Duration
}

// Arm schedules a deferred re-check for name unless one is already pending.
// The registry check-and-set is the dedup point: exactly one caller wins even
// when a pass transition and a re-arm race. Reports whether a task was armed.
func (m *Monitor) Arm(name, project string, previous probe.Status, attempt int) bool {
	if attempt < 1 {
		attempt = 1
	}
	if !m.reg.TryAcquire(name) {
		return false
	}
	t := recheck{
		name:     name,
		project:  project,
		previous: previous,
		attempt:  attempt,
		delay:    m.cfg.Backoff.Next(attempt),
	}
	run := func() { m.runRecheck(t) }
	// A worker finishing its own re-check re-arms from inside the pool, so a
	// blocking submit there could wedge a saturated pool. Fall back to a
	// goroutine that waits for capacity.
	if !m.pool.TrySubmit(run) {
		go func() {
			if !m.pool.Submit(run) {
				m.release(t.name)
			}
		}()
	}
	metrics.IncRetryArmed()
	metrics.SetRetriesInflight(m.reg.Len())
	m.logger.Info("re-check armed",
		"container", name, "project", project,
		"previous", previous.String(), "attempt", attempt, "delay", t.delay,
	)
	return true
}

func (m *Monitor) release(name string) {
	m.reg.Release(name)
	metrics.SetRetriesInflight(m.reg.Len())
}

// runRecheck sleeps out the backoff delay, re-probes, and settles the task:
// silent resolution, escalation, or termination. The registry slot is always
// released before any re-arm so the next attempt goes through the same
// dedup gate as externally triggered arms.
func (m *Monitor) runRecheck(t recheck) {
	if !sleepCtx(m.ctx, t.delay) {
		// shutdown mid-sleep: abandon without probing or notifying
		m.release(t.name)
		return
	}

	res, err := m.src.Probe(m.ctx, t.name)
	now := time.Now()
	switch {
	case errors.Is(err, probe.ErrNotFound):
		m.store.Remove(t.name)
		m.record(m.ctx, history.Event{
			Type: history.EventNotFound, OccurredAt: now,
			Name: t.name, Project: t.project,
			From: t.previous.String(), To: probe.StatusNotFound.String(),
			Attempt: t.attempt,
		})
		m.dispatch(m.ctx, notify.Notification{
			Name: t.name, Project: t.project,
			Status: probe.StatusNotFound, Previous: t.previous,
			Details: "container disappeared during the re-check window",
		})
		m.release(t.name)

	case errors.Is(err, probe.ErrNoHealthcheck):
		// healthcheck removed while we slept; no longer monitorable
		m.logger.Info("healthcheck removed, dropping re-check", "container", t.name)
		m.release(t.name)

	case err != nil:
		// transient daemon error: the container may still be bad, so the
		// escalation must survive. Re-arm while attempts remain; once they
		// run out, escalate with unknown status so the failure is not lost.
		m.logger.Error("re-check probe failed", "container", t.name, "err", err)
		m.release(t.name)
		if m.cfg.Backoff.Again(t.attempt) {
			m.Arm(t.name, t.project, t.previous, t.attempt+1)
			return
		}
		m.store.Upsert(t.name, t.project, probe.StatusUnknown, now)
		m.record(m.ctx, history.Event{
			Type: history.EventEscalation, OccurredAt: now,
			Name: t.name, Project: t.project,
			From: t.previous.String(), To: probe.StatusUnknown.String(),
			Attempt: t.attempt,
		})
		m.dispatch(m.ctx, notify.Notification{
			Name: t.name, Project: t.project,
			Status: probe.StatusUnknown, Previous: t.previous,
			Details: fmt.Sprintf("re-check probe failed after %s (attempt %d): %v",
				t.delay.Round(time.Second), t.attempt, err),
		})

	case res.Status == probe.StatusHealthy:
		// recovered inside the grace window: update state, no alert
		m.store.Upsert(t.name, res.Project, probe.StatusHealthy, now)
		metrics.IncRetryResolved()
		m.record(m.ctx, history.Event{
			Type: history.EventResolved, OccurredAt: now,
			Name: t.name, Project: res.Project,
			From: t.previous.String(), To: probe.StatusHealthy.String(),
			Attempt: t.attempt,
		})
		m.logger.Info("recovered during re-check window, alert suppressed",
			"container", t.name, "attempt", t.attempt)
		m.release(t.name)

	default:
		// still starting/unhealthy: escalate with recent container output
		details := fmt.Sprintf("container remained %s after %s (attempt %d)\n\nrecent logs:\n\n%s",
			res.Status.String(), t.delay.Round(time.Second), t.attempt,
			m.src.Diagnostics(m.ctx, t.name, m.cfg.LogTailLines))
		m.store.Upsert(t.name, res.Project, res.Status, now)
		m.record(m.ctx, history.Event{
			Type: history.EventEscalation, OccurredAt: now,
			Name: t.name, Project: res.Project,
			From: t.previous.String(), To: res.Status.String(),
			Attempt: t.attempt,
		})
		m.dispatch(m.ctx, notify.Notification{
			Name: t.name, Project: res.Project,
			Status: res.Status, Previous: t.previous,
			Details: details,
		})
		m.release(t.name)
		if m.cfg.Backoff.Again(t.attempt) {
			// sequential re-arm through the normal entry point; the slot was
			// just released, so this acquire cannot double-schedule
			m.Arm(t.name, t.project, t.previous, t.attempt+1)
		}
	}
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
// It reports whether the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
