package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/loykin/healthmon/internal/probe"
)

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, Notification) error {
	c.calls++
	return c.err
}

func TestMultiDeliversToAllDespiteFailures(t *testing.T) {
	failing := &countingNotifier{err: errors.New("smtp down")}
	working := &countingNotifier{}
	m := Multi{Notifiers: []Notifier{failing, working}}

	if err := m.Notify(context.Background(), Notification{Name: "web"}); err != nil {
		t.Fatalf("multi must swallow destination errors, got %v", err)
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Fatalf("expected both notifiers called, got %d/%d", failing.calls, working.calls)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := LogNotifier{}
	err := n.Notify(context.Background(), Notification{
		Name: "web", Project: "shop",
		Status: probe.StatusUnhealthy, Previous: probe.StatusHealthy,
	})
	if err != nil {
		t.Fatalf("log notifier returned %v", err)
	}
}
