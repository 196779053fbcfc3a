package notify

import (
	"context"
	"log/slog"

	"github.com/loykin/healthmon/internal/probe"
)

// Notification is one escalation for a single container.
// Previous is empty when there was no prior tracked status. Recipients
// overrides routing when set; normally it is left nil and the notifier
// resolves recipients itself.
type Notification struct {
	Name       string
	Project    string
	Status     probe.Status
	Previous   probe.Status
	Details    string
	Recipients []string
}

// Notifier delivers one notification. Implementations own their failure
// handling; the monitor treats Notify as fire-and-forget and never rolls back
// state when delivery fails.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi fans a notification out to several notifiers. Errors are logged and
// swallowed so one failing destination cannot block another.
type Multi struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

func (m Multi) Notify(ctx context.Context, n Notification) error {
	lg := m.Logger
	if lg == nil {
		lg = slog.Default()
	}
	for _, nt := range m.Notifiers {
		if err := nt.Notify(ctx, n); err != nil {
			lg.Error("notify failed", "container", n.Name, "project", n.Project, "err", err)
		}
	}
	return nil
}

// LogNotifier writes notifications to the structured log. It is the default
// notifier when email delivery is disabled.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	lg := l.Logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.Warn("health alert",
		"container", n.Name,
		"project", n.Project,
		"status", n.Status.String(),
		"previous", n.Previous.String(),
	)
	return nil
}
