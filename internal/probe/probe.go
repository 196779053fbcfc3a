package probe

import (
	"context"
	"errors"
)

// Status is the coarse health state tracked for a monitored container.
// Values mirror the Docker healthcheck states plus two monitor-side states:
// StatusUnknown for containers never probed successfully and StatusNotFound
// for containers that vanished from the listing.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusStarting  Status = "starting"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusNotFound  Status = "not_found"
)

// Bad reports whether s is a state worth re-checking and possibly alerting on.
func (s Status) Bad() bool { return s == StatusStarting || s == StatusUnhealthy }

func (s Status) String() string { return string(s) }

var (
	// ErrNotFound means the container vanished between listing and probing.
	ErrNotFound = errors.New("container not found")
	// ErrNoHealthcheck means the container exists but defines no healthcheck,
	// so it is not opted into monitoring.
	ErrNoHealthcheck = errors.New("container has no healthcheck")
)

// Result is a single point-in-time observation of one container.
// Project is best-effort: compose label when present, name prefix otherwise.
type Result struct {
	Status  Status
	Project string
}

// Source enumerates containers and answers health probes for them.
// Implementations must be safe for concurrent use; the monitor probes many
// containers at once from its worker pool.
type Source interface {
	// ListIDs returns the names of all currently running containers.
	ListIDs(ctx context.Context) ([]string, error)
	// Probe returns the current health observation for one container.
	// It fails with ErrNotFound if the container vanished mid-call and with
	// ErrNoHealthcheck if the container defines no healthcheck.
	Probe(ctx context.Context, id string) (Result, error)
	// Diagnostics returns up to tailLines of recent container output.
	// It is best-effort: failures are reported as a placeholder string in the
	// result rather than as an error.
	Diagnostics(ctx context.Context, id string, tailLines int) string
}
