package main

import (
	"context"
	"fmt"

	"github.com/loykin/healthmon"
)

// runCheck performs one probe pass against the Docker daemon and prints the
// observed states. No re-checks or notifications are dispatched; this is a
// read-only snapshot for operators.
func runCheck(flags CheckFlags) error {
	fc, err := healthmon.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	src, err := healthmon.NewDockerSource(fc.Docker.Host)
	if err != nil {
		return err
	}
	defer func() {
		if c, ok := src.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}()

	mc, err := fc.MonitorConfig()
	if err != nil {
		return err
	}
	// Retries would outlive a one-shot invocation, so disable them.
	mc.Backoff.MaxAttempts = 0
	mc.Backoff.Enabled = false

	mon := healthmon.New(mc, src, healthmon.LogNotifier{})
	if err := mon.RunPass(context.Background()); err != nil {
		return err
	}
	mon.Stop()

	recs := mon.Statuses()
	if len(recs) == 0 {
		fmt.Println("no containers with healthchecks found")
		return nil
	}
	out := make([]containerStatus, 0, len(recs))
	for _, r := range recs {
		out = append(out, containerStatus{
			Name:      r.Name,
			Project:   r.Project,
			Status:    r.Status.String(),
			LastCheck: r.LastCheck,
		})
	}
	printStatuses(out)
	return nil
}
