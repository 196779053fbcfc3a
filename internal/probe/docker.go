package probe

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

const composeProjectLabel = "com.docker.compose.project"

// DockerSource probes container health through the Docker Engine API.
type DockerSource struct {
	cli *client.Client
}

// NewDockerSource connects to the Docker daemon. host may be empty, in which
// case the standard environment variables (DOCKER_HOST etc.) and the default
// socket are used.
func NewDockerSource(host string) (*DockerSource, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("connect docker: %w", err)
	}
	return &DockerSource{cli: cli}, nil
}

func (d *DockerSource) Close() error { return d.cli.Close() }

// ListIDs returns the names of all running containers. Containers without a
// healthcheck are included here and filtered out by Probe.
func (d *DockerSource) ListIDs(ctx context.Context) ([]string, error) {
	sums, err := d.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	ids := make([]string, 0, len(sums))
	for _, s := range sums {
		if len(s.Names) > 0 {
			ids = append(ids, strings.TrimPrefix(s.Names[0], "/"))
		} else {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (d *DockerSource) Probe(ctx context.Context, id string) (Result, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("inspect %s: %w", id, err)
	}
	var labels map[string]string
	if info.Config != nil {
		labels = info.Config.Labels
	}
	res := Result{Project: deriveProject(labels, id)}
	if info.State == nil || info.State.Health == nil {
		return res, ErrNoHealthcheck
	}
	switch info.State.Health.Status {
	case container.Healthy:
		res.Status = StatusHealthy
	case container.Starting:
		res.Status = StatusStarting
	case container.Unhealthy:
		res.Status = StatusUnhealthy
	default: // "none" or empty
		return res, ErrNoHealthcheck
	}
	return res, nil
}

// Diagnostics tails recent container output for inclusion in escalations.
// Docker multiplexes stdout/stderr on one stream; both are folded together.
func (d *DockerSource) Diagnostics(ctx context.Context, id string, tailLines int) string {
	if tailLines <= 0 {
		tailLines = 10
	}
	rc, err := d.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tailLines),
	})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "container not found - may have been removed"
		}
		return fmt.Sprintf("could not retrieve logs: %v", err)
	}
	defer func() { _ = rc.Close() }()
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return fmt.Sprintf("could not read logs: %v", err)
	}
	return buf.String()
}

// deriveProject extracts a project label for a container. Compose sets an
// explicit label; otherwise compose-style names (project-service-1) give a
// usable prefix.
func deriveProject(labels map[string]string, name string) string {
	if p, ok := labels[composeProjectLabel]; ok && p != "" {
		return p
	}
	if i := strings.IndexByte(name, '-'); i > 0 {
		return name[:i]
	}
	return "unknown"
}
