package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/healthmon/internal/history"
)

func TestSQLiteSinkSendAndQuery(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	ctx := context.Background()
	events := []history.Event{
		{
			Type: history.EventTransition, OccurredAt: time.Now().UTC(),
			Name: "shop-web-1", Project: "shop",
			From: "unknown", To: "healthy",
		},
		{
			Type: history.EventEscalation, OccurredAt: time.Now().UTC(),
			Name: "shop-web-1", Project: "shop",
			From: "healthy", To: "unhealthy", Attempt: 2,
		},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Failed to send event: %v", err)
		}
	}

	var count int
	if err := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM health_events").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 rows, got %d", count)
	}

	var event, name, project, prev, status string
	var attempt int
	err = sink.db.QueryRowContext(ctx,
		"SELECT event, name, project, prev_status, status, attempt FROM health_events WHERE event = ?",
		string(history.EventEscalation)).
		Scan(&event, &name, &project, &prev, &status, &attempt)
	if err != nil {
		t.Fatalf("Failed to query escalation row: %v", err)
	}
	if name != "shop-web-1" || project != "shop" || prev != "healthy" || status != "unhealthy" || attempt != 2 {
		t.Fatalf("Unexpected row: %s %s %s %s %d", name, project, prev, status, attempt)
	}
}

func TestSQLiteSinkDSNForms(t *testing.T) {
	dir := t.TempDir()

	for _, dsn := range []string{
		"sqlite://" + filepath.Join(dir, "a.db"),
		filepath.Join(dir, "b.db"),
		"sqlite://:memory:",
	} {
		sink, err := New(dsn)
		if err != nil {
			t.Fatalf("DSN %q: %v", dsn, err)
		}
		if err := sink.Send(context.Background(), history.Event{
			Type: history.EventResolved, OccurredAt: time.Now().UTC(),
			Name: "web", Project: "p", From: "unhealthy", To: "healthy", Attempt: 1,
		}); err != nil {
			t.Fatalf("DSN %q send: %v", dsn, err)
		}
		_ = sink.Close()
	}

	if _, err := New(""); err == nil {
		t.Fatalf("empty DSN must be rejected")
	}
}
