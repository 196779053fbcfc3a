package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/loykin/healthmon/internal/probe"
)

func TestSeverityMapping(t *testing.T) {
	cases := map[probe.Status]string{
		probe.StatusUnhealthy: "CRITICAL",
		probe.StatusNotFound:  "ERROR",
		probe.StatusStarting:  "WARNING",
		probe.StatusHealthy:   "INFO",
		probe.StatusUnknown:   "INFO",
	}
	for st, want := range cases {
		if got := severity(st); got != want {
			t.Fatalf("severity(%s) = %s, want %s", st, got, want)
		}
	}
}

func TestRenderIncludesContextAndDetails(t *testing.T) {
	m := &Mailer{
		SMTP:       SMTPConfig{From: "monitor@example.com"},
		ServerName: "prod-01",
	}
	msg := string(m.render(Notification{
		Name:     "shop-web-1",
		Project:  "shop",
		Status:   probe.StatusUnhealthy,
		Previous: probe.StatusHealthy,
		Details:  "exit code 137",
	}, []string{"ops@example.com"}))

	for _, want := range []string{
		"From: monitor@example.com",
		"To: ops@example.com",
		"Subject: CRITICAL: [shop] shop-web-1 - health status changed",
		"Server:        prod-01",
		"healthy -> unhealthy",
		"exit code 137",
		"docker logs shop-web-1",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("rendered mail missing %q:\n%s", want, msg)
		}
	}
}

func TestRenderNotFoundSuggestsComposeChecks(t *testing.T) {
	m := &Mailer{ServerName: "prod-01"}
	msg := string(m.render(Notification{
		Name:    "shop-web-1",
		Project: "shop",
		Status:  probe.StatusNotFound,
	}, []string{"ops@example.com"}))
	if !strings.Contains(msg, "docker compose up -d") {
		t.Fatalf("not_found mail should suggest compose restart:\n%s", msg)
	}
	// no previous status: show only the new one
	if strings.Contains(msg, "-> not_found") {
		t.Fatalf("unexpected transition arrow without previous status:\n%s", msg)
	}
}

func TestNotifyFailsWithoutRecipients(t *testing.T) {
	m := &Mailer{}
	err := m.Notify(context.Background(), Notification{Name: "web"})
	if err == nil {
		t.Fatalf("expected error when no recipients resolve")
	}
}

func TestNotifyUsesExplicitRecipientsOverRouting(t *testing.T) {
	m := &Mailer{
		Router: Router{Default: []string{"default@example.com"}},
	}
	n := Notification{Name: "web", Recipients: []string{"explicit@example.com"}}
	msg := string(m.render(n, n.Recipients))
	if !strings.Contains(msg, "To: explicit@example.com") {
		t.Fatalf("explicit recipients not used:\n%s", msg)
	}
}
