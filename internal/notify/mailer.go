package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/loykin/healthmon/internal/probe"
)

// SMTPConfig describes the mail relay used for alert delivery.
// Port 587 uses STARTTLS; any other port uses implicit TLS (465-style).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Mailer delivers notifications as plain-text emails, the way operators have
// received them since the original shell deployments of this monitor.
type Mailer struct {
	SMTP       SMTPConfig
	Router     Router
	ServerName string
	Logger     *slog.Logger
}

func (m *Mailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

func (m *Mailer) Notify(ctx context.Context, n Notification) error {
	recipients := n.Recipients
	if len(recipients) == 0 {
		recipients = m.Router.Recipients(n.Name, n.Project)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients for %s", n.Name)
	}
	msg := m.render(n, recipients)
	if err := m.send(ctx, recipients, msg); err != nil {
		m.logger().Error("alert email failed", "container", n.Name, "recipients", strings.Join(recipients, ","), "err", err)
		return err
	}
	m.logger().Info("alert sent", "container", n.Name, "project", n.Project, "status", n.Status.String(), "recipients", strings.Join(recipients, ","))
	return nil
}

func severity(st probe.Status) string {
	switch st {
	case probe.StatusUnhealthy:
		return "CRITICAL"
	case probe.StatusNotFound:
		return "ERROR"
	case probe.StatusStarting:
		return "WARNING"
	default:
		return "INFO"
	}
}

func (m *Mailer) render(n Notification, recipients []string) []byte {
	subject := fmt.Sprintf("%s: [%s] %s - health status changed", severity(n.Status), n.Project, n.Name)
	change := n.Status.String()
	if n.Previous != "" {
		change = n.Previous.String() + " -> " + n.Status.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.SMTP.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	b.WriteString("Container Health Alert\r\n======================\r\n\r\n")
	fmt.Fprintf(&b, "Server:        %s\r\n", m.ServerName)
	fmt.Fprintf(&b, "Project:       %s\r\n", n.Project)
	fmt.Fprintf(&b, "Container:     %s\r\n", n.Name)
	fmt.Fprintf(&b, "Status change: %s\r\n", change)
	fmt.Fprintf(&b, "Severity:      %s\r\n", severity(n.Status))
	fmt.Fprintf(&b, "Time:          %s\r\n", time.Now().Format("2006-01-02 15:04:05"))

	if n.Details != "" {
		b.WriteString("\r\nDetails:\r\n--------\r\n")
		b.WriteString(strings.ReplaceAll(n.Details, "\n", "\r\n"))
		b.WriteString("\r\n")
	}

	b.WriteString("\r\nSuggested checks:\r\n-----------------\r\n")
	switch n.Status {
	case probe.StatusUnhealthy, probe.StatusStarting:
		fmt.Fprintf(&b, "  docker logs %s\r\n", n.Name)
		fmt.Fprintf(&b, "  docker inspect %s\r\n", n.Name)
		fmt.Fprintf(&b, "  docker restart %s\r\n", n.Name)
	case probe.StatusNotFound:
		fmt.Fprintf(&b, "  docker ps -a | grep %s\r\n", n.Name)
		b.WriteString("  docker compose ps   (from the project directory)\r\n")
		b.WriteString("  docker compose up -d\r\n")
	default:
		b.WriteString("  monitor the situation and check logs for more information\r\n")
	}

	fmt.Fprintf(&b, "\r\n---\r\nAutomated alert from healthmon on %s\r\n", m.ServerName)
	return []byte(b.String())
}

func (m *Mailer) send(ctx context.Context, recipients []string, msg []byte) error {
	timeout := m.SMTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if d, ok := ctx.Deadline(); ok {
		if until := time.Until(d); until < timeout {
			timeout = until
		}
	}
	addr := net.JoinHostPort(m.SMTP.Host, fmt.Sprintf("%d", m.SMTP.Port))

	var (
		c   *smtp.Client
		err error
	)
	if m.SMTP.Port == 587 {
		conn, derr := net.DialTimeout("tcp", addr, timeout)
		if derr != nil {
			return derr
		}
		_ = conn.SetDeadline(time.Now().Add(timeout))
		if c, err = smtp.NewClient(conn, m.SMTP.Host); err != nil {
			_ = conn.Close()
			return err
		}
		if err = c.StartTLS(&tls.Config{ServerName: m.SMTP.Host, MinVersion: tls.VersionTLS12}); err != nil {
			_ = c.Close()
			return err
		}
	} else {
		d := &net.Dialer{Timeout: timeout}
		conn, derr := tls.DialWithDialer(d, "tcp", addr, &tls.Config{ServerName: m.SMTP.Host, MinVersion: tls.VersionTLS12})
		if derr != nil {
			return derr
		}
		_ = conn.SetDeadline(time.Now().Add(timeout))
		if c, err = smtp.NewClient(conn, m.SMTP.Host); err != nil {
			_ = conn.Close()
			return err
		}
	}
	defer func() { _ = c.Close() }()

	if m.SMTP.Username != "" {
		auth := smtp.PlainAuth("", m.SMTP.Username, m.SMTP.Password, m.SMTP.Host)
		if err = c.Auth(auth); err != nil {
			return err
		}
	}
	from := m.SMTP.From
	if from == "" {
		from = m.SMTP.Username
	}
	if err = c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err = c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
