package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/healthmon/internal/monitor"
	"github.com/loykin/healthmon/internal/notify"
	"github.com/loykin/healthmon/internal/retry"
)

// FileConfig represents the top-level TOML structure.

type FileConfig struct {
	ServerName    string   `toml:"server_name" mapstructure:"server_name"`
	CheckSchedule string   `toml:"check_schedule" mapstructure:"check_schedule"`
	Workers       int      `toml:"workers" mapstructure:"workers"`
	LogTailLines  int      `toml:"log_tail_lines" mapstructure:"log_tail_lines"`
	EnvFiles      []string `toml:"env_files" mapstructure:"env_files"`

	Retry   RetryConfig     `toml:"retry" mapstructure:"retry"`
	Docker  DockerConfig    `toml:"docker" mapstructure:"docker"`
	Notify  NotifyConfig    `toml:"notify" mapstructure:"notify"`
	Log     *LogConfig      `toml:"log" mapstructure:"log"`
	Metrics *MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
	HTTP    *HTTPConfig     `toml:"http" mapstructure:"http"`
	History []HistoryConfig `toml:"history" mapstructure:"history"`
}

type RetryConfig struct {
	Delay       time.Duration `toml:"delay" mapstructure:"delay"`
	Backoff     bool          `toml:"backoff" mapstructure:"backoff"`
	Multiplier  float64       `toml:"multiplier" mapstructure:"multiplier"`
	MaxDelay    time.Duration `toml:"max_delay" mapstructure:"max_delay"`
	Jitter      time.Duration `toml:"jitter" mapstructure:"jitter"`
	MaxAttempts int           `toml:"max_attempts" mapstructure:"max_attempts"`
}

type DockerConfig struct {
	Host string `toml:"host" mapstructure:"host"`
}

type NotifyConfig struct {
	Enabled          bool          `toml:"enabled" mapstructure:"enabled"`
	Recipients       []string      `toml:"recipients" mapstructure:"recipients"`
	NotifyOnRecovery bool          `toml:"notify_on_recovery" mapstructure:"notify_on_recovery"`
	SMTP             SMTPConfig    `toml:"smtp" mapstructure:"smtp"`
	Routing          []RouteConfig `toml:"routing" mapstructure:"routing"`
}

type SMTPConfig struct {
	Host     string        `toml:"host" mapstructure:"host"`
	Port     int           `toml:"port" mapstructure:"port"`
	Username string        `toml:"username" mapstructure:"username"`
	Password string        `toml:"password" mapstructure:"password"`
	From     string        `toml:"from" mapstructure:"from"`
	Timeout  time.Duration `toml:"timeout" mapstructure:"timeout"`
}

type RouteConfig struct {
	Pattern    string   `toml:"pattern" mapstructure:"pattern"`
	Recipients []string `toml:"recipients" mapstructure:"recipients"`
}

type LogConfig struct {
	Dir        string `toml:"dir" mapstructure:"dir"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
	Level      string `toml:"level" mapstructure:"level"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type HTTPConfig struct {
	Listen   string     `toml:"listen" mapstructure:"listen"`
	BasePath string     `toml:"base_path" mapstructure:"base_path"`
	TLS      *TLSConfig `toml:"tls" mapstructure:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `toml:"enabled" mapstructure:"enabled"`
	CertFile string `toml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `toml:"key_file" mapstructure:"key_file"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// Load reads the TOML config at path and applies env-file overrides.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	// The pre-Go deployments always mailed on recovery.
	v.SetDefault("notify.notify_on_recovery", true)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	if err := fc.applyEnvFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &fc, nil
}

// applyEnvFiles loads KEY=VALUE files and overlays credential-ish settings.
// The keys mirror the .env files the pre-Go deployments of this monitor used,
// so an existing .env keeps working unchanged.
func (fc *FileConfig) applyEnvFiles(baseDir string) error {
	for _, p := range fc.EnvFiles {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		vars, err := loadEnvFile(p)
		if err != nil {
			return err
		}
		if s, ok := vars["SMTP_HOST"]; ok {
			fc.Notify.SMTP.Host = s
		}
		if s, ok := vars["SMTP_PORT"]; ok {
			var port int
			if _, err := fmt.Sscanf(s, "%d", &port); err == nil {
				fc.Notify.SMTP.Port = port
			}
		}
		if s, ok := vars["SMTP_USER"]; ok {
			fc.Notify.SMTP.Username = s
		}
		if s, ok := vars["SMTP_PASS"]; ok {
			fc.Notify.SMTP.Password = s
		}
		if s, ok := vars["HEALTH_CHECK_ALERT_EMAILS"]; ok {
			fc.Notify.Recipients = splitList(s)
		}
		if s, ok := vars["CONTAINER_ALERT_ROUTING"]; ok {
			fc.Notify.Routing = nil
			for _, r := range notify.ParseRoutes(s) {
				fc.Notify.Routing = append(fc.Notify.Routing, RouteConfig{Pattern: r.Pattern, Recipients: r.Recipients})
			}
		}
		if s, ok := vars["SERVER_NAME"]; ok {
			fc.ServerName = s
		}
	}
	return nil
}

// Validate rejects configurations the daemon cannot safely run with.
// Malformed configuration is the one startup-fatal condition.
func (fc *FileConfig) Validate() error {
	if _, err := fc.Interval(); err != nil {
		return err
	}
	if fc.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	if fc.Retry.Backoff {
		if fc.Retry.Multiplier <= 1 {
			return errors.New("retry.multiplier must be > 1 when backoff is enabled")
		}
		if fc.Retry.MaxAttempts < 1 {
			return errors.New("retry.max_attempts must be >= 1 when backoff is enabled")
		}
	}
	if fc.Notify.Enabled {
		if len(fc.Notify.Recipients) == 0 {
			return errors.New("notify.recipients must be configured when notifications are enabled")
		}
		if fc.Notify.SMTP.Host == "" {
			return errors.New("notify.smtp.host must be configured when notifications are enabled")
		}
	}
	return nil
}

// Interval parses the pass cadence. Both "@every 30s" (scheduler style) and a
// bare duration like "30s" are accepted; empty means the 30s default.
func (fc *FileConfig) Interval() (time.Duration, error) {
	expr := strings.TrimSpace(fc.CheckSchedule)
	if expr == "" {
		return 30 * time.Second, nil
	}
	if after, ok := strings.CutPrefix(expr, "@every "); ok {
		expr = strings.TrimSpace(after)
	}
	d, err := time.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid check_schedule %q: %w", fc.CheckSchedule, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("check_schedule must be > 0")
	}
	return d, nil
}

// MonitorConfig assembles the monitor tunables from the file config.
func (fc *FileConfig) MonitorConfig() (monitor.Config, error) {
	interval, err := fc.Interval()
	if err != nil {
		return monitor.Config{}, err
	}
	return monitor.Config{
		Interval:         interval,
		Workers:          fc.Workers,
		LogTailLines:     fc.LogTailLines,
		NotifyOnRecovery: fc.Notify.NotifyOnRecovery,
		Backoff: retry.Backoff{
			Delay:       fc.Retry.Delay,
			Enabled:     fc.Retry.Backoff,
			Multiplier:  fc.Retry.Multiplier,
			MaxDelay:    fc.Retry.MaxDelay,
			Jitter:      fc.Retry.Jitter,
			MaxAttempts: fc.Retry.MaxAttempts,
		},
	}, nil
}

// Router builds the recipient router from the notify section.
func (fc *FileConfig) Router() notify.Router {
	r := notify.Router{Default: fc.Notify.Recipients}
	for _, rc := range fc.Notify.Routing {
		r.Routes = append(r.Routes, notify.Route{Pattern: rc.Pattern, Recipients: rc.Recipients})
	}
	return r
}

func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// loadEnvFile parses a simple .env file with KEY=VALUE lines (no export, no quotes). Lines starting with # are ignored.
func loadEnvFile(path string) (map[string]string, error) {
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			m[k] = v
		}
	}
	return m, nil
}
