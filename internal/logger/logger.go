package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings match what the monitor has always used in
// production: 10 MB per file, five backups kept.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 14
)

// Config describes the monitor's own log output. Console output is always
// on; a rotating file is added when Dir or File is set. Rotation parameters
// follow lumberjack semantics.
type Config struct {
	Dir        string // base directory; file becomes Dir/monitor.log
	File       string // explicit path overrides Dir
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Level      string // debug, info, warn, error (default info)
}

// Setup builds the root slog.Logger and installs it as the default.
// The returned close function flushes and closes the rotating file, if any.
func (c Config) Setup() (*slog.Logger, func(), error) {
	level := parseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{NewColorTextHandler(os.Stdout, opts)}
	closeFn := func() {}

	path := c.File
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, "monitor.log")
	}
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, nil, err
			}
		}
		w := &lj.Logger{
			Filename:   path,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
		handlers = append(handlers, slog.NewTextHandler(w, opts))
		closeFn = func() { _ = w.Close() }
	}

	lg := slog.New(fanout(handlers))
	slog.SetDefault(lg)
	return lg, closeFn, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// fanout duplicates records to every handler (console plus rotating file).
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
