package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/healthmon"
	"github.com/loykin/healthmon/internal/logger"
)

func runServe(flags ServeFlags) error {
	if flags.Daemonize {
		if err := daemonize(flags.PidFile, flags.LogFile); err != nil {
			return fmt.Errorf("failed to daemonize: %w", err)
		}
	}

	fc, err := healthmon.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	lcfg := logger.Config{}
	if fc.Log != nil {
		lcfg = logger.Config{
			Dir:        fc.Log.Dir,
			File:       fc.Log.File,
			MaxSizeMB:  fc.Log.MaxSizeMB,
			MaxBackups: fc.Log.MaxBackups,
			MaxAgeDays: fc.Log.MaxAgeDays,
			Compress:   fc.Log.Compress,
			Level:      fc.Log.Level,
		}
	}
	lg, closeLog, err := lcfg.Setup()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closeLog()

	src, err := healthmon.NewDockerSource(fc.Docker.Host)
	if err != nil {
		return err
	}

	var notifier healthmon.Notifier
	if fc.Notify.Enabled {
		notifier = &healthmon.Mailer{
			SMTP: healthmon.SMTPConfig{
				Host:     fc.Notify.SMTP.Host,
				Port:     fc.Notify.SMTP.Port,
				Username: fc.Notify.SMTP.Username,
				Password: fc.Notify.SMTP.Password,
				From:     fc.Notify.SMTP.From,
				Timeout:  fc.Notify.SMTP.Timeout,
			},
			Router:     fc.Router(),
			ServerName: fc.ServerName,
			Logger:     lg,
		}
	} else {
		notifier = healthmon.LogNotifier{Logger: lg}
	}

	mc, err := fc.MonitorConfig()
	if err != nil {
		return err
	}
	mon := healthmon.New(mc, src, notifier)
	mon.SetLogger(lg)

	var sinks []healthmon.HistorySink
	for _, h := range fc.History {
		sink, err := healthmon.NewHistorySinkFromDSN(h.DSN)
		if err != nil {
			lg.Warn("history sink disabled", "dsn", h.DSN, "err", err)
			continue
		}
		sinks = append(sinks, sink)
	}
	mon.SetHistorySinks(sinks...)

	if fc.Metrics != nil && fc.Metrics.Enabled {
		if err := healthmon.RegisterMetricsDefault(); err != nil {
			lg.Warn("failed to register metrics", "err", err)
		}
		if fc.Metrics.Listen != "" {
			go func() {
				if err := healthmon.ServeMetrics(fc.Metrics.Listen); err != nil && err != http.ErrServerClosed {
					lg.Error("metrics server error", "err", err)
				}
			}()
		}
	}

	if err := mon.Start(); err != nil {
		return err
	}

	var apiServer *http.Server
	if fc.HTTP != nil && fc.HTTP.Listen != "" {
		apiServer = healthmon.NewHTTPServer(fc.HTTP.Listen, fc.HTTP.BasePath, mon)
		go func() {
			var serveErr error
			if fc.HTTP.TLS != nil && fc.HTTP.TLS.Enabled {
				serveErr = apiServer.ListenAndServeTLS(fc.HTTP.TLS.CertFile, fc.HTTP.TLS.KeyFile)
			} else {
				serveErr = apiServer.ListenAndServe()
			}
			if serveErr != nil && serveErr != http.ErrServerClosed {
				lg.Error("api server error", "err", serveErr)
			}
		}()
		lg.Info("api server listening", "addr", fc.HTTP.Listen, "base_path", fc.HTTP.BasePath)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	lg.Info("shutting down", "signal", sig.String())

	if apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiServer.Shutdown(ctx)
		cancel()
	}
	mon.Stop()
	for _, s := range sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	if closer, ok := src.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if flags.PidFile != "" {
		_ = removePidFile(flags.PidFile)
	}
	return nil
}
