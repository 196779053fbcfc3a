package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	serveFlags := &ServeFlags{}
	checkFlags := &CheckFlags{}
	statusFlags := &StatusFlags{}

	root := &cobra.Command{
		Use:   "healthmon",
		Short: "Multi-project container health monitor",
		Long: `Healthmon watches every Docker container that defines a healthcheck,
tracks health-state transitions across compose projects, re-checks suspect
containers after a grace delay, and escalates confirmed failures by email
with project context and recent container logs.

Examples:
  healthmon serve --config=healthmon.toml
  healthmon check --config=healthmon.toml
  healthmon status --api-url=http://host:8080/api`,
	}

	root.AddCommand(
		createServeCommand(serveFlags),
		createCheckCommand(checkFlags),
		createStatusCommand(statusFlags),
	)
	return root
}

func createServeCommand(flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring daemon",
		Long: `Run the monitor loop: probe all containers on a fixed cadence, arm
deferred re-checks for bad transitions, and serve the status API.

Examples:
  healthmon serve --config=healthmon.toml
  healthmon serve --config=healthmon.toml --daemonize --pidfile=/run/healthmon.pid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "healthmon.toml", "path to TOML config file")
	cmd.Flags().BoolVar(&flags.Daemonize, "daemonize", false, "run in the background")
	cmd.Flags().StringVar(&flags.PidFile, "pidfile", "", "write daemon PID to this file")
	cmd.Flags().StringVar(&flags.LogFile, "logfile", "", "redirect daemon stdout/stderr to this file")
	return cmd
}

func createCheckCommand(flags *CheckFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single probe pass and print the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.ConfigPath, "config", "healthmon.toml", "path to TOML config file")
	return cmd
}

func createStatusCommand(flags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running daemon for tracked container states",
		Long: `Query the status API of a running healthmon daemon.

Examples:
  healthmon status
  healthmon status --name=web-app-1
  healthmon status --retries`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Name, "name", "", "single container name")
	cmd.Flags().BoolVar(&flags.Retries, "retries", false, "show containers with a re-check in flight")
	cmd.Flags().StringVar(&flags.APIUrl, "api-url", "http://127.0.0.1:8080/api", "daemon API URL")
	cmd.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
	return cmd
}
