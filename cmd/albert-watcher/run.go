package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agorum/albert-ai-sandbox/internal/config"
	"github.com/agorum/albert-ai-sandbox/internal/dockercli"
	"github.com/agorum/albert-ai-sandbox/internal/netprobe"
	"github.com/agorum/albert-ai-sandbox/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one inactivity check pass",
	Long: `Run a single watcher pass: ingest new access-log lines, evaluate
every running managed sandbox, and stop the idle ones.

Exits zero even when individual sandboxes fail to stop; only a failure to
persist the activity state is an error. When docker is not installed the
pass is a warning no-op.

Examples:
  albert-watcher run
  ALBERT_INACTIVITY_SECONDS=1800 albert-watcher run --debug`,
	RunE: runWatcher,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWatcher(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if debugFlag {
		cfg.Debug = true
	}

	// The run id makes interleaved cron output attributable to one pass.
	log := newLogger(cfg.Debug).With("run_id", uuid.NewString())

	w := &watcher.Watcher{
		Config:    cfg,
		Log:       log,
		Runtime:   &dockercli.Client{Log: log},
		Lifecycle: &watcher.ManagerScript{Path: cfg.ManagerScript},
		Ports:     netprobe.ActivePorts,
	}
	return w.Run(cmd.Context())
}
