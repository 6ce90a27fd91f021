package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "albert-watcher",
	Short: "Albert sandbox inactivity watcher",
	Long: `albert-watcher reclaims idle Albert sandbox containers.

Each run tails the nginx access log to attribute traffic to sandboxes,
reconciles that signal against the container runtime and live TCP
connections, and stops sandboxes that have been idle past the configured
threshold. It is designed to be invoked periodically (cron, systemd timer)
and keeps its progress in a crash-safe state file, so overlapping runs
against the same state file must be prevented by the scheduler.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

// newLogger builds the process logger. Debug output is gated behind the
// config toggle or the --debug flag.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
