package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/agorum/albert-ai-sandbox/internal/config"
	"github.com/agorum/albert-ai-sandbox/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the recorded activity ledger",
	Long: `Print the persisted activity ledger: per sandbox, the last
attributed HTTP activity, the believed start of its current run, and the
last automated stop. Read-only; does not require docker.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg.Debug || debugFlag)

	st := state.Load(cfg.StateFile, log)

	names := map[string]struct{}{}
	for n := range st.Containers {
		names[n] = struct{}{}
	}
	for n := range st.RunningSince {
		names[n] = struct{}{}
	}
	for n := range st.StopHistory {
		names[n] = struct{}{}
	}
	if len(names) == 0 {
		fmt.Println("No sandbox activity recorded.")
		return nil
	}

	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	now := time.Now().Unix()
	fmt.Printf("%-30s %-16s %-16s %s\n", "SANDBOX", "LAST ACTIVITY", "RUNNING SINCE", "LAST AUTO-STOP")
	for _, n := range sorted {
		fmt.Printf("%-30s %-16s %-16s %s\n", n,
			epochAgo(st.Containers[n], now),
			epochAgo(st.RunningSince[n], now),
			epochAgo(st.StopHistory[n], now))
	}
	return nil
}

func epochAgo(epoch, now int64) string {
	if epoch == 0 {
		return "-"
	}
	d := time.Duration(now-epoch) * time.Second
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
