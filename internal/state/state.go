// Package state persists the watcher's activity ledger between invocations.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agorum/albert-ai-sandbox/internal/logtail"
)

// State is the durable activity ledger. All timestamps are epoch seconds.
type State struct {
	// Log records where incremental log tailing resumes.
	Log logtail.Watermark `json:"log"`
	// Containers maps sandbox name to the most recent attributed HTTP request.
	Containers map[string]int64 `json:"containers"`
	// RunningSince maps sandbox name to the believed start of its current run.
	RunningSince map[string]int64 `json:"running_since"`
	// StopHistory maps sandbox name to the last automated stop (diagnostic).
	StopHistory map[string]int64 `json:"stop_history"`
}

// New returns an empty ledger with all maps initialized.
func New() *State {
	return &State{
		Containers:   map[string]int64{},
		RunningSince: map[string]int64{},
		StopHistory:  map[string]int64{},
	}
}

// Load reads the ledger at path. A missing file yields a fresh ledger; a
// file that fails to parse is logged and also yields a fresh ledger, so a
// corrupt state file degrades to "everything freshly seen" rather than
// aborting the run.
func Load(path string, log *slog.Logger) *State {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to read state file", "path", path, "error", err)
		}
		return New()
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn("failed to parse state file", "path", path, "error", err)
		return New()
	}
	st.normalize()
	return &st
}

// Save writes the full ledger durably: serialize to a temp file in the same
// directory, then rename over the target so a crash mid-write can never
// expose a partial ledger.
func Save(path string, st *State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// normalize ensures every required map is present after decoding.
func (s *State) normalize() {
	if s.Containers == nil {
		s.Containers = map[string]int64{}
	}
	if s.RunningSince == nil {
		s.RunningSince = map[string]int64{}
	}
	if s.StopHistory == nil {
		s.StopHistory = map[string]int64{}
	}
}
