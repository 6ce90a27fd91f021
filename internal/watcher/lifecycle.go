package watcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const stopTimeout = 120 * time.Second

// Lifecycle stops a sandbox on behalf of its owner. Implementations must be
// non-interactive and bounded; a failed stop is an error for that sandbox,
// never for the whole batch.
type Lifecycle interface {
	Stop(ctx context.Context, name, keyHash string) error
}

// ManagerScript implements Lifecycle by invoking the external sandbox
// manager script.
type ManagerScript struct {
	Path string
}

func (m *ManagerScript) Stop(ctx context.Context, name, keyHash string) error {
	if _, err := os.Stat(m.Path); err != nil {
		return fmt.Errorf("manager script %s: %w", m.Path, err)
	}
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.Path,
		"stop", name,
		"--api-key-hash", keyHash,
		"--json",
		"--non-interactive",
		"--quiet")
	cmd.Env = withStatsSkipped(os.Environ())

	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := string(bytes.TrimSpace(out))
		if detail != "" {
			return fmt.Errorf("stopping %s: %w: %s", name, err, detail)
		}
		return fmt.Errorf("stopping %s: %w", name, err)
	}
	return nil
}

// withStatsSkipped adds ALBERT_STATUS_SKIP_STATS=1 unless the caller
// already set it; stats collection is pointless during an automated stop.
func withStatsSkipped(env []string) []string {
	for _, kv := range env {
		if strings.HasPrefix(kv, "ALBERT_STATUS_SKIP_STATS=") {
			return env
		}
	}
	return append(env, "ALBERT_STATUS_SKIP_STATS=1")
}
