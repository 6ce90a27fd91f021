package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manager.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestManagerScript_Stop(t *testing.T) {
	r := require.New(t)
	// Record the argv so we can check the stop contract.
	out := filepath.Join(t.TempDir(), "argv")
	script := writeScript(t, `echo "$@" > `+out)

	m := &ManagerScript{Path: script}
	r.NoError(m.Stop(context.Background(), "sb-foo", "deadbeef"))

	argv, err := os.ReadFile(out)
	r.NoError(err)
	r.Equal("stop sb-foo --api-key-hash deadbeef --json --non-interactive --quiet\n", string(argv))
}

func TestManagerScript_StopFailure(t *testing.T) {
	m := &ManagerScript{Path: writeScript(t, `echo "boom" >&2; exit 3`)}
	err := m.Stop(context.Background(), "sb-foo", "deadbeef")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestManagerScript_MissingScript(t *testing.T) {
	m := &ManagerScript{Path: filepath.Join(t.TempDir(), "absent.sh")}
	require.Error(t, m.Stop(context.Background(), "sb-foo", "deadbeef"))
}

func TestWithStatsSkipped(t *testing.T) {
	r := require.New(t)
	r.Contains(withStatsSkipped(nil), "ALBERT_STATUS_SKIP_STATS=1")

	// An explicit value is left alone.
	env := []string{"ALBERT_STATUS_SKIP_STATS=0"}
	r.Equal(env, withStatsSkipped(env))
}
