// Package dockercli queries the container runtime for managed sandboxes
// through the docker CLI.
package dockercli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	// managedFilter selects only containers owned by the sandbox manager.
	managedFilter = "label=albert.manager=1"
	// keyHashLabel carries the owning API key hash on managed containers.
	keyHashLabel = "albert.apikey_hash"

	queryTimeout = 15 * time.Second
)

// Snapshot is the runtime's view of one sandbox at inspection time.
// Timestamps are epoch seconds; 0 means the runtime reported no usable value.
type Snapshot struct {
	Name      string
	KeyHash   string
	CreatedAt int64
	StartedAt int64
	Running   bool
}

// Runtime lists and inspects managed sandboxes. It exists so tests can
// substitute a fake without a container runtime.
type Runtime interface {
	// ListManaged returns the names of running containers carrying the
	// manager's ownership label.
	ListManaged(ctx context.Context) ([]string, error)
	// Inspect resolves a sandbox snapshot by name. A nil snapshot with a
	// nil error means the sandbox should be skipped: it no longer exists,
	// is not running, or is missing the owner label.
	Inspect(ctx context.Context, name string) (*Snapshot, error)
}

// Client implements Runtime by shelling out to the docker CLI.
type Client struct {
	Log *slog.Logger
}

func (c *Client) ListManaged(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "ps",
		"--filter", managedFilter,
		"--format", "{{.Names}}")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing managed containers: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (c *Client) Inspect(ctx context.Context, name string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "inspect", name)
	out, err := cmd.Output()
	if err != nil {
		// docker inspect exits non-zero for unknown names; treat any
		// failure as "no such sandbox" and let the caller move on.
		c.Log.Debug("docker inspect failed", "container", name, "error", err)
		return nil, nil
	}
	snap, err := snapshotFromInspect(name, out)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", name, err)
	}
	return snap, nil
}

// inspectDoc is the subset of `docker inspect` output the watcher reads.
type inspectDoc struct {
	Created string `json:"Created"`
	State   struct {
		Running   bool   `json:"Running"`
		StartedAt string `json:"StartedAt"`
	} `json:"State"`
	Config struct {
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

// snapshotFromInspect decodes inspect output into a Snapshot, applying the
// skip rules: absent, not running, and unlabeled sandboxes all come back nil.
func snapshotFromInspect(name string, data []byte) (*Snapshot, error) {
	var docs []inspectDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decoding inspect output: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	doc := docs[0]
	if !doc.State.Running {
		return nil, nil
	}
	keyHash := doc.Config.Labels[keyHashLabel]
	if keyHash == "" {
		return nil, nil
	}
	return &Snapshot{
		Name:      name,
		KeyHash:   keyHash,
		CreatedAt: ParseTimestamp(doc.Created),
		StartedAt: ParseTimestamp(doc.State.StartedAt),
		Running:   true,
	}, nil
}

// dockerSentinel is the runtime's "unset" timestamp value.
const dockerSentinel = "0001-01-01T00:00:00"

// timestampLayouts covers the variations docker emits: RFC3339 with any
// fractional precision and Z or colon offsets, offsets without a colon,
// and timezone-naive values (interpreted as UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp converts a runtime timestamp to epoch seconds. Empty,
// sentinel, and unparsable values all map to 0 ("unset").
func ParseTimestamp(value string) int64 {
	if value == "" || strings.HasPrefix(value, dockerSentinel) {
		return 0
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Unix()
		}
	}
	return 0
}
