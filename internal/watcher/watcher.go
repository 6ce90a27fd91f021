// Package watcher decides which managed sandboxes are idle and stops them.
//
// One call to Run is one complete pass: load the activity ledger, ingest
// the access-log delta, reconcile against the container runtime and live
// network state, stop whatever crossed the inactivity threshold, and
// persist the ledger atomically. Scheduling repeated passes belongs to the
// external invoker (cron, a systemd timer); at most one concurrent run per
// state file is assumed.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/agorum/albert-ai-sandbox/internal/activity"
	"github.com/agorum/albert-ai-sandbox/internal/config"
	"github.com/agorum/albert-ai-sandbox/internal/dockercli"
	"github.com/agorum/albert-ai-sandbox/internal/logtail"
	"github.com/agorum/albert-ai-sandbox/internal/registry"
	"github.com/agorum/albert-ai-sandbox/internal/state"
)

// Watcher fuses log activity, runtime metadata, and connection state into
// per-sandbox stop/keep decisions.
type Watcher struct {
	Config    *config.Config
	Log       *slog.Logger
	Runtime   dockercli.Runtime
	Lifecycle Lifecycle

	// Ports enumerates locally established TCP ports (netprobe.ActivePorts
	// in production, a fixture in tests).
	Ports func(ctx context.Context) map[int]struct{}

	// Now and LookPath default to time.Now and exec.LookPath.
	Now      func() time.Time
	LookPath func(file string) (string, error)
}

// Run executes one watcher pass. Only a failure to persist the ledger is
// returned as an error; everything else degrades per sandbox.
func (w *Watcher) Run(ctx context.Context) error {
	lookPath := w.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("docker"); err != nil {
		w.Log.Warn("docker binary not found; skipping inactivity check")
		return nil
	}

	st := state.Load(w.Config.StateFile, w.Log)
	w.ingestLogs(st)

	nowFn := w.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	w.evaluate(ctx, st, nowFn().Unix())

	if err := state.Save(w.Config.StateFile, st); err != nil {
		return fmt.Errorf("saving activity state: %w", err)
	}
	return nil
}

// ingestLogs merges the access-log delta into the ledger's activity map and
// advances the log watermark. Log trouble is reduced-signal, not fatal.
func (w *Watcher) ingestLogs(st *state.State) {
	sc, err := logtail.Tail(w.Config.AccessLog, st.Log)
	if err != nil {
		w.Log.Warn("failed to tail access log", "path", w.Config.AccessLog, "error", err)
		return
	}
	if sc == nil {
		return
	}
	defer sc.Close()

	ex := activity.NewExtractor(w.Config.ReservedPrefixes)
	for sc.Scan() {
		ev, ok := ex.ParseLine(sc.Text())
		if !ok {
			continue
		}
		if ev.Time > st.Containers[ev.Sandbox] {
			st.Containers[ev.Sandbox] = ev.Time
			w.Log.Debug("activity recorded", "sandbox", ev.Sandbox, "at", ev.Time)
		}
	}
	if err := sc.Err(); err != nil {
		w.Log.Warn("error reading access log", "path", w.Config.AccessLog, "error", err)
	}
	st.Log = sc.Watermark()
}

// evaluate walks the running managed sandboxes and acts on each decision.
func (w *Watcher) evaluate(ctx context.Context, st *state.State, now int64) {
	names, err := w.Runtime.ListManaged(ctx)
	if err != nil {
		w.Log.Warn("failed to list managed sandboxes", "error", err)
		return
	}

	reg := registry.Load(w.Config.RegistryFile)
	active := w.Ports(ctx)

	listed := make(map[string]struct{}, len(names))
	for _, name := range names {
		listed[name] = struct{}{}
		snap, err := w.Runtime.Inspect(ctx, name)
		if err != nil {
			w.Log.Warn("failed to inspect sandbox", "sandbox", name, "error", err)
		}
		if snap == nil {
			// Gone, stopped, or unlabeled between ps and inspect: its
			// current run period is over.
			delete(st.RunningSince, name)
			continue
		}
		w.evaluateOne(ctx, st, snap, reg[name], active, now)
	}

	// Run periods that ended outside our observation (manual stops).
	for name := range st.RunningSince {
		if _, ok := listed[name]; !ok {
			delete(st.RunningSince, name)
		}
	}
}

// evaluateOne applies the stop/keep decision for a single sandbox.
func (w *Watcher) evaluateOne(ctx context.Context, st *state.State, snap *dockercli.Snapshot, reg registry.Entry, active map[int]struct{}, now int64) {
	name := snap.Name

	// A live connection on any published port means the sandbox is in use
	// regardless of HTTP chatter (persistent terminal or VNC sessions).
	for _, port := range reg.CandidatePorts() {
		if _, ok := active[port]; ok {
			started := snap.StartedAt
			if started == 0 {
				started = now
			}
			st.RunningSince[name] = max(started, st.RunningSince[name], snap.CreatedAt)
			st.Containers[name] = now
			w.Log.Debug("sandbox has active connections; keeping", "sandbox", name, "port", port)
			return
		}
	}

	startedAt := snap.StartedAt
	if startedAt == 0 {
		startedAt = st.RunningSince[name]
	}
	if startedAt == 0 {
		// Unknown start time: assume it just started rather than stop a
		// sandbox we have never observed.
		startedAt = now
	}
	if startedAt > st.RunningSince[name] {
		st.RunningSince[name] = startedAt
	}

	lastSeen := max(st.RunningSince[name], st.Containers[name], snap.CreatedAt)
	if lastSeen == 0 {
		lastSeen = now
	}
	inactivity := now - lastSeen
	w.Log.Debug("sandbox inactivity", "sandbox", name, "inactivity_seconds", inactivity, "last_seen", lastSeen)
	if inactivity < w.Config.InactivitySeconds {
		return
	}

	if err := w.Lifecycle.Stop(ctx, name, snap.KeyHash); err != nil {
		w.Log.Warn("failed to stop idle sandbox", "sandbox", name, "error", err)
		return
	}
	w.Log.Info("stopped idle sandbox", "sandbox", name, "inactivity_seconds", inactivity)
	delete(st.RunningSince, name)
	st.Containers[name] = now
	st.StopHistory[name] = now
}
