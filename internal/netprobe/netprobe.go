// Package netprobe enumerates established TCP connections by local port.
package netprobe

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// ActivePorts returns the local ports of all ESTABLISHED TCP connections.
// Best-effort: a host without the ss tool, or any probe failure, yields an
// empty set rather than an error.
func ActivePorts(ctx context.Context) map[int]struct{} {
	active := map[int]struct{}{}
	if _, err := exec.LookPath("ss"); err != nil {
		return active
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ss", "-tan").Output()
	if err != nil {
		return active
	}
	return parseSS(string(out))
}

func parseSS(out string) map[int]struct{} {
	active := map[int]struct{}{}
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "ESTAB") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		local := fields[3]
		idx := strings.LastIndex(local, ":")
		if idx < 0 {
			continue
		}
		port, err := strconv.Atoi(local[idx+1:])
		if err != nil {
			continue
		}
		active[port] = struct{}{}
	}
	return active
}
