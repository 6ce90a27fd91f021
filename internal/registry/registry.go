// Package registry reads the externally-owned sandbox registry file. The
// watcher only consults the published port numbers; everything else in the
// registry belongs to the manager tooling.
package registry

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
)

// Port is a registry port field. The registry is written by shell tooling,
// so values arrive as JSON numbers or numeric strings interchangeably;
// anything else decodes to 0 ("not configured").
type Port int

func (p *Port) UnmarshalJSON(data []byte) error {
	*p = 0
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		if v > 0 && v == math.Trunc(v) {
			*p = Port(v)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*p = Port(n)
		}
	}
	return nil
}

// Entry is one sandbox's registry record, reduced to the fields the
// watcher cares about.
type Entry struct {
	Name        string `json:"name"`
	Port        Port   `json:"port"`
	VNCPort     Port   `json:"vnc_port"`
	MCPHubPort  Port   `json:"mcphub_port"`
	FileSvcPort Port   `json:"filesvc_port"`
}

// CandidatePorts returns the configured ports, in role order (primary,
// VNC, MCP hub, file service), omitting unset fields.
func (e Entry) CandidatePorts() []int {
	var ports []int
	for _, p := range []Port{e.Port, e.VNCPort, e.MCPHubPort, e.FileSvcPort} {
		if p > 0 {
			ports = append(ports, int(p))
		}
	}
	return ports
}

// Load reads the registry at path, keyed by sandbox name. A missing,
// corrupt, or non-list registry degrades to an empty map: the watcher then
// simply has no port-based activity signal.
func Load(path string) map[string]Entry {
	reg := map[string]Entry{}
	data, err := os.ReadFile(path)
	if err != nil {
		return reg
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return reg
	}
	for _, e := range entries {
		if e.Name != "" {
			reg[e.Name] = e
		}
	}
	return reg
}
