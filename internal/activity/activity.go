// Package activity turns access-log lines into per-sandbox activity events.
package activity

import (
	"regexp"
	"strings"
	"time"
)

var (
	// Bracketed timestamp, e.g. [10/Oct/2023:13:55:36 +0000]
	timestampPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	// Request path from the quoted request, e.g. "GET /foo/status HTTP/1.1"
	requestPattern = regexp.MustCompile(`"[A-Z]+ ([^" ]+)`)
)

// timeLayout is the combined-log timestamp format.
const timeLayout = "02/Jan/2006:15:04:05 -0700"

// Event records that a sandbox received an HTTP request at a point in time.
type Event struct {
	Sandbox string
	Time    int64 // epoch seconds
}

// Extractor parses log lines, dropping requests whose first path segment is
// a reserved route prefix (the manager's own endpoints).
type Extractor struct {
	reserved map[string]struct{}
}

// NewExtractor builds an Extractor that ignores the given path prefixes.
func NewExtractor(reserved []string) *Extractor {
	m := make(map[string]struct{}, len(reserved))
	for _, p := range reserved {
		m[p] = struct{}{}
	}
	return &Extractor{reserved: m}
}

// ParseLine extracts an activity event from one log line. Lines without a
// parseable timestamp, without a request token, or whose path does not map
// to a sandbox yield ok=false.
func (e *Extractor) ParseLine(line string) (Event, bool) {
	tsMatch := timestampPattern.FindStringSubmatch(line)
	if tsMatch == nil {
		return Event{}, false
	}
	ts, err := time.Parse(timeLayout, tsMatch[1])
	if err != nil {
		return Event{}, false
	}
	reqMatch := requestPattern.FindStringSubmatch(line)
	if reqMatch == nil {
		return Event{}, false
	}
	name := e.sandboxFromPath(reqMatch[1])
	if name == "" {
		return Event{}, false
	}
	return Event{Sandbox: name, Time: ts.Unix()}, true
}

// sandboxFromPath maps a request path to a sandbox name: the first non-empty
// segment after the leading slash, unless it is reserved.
func (e *Extractor) sandboxFromPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return ""
	}
	segments := strings.SplitN(path, "/", 3)
	if len(segments) < 2 {
		return ""
	}
	candidate := segments[1]
	if candidate == "" {
		return ""
	}
	if _, skip := e.reserved[candidate]; skip {
		return ""
	}
	return candidate
}
