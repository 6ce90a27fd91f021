package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// 10/Oct/2023:13:55:36 +0000
const sampleEpoch = 1696946136

func defaultExtractor() *Extractor {
	return NewExtractor([]string{"manager", "mcphub"})
}

func TestParseLine_AttributesRequestToSandbox(t *testing.T) {
	r := require.New(t)
	line := `203.0.113.7 - - [10/Oct/2023:13:55:36 +0000] "GET /foo/status HTTP/1.1" 200 512`

	ev, ok := defaultExtractor().ParseLine(line)
	r.True(ok)
	r.Equal("foo", ev.Sandbox)
	r.EqualValues(sampleEpoch, ev.Time)
}

func TestParseLine_TimezoneOffset(t *testing.T) {
	r := require.New(t)
	line := `10.0.0.1 - - [10/Oct/2023:15:55:36 +0200] "POST /bar/api/run HTTP/1.1" 201 17`

	ev, ok := defaultExtractor().ParseLine(line)
	r.True(ok)
	r.Equal("bar", ev.Sandbox)
	r.EqualValues(sampleEpoch, ev.Time)
}

func TestParseLine_Dropped(t *testing.T) {
	cases := map[string]string{
		"reserved prefix":     `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET /manager/health HTTP/1.1" 200 2`,
		"reserved mcphub":     `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET /mcphub/tools HTTP/1.1" 200 2`,
		"root path":           `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET / HTTP/1.1" 200 2`,
		"no timestamp":        `1.2.3.4 - - "GET /foo/x HTTP/1.1" 200 2`,
		"unparsable time":     `1.2.3.4 - - [not a date] "GET /foo/x HTTP/1.1" 200 2`,
		"no request token":    `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] 400 0`,
		"lowercase method":    `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "get /foo/x HTTP/1.1" 200 2`,
		"relative path":       `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET foo/x HTTP/1.1" 200 2`,
		"empty line":          "",
		"binary garbage":      "\xff\xfe\x00\x01",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := defaultExtractor().ParseLine(line)
			require.False(t, ok)
		})
	}
}

func TestParseLine_ReservedPrefixesAreConfigurable(t *testing.T) {
	r := require.New(t)
	line := `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET /manager/health HTTP/1.1" 200 2`

	ev, ok := NewExtractor(nil).ParseLine(line)
	r.True(ok)
	r.Equal("manager", ev.Sandbox)
}

func TestParseLine_FirstSegmentOnly(t *testing.T) {
	r := require.New(t)
	line := `1.2.3.4 - - [10/Oct/2023:13:55:36 +0000] "GET /foo/deep/nested/path?x=1 HTTP/1.1" 200 2`

	ev, ok := defaultExtractor().ParseLine(line)
	r.True(ok)
	r.Equal("foo", ev.Sandbox)
}
