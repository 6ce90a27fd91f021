package dockercli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  int64
	}{
		{"empty", "", 0},
		{"sentinel", "0001-01-01T00:00:00Z", 0},
		{"sentinel with fraction", "0001-01-01T00:00:00.000000000Z", 0},
		{"rfc3339 utc", "2023-10-10T13:55:36Z", 1696946136},
		{"nanosecond fraction", "2023-10-10T13:55:36.123456789Z", 1696946136},
		{"short fraction", "2023-10-10T13:55:36.5Z", 1696946136},
		{"colon offset", "2023-10-10T15:55:36+02:00", 1696946136},
		{"offset without colon", "2023-10-10T15:55:36+0200", 1696946136},
		{"naive treated as utc", "2023-10-10T13:55:36", 1696946136},
		{"naive with fraction", "2023-10-10T13:55:36.25", 1696946136},
		{"garbage", "not-a-timestamp", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseTimestamp(tc.value))
		})
	}
}

const runningInspect = `[
  {
    "Created": "2023-10-10T12:00:00.123456789Z",
    "State": {"Running": true, "StartedAt": "2023-10-10T13:00:00Z"},
    "Config": {"Labels": {"albert.manager": "1", "albert.apikey_hash": "abc123"}}
  }
]`

func TestSnapshotFromInspect_Running(t *testing.T) {
	r := require.New(t)
	snap, err := snapshotFromInspect("sb-foo", []byte(runningInspect))
	r.NoError(err)
	r.NotNil(snap)
	r.Equal("sb-foo", snap.Name)
	r.Equal("abc123", snap.KeyHash)
	r.True(snap.Running)
	r.EqualValues(1696939200, snap.CreatedAt)
	r.EqualValues(1696942800, snap.StartedAt)
}

func TestSnapshotFromInspect_Skipped(t *testing.T) {
	cases := map[string]string{
		"empty result": `[]`,
		"not running": `[
  {"Created": "2023-10-10T12:00:00Z",
   "State": {"Running": false, "StartedAt": "0001-01-01T00:00:00Z"},
   "Config": {"Labels": {"albert.apikey_hash": "abc123"}}}
]`,
		"missing owner label": `[
  {"Created": "2023-10-10T12:00:00Z",
   "State": {"Running": true, "StartedAt": "2023-10-10T13:00:00Z"},
   "Config": {"Labels": {"albert.manager": "1"}}}
]`,
		"nil labels": `[
  {"Created": "2023-10-10T12:00:00Z",
   "State": {"Running": true, "StartedAt": "2023-10-10T13:00:00Z"},
   "Config": {}}
]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			snap, err := snapshotFromInspect("sb-foo", []byte(doc))
			require.NoError(t, err)
			require.Nil(t, snap)
		})
	}
}

func TestSnapshotFromInspect_SentinelStartedAt(t *testing.T) {
	r := require.New(t)
	doc := `[
  {"Created": "2023-10-10T12:00:00Z",
   "State": {"Running": true, "StartedAt": "0001-01-01T00:00:00Z"},
   "Config": {"Labels": {"albert.apikey_hash": "abc123"}}}
]`
	snap, err := snapshotFromInspect("sb-foo", []byte(doc))
	r.NoError(err)
	r.NotNil(snap)
	r.Zero(snap.StartedAt)
	r.EqualValues(1696939200, snap.CreatedAt)
}

func TestSnapshotFromInspect_BadJSON(t *testing.T) {
	_, err := snapshotFromInspect("sb-foo", []byte("nonsense"))
	require.Error(t, err)
}
