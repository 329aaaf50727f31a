package uptime

import (
	"math"
	"testing"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestCalculator(t *testing.T) (*Calculator, storage.Store, time.Time) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	return NewCalculator(store, fixedClock{now: now}), store, now
}

func appendSample(t *testing.T, store storage.Store, nodeID string, ts time.Time, status types.Status) {
	t.Helper()
	require.NoError(t, store.AppendSample(&types.Sample{
		NodeID:    nodeID,
		Status:    status,
		Timestamp: ts,
	}))
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1h", time.Hour},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"", 24 * time.Hour},
		{"2d", 24 * time.Hour},
		{"never", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWindow(tt.input))
		})
	}
}

func TestStatsCountsAndRatio(t *testing.T) {
	calc, store, now := newTestCalculator(t)

	// Three online, one offline inside the last hour
	for i, status := range []types.Status{
		types.StatusOnline, types.StatusOnline, types.StatusOffline, types.StatusOnline,
	} {
		appendSample(t, store, "node-a", now.Add(-time.Duration(50-i)*time.Minute), status)
	}

	stats, err := calc.Stats("node-a", "1h")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalChecks)
	assert.Equal(t, 3, stats.OnlineChecks)
	assert.Equal(t, 75.0, stats.Uptime)
	assert.Equal(t, "1h", stats.Window)
}

func TestStatsRoundsToTwoDecimals(t *testing.T) {
	calc, store, now := newTestCalculator(t)

	// 2 of 3 online: 66.666... rounds to 66.67
	appendSample(t, store, "node-a", now.Add(-30*time.Minute), types.StatusOnline)
	appendSample(t, store, "node-a", now.Add(-20*time.Minute), types.StatusOffline)
	appendSample(t, store, "node-a", now.Add(-10*time.Minute), types.StatusOnline)

	stats, err := calc.Stats("node-a", "1h")
	require.NoError(t, err)
	assert.Equal(t, 66.67, stats.Uptime)
}

func TestStatsEmptyWindow(t *testing.T) {
	calc, store, now := newTestCalculator(t)

	// One stale sample outside the 1h window
	appendSample(t, store, "node-a", now.Add(-2*time.Hour), types.StatusOnline)

	stats, err := calc.Stats("node-a", "1h")
	require.NoError(t, err)
	assert.Zero(t, stats.Uptime)
	assert.Zero(t, stats.TotalChecks)
	assert.Zero(t, stats.OnlineChecks)
}

func TestStatsNeverReportedNode(t *testing.T) {
	calc, _, _ := newTestCalculator(t)

	stats, err := calc.Stats("ghost", "24h")
	require.NoError(t, err)
	assert.Zero(t, stats.Uptime)
	assert.Zero(t, stats.TotalChecks)
}

func TestUptimeWindowSelection(t *testing.T) {
	calc, store, now := newTestCalculator(t)

	// Offline yesterday, online for the last hour
	appendSample(t, store, "node-a", now.Add(-20*time.Hour), types.StatusOffline)
	appendSample(t, store, "node-a", now.Add(-30*time.Minute), types.StatusOnline)

	short, err := calc.Uptime("node-a", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 100.0, short)

	long, err := calc.Uptime("node-a", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 50.0, long)
}

func TestPropertyUptimeRatio(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 50
	props := gopter.NewProperties(params)

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	calc := NewCalculator(store, fixedClock{now: now})

	run := 0

	props.Property("uptime equals the rounded online ratio", prop.ForAll(
		func(onlineCount int, offlineCount int) bool {
			if onlineCount < 0 || offlineCount < 0 || onlineCount+offlineCount == 0 {
				return true
			}

			// Each run gets its own node so series never mix
			run++
			nodeID := "node-" + string(rune('a'+run%26)) + string(rune('0'+run/26%10)) + string(rune('0'+run/260))

			total := onlineCount + offlineCount
			ts := now.Add(-time.Duration(total) * time.Minute)
			for i := 0; i < onlineCount; i++ {
				if err := store.AppendSample(&types.Sample{NodeID: nodeID, Status: types.StatusOnline, Timestamp: ts}); err != nil {
					return false
				}
				ts = ts.Add(time.Minute)
			}
			for i := 0; i < offlineCount; i++ {
				if err := store.AppendSample(&types.Sample{NodeID: nodeID, Status: types.StatusOffline, Timestamp: ts}); err != nil {
					return false
				}
				ts = ts.Add(time.Minute)
			}

			stats, err := calc.Stats(nodeID, "24h")
			if err != nil {
				return false
			}
			if stats.TotalChecks != total || stats.OnlineChecks != onlineCount {
				return false
			}

			want := math.Round(float64(onlineCount)/float64(total)*100*100) / 100
			return stats.Uptime == want
		},
		gopter.Gen(func(genParams *gopter.GenParameters) *gopter.GenResult {
			value := genParams.Rng.Intn(60)
			return gopter.NewGenResult(value, gopter.NoShrinker)
		}),
		gopter.Gen(func(genParams *gopter.GenParameters) *gopter.GenResult {
			value := genParams.Rng.Intn(60)
			return gopter.NewGenResult(value, gopter.NoShrinker)
		}),
	))

	props.Property("uptime stays within 0 and 100", prop.ForAll(
		func(onlineCount int, offlineCount int) bool {
			if onlineCount < 0 || offlineCount < 0 {
				return true
			}

			run++
			nodeID := "bound-" + string(rune('a'+run%26)) + string(rune('0'+run/26%10)) + string(rune('0'+run/260))

			ts := now.Add(-time.Hour)
			for i := 0; i < onlineCount; i++ {
				if err := store.AppendSample(&types.Sample{NodeID: nodeID, Status: types.StatusOnline, Timestamp: ts}); err != nil {
					return false
				}
				ts = ts.Add(time.Second)
			}
			for i := 0; i < offlineCount; i++ {
				if err := store.AppendSample(&types.Sample{NodeID: nodeID, Status: types.StatusOffline, Timestamp: ts}); err != nil {
					return false
				}
				ts = ts.Add(time.Second)
			}

			uptime, err := calc.Uptime(nodeID, 24*time.Hour)
			if err != nil {
				return false
			}
			return uptime >= 0 && uptime <= 100
		},
		gopter.Gen(func(genParams *gopter.GenParameters) *gopter.GenResult {
			value := genParams.Rng.Intn(30)
			return gopter.NewGenResult(value, gopter.NoShrinker)
		}),
		gopter.Gen(func(genParams *gopter.GenParameters) *gopter.GenResult {
			value := genParams.Rng.Intn(30)
			return gopter.NewGenResult(value, gopter.NoShrinker)
		}),
	))

	props.TestingRun(t, gopter.ConsoleReporter(false))
}
