// Package uptime computes historical availability ratios from the sample
// time series.
package uptime

import (
	"fmt"
	"math"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
)

// DefaultWindow is used when a requested window is not recognized
const DefaultWindow = 24 * time.Hour

// Stats is the uptime summary for one node over one window
type Stats struct {
	Uptime       float64 `json:"uptime"`
	TotalChecks  int     `json:"totalChecks"`
	OnlineChecks int     `json:"onlineChecks"`
	Window       string  `json:"timeRange"`
}

// ParseWindow maps the supported window names to durations. Unrecognized
// inputs fall back to 24 hours.
func ParseWindow(window string) time.Duration {
	switch window {
	case "1h":
		return time.Hour
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	default:
		return DefaultWindow
	}
}

// Calculator derives uptime percentages from the metric store. It is
// read-only and safe for concurrent use.
type Calculator struct {
	store storage.Store
	clock types.Clock
}

// NewCalculator creates a new uptime calculator
func NewCalculator(store storage.Store, clock types.Clock) *Calculator {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Calculator{store: store, clock: clock}
}

// Uptime returns 100 * onlineSamples / totalSamples over the window ending
// now, rounded to two decimals. A window with zero samples yields 0: no data
// reads as no uptime, not as an error.
func (c *Calculator) Uptime(nodeID string, window time.Duration) (float64, error) {
	stats, err := c.stats(nodeID, window, window.String())
	if err != nil {
		return 0, err
	}
	return stats.Uptime, nil
}

// Stats returns the uptime percentage together with the underlying sample
// counts for one of the named windows (1h, 24h, 7d, 30d)
func (c *Calculator) Stats(nodeID, window string) (*Stats, error) {
	return c.stats(nodeID, ParseWindow(window), window)
}

func (c *Calculator) stats(nodeID string, window time.Duration, label string) (*Stats, error) {
	now := c.clock.Now()
	samples, err := c.store.SamplesInRange(nodeID, now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}

	stats := &Stats{Window: label, TotalChecks: len(samples)}
	if len(samples) == 0 {
		return stats, nil
	}

	for _, sample := range samples {
		if sample.Status == types.StatusOnline {
			stats.OnlineChecks++
		}
	}

	ratio := float64(stats.OnlineChecks) / float64(stats.TotalChecks) * 100
	stats.Uptime = math.Round(ratio*100) / 100
	return stats, nil
}
