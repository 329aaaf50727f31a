package monitor

import (
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/types"
)

// StatsCollector periodically refreshes the fleet-level Prometheus gauges
// from the engine's view of the world
type StatsCollector struct {
	engine *Engine
	stopCh chan struct{}
}

// NewStatsCollector creates a new stats collector
func NewStatsCollector(engine *Engine) *StatsCollector {
	return &StatsCollector{
		engine: engine,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *StatsCollector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *StatsCollector) Stop() {
	close(c.stopCh)
}

func (c *StatsCollector) collect() {
	ov, err := c.engine.Overview()
	if err != nil {
		logger := log.WithComponent("monitor")
		logger.Warn().Err(err).Msg("failed to collect fleet stats")
		return
	}

	metrics.NodesTotal.WithLabelValues(string(types.StatusOnline)).Set(float64(ov.OnlineNodes))
	metrics.NodesTotal.WithLabelValues(string(types.StatusOffline)).Set(float64(ov.OfflineNodes))
	metrics.NodesTotal.WithLabelValues(string(types.StatusUnknown)).Set(float64(ov.UnknownNodes))
}
