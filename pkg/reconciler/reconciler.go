package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/monitor"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultInterval is the sweep period
	DefaultInterval = 30 * time.Second

	// DefaultOfflineTimeout is how long a node may stay silent before it is
	// forced offline
	DefaultOfflineTimeout = 2 * time.Minute
)

// Config holds reconciler tuning knobs
type Config struct {
	Interval       time.Duration
	OfflineTimeout time.Duration
}

// Reconciler detects nodes that stopped reporting and forces them offline
// through the status engine
type Reconciler struct {
	store    storage.Store
	engine   *monitor.Engine
	clock    types.Clock
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	// sweepMu makes the sweep single-flight: a tick that fires while a
	// sweep is still running is skipped, never queued.
	sweepMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler creates a new reconciler
func NewReconciler(store storage.Store, engine *monitor.Engine, clock types.Clock, cfg Config) *Reconciler {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OfflineTimeout <= 0 {
		cfg.OfflineTimeout = DefaultOfflineTimeout
	}
	return &Reconciler{
		store:    store,
		engine:   engine,
		clock:    clock,
		interval: cfg.Interval,
		timeout:  cfg.OfflineTimeout,
		logger:   log.WithComponent("reconciler"),
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop
func (r *Reconciler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.run(ctx)
}

// Stop cancels the loop and waits for an in-flight sweep to finish. Each
// node's transition is a single atomic append, so cancellation between nodes
// is always safe.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !r.sweepMu.TryLock() {
				metrics.ReconcilerCyclesSkipped.Inc()
				r.logger.Warn().Msg("previous sweep still running, skipping tick")
				continue
			}
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error().Err(err).Msg("sweep failed")
			}
			r.sweepMu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Sweep evaluates every node once. Nodes whose freshest sample is older than
// the timeout and not already offline are forced offline; nodes that never
// reported stay unknown. A failure on one node is logged and does not abort
// the sweep for the rest.
func (r *Reconciler) Sweep(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconcilerDuration)
		metrics.ReconcilerCyclesTotal.Inc()
	}()

	nodes, err := r.store.ListNodes()
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	for _, node := range nodes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.checkNode(node); err != nil {
			r.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to check node")
		}
	}
	return nil
}

func (r *Reconciler) checkNode(node *types.Node) error {
	latest, err := r.store.LatestSample(node.ID)
	if err != nil {
		return fmt.Errorf("failed to read latest sample: %w", err)
	}
	if latest == nil {
		// Never reported: unknown, not offline
		return nil
	}
	if latest.Status == types.StatusOffline {
		return nil
	}

	elapsed := r.clock.Now().Sub(latest.Timestamp)
	if elapsed <= r.timeout {
		return nil
	}

	reason := fmt.Sprintf("no report received for %s", elapsed.Round(time.Second))
	r.logger.Info().Str("node_id", node.ID).Dur("elapsed", elapsed).Msg("node timed out, forcing offline")

	if _, err := r.engine.ForceOffline(node.ID, reason); err != nil {
		return fmt.Errorf("failed to force node offline: %w", err)
	}
	metrics.NodesForcedOffline.Inc()
	return nil
}
