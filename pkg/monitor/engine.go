package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/events"
	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/notify"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultKeepSamples bounds the per-node series after every append
	DefaultKeepSamples = 100

	// DefaultHighUsageThreshold is the percentage above which a usage value
	// triggers a warning notification
	DefaultHighUsageThreshold = 85.0
)

// ErrInvalidMetric is returned when a reported usage value is not a finite
// number in [0,100]
var ErrInvalidMetric = errors.New("invalid metric")

// ErrNodeNotFound mirrors the storage sentinel so callers can depend on the
// engine package alone
var ErrNodeNotFound = storage.ErrNodeNotFound

// Config holds engine tuning knobs
type Config struct {
	KeepSamples        int
	HighUsageThreshold float64
}

// Engine is the status engine: it ingests metric reports, derives node
// status, and emits notifications on transitions and threshold breaches.
type Engine struct {
	store     storage.Store
	emitter   *notify.Emitter
	broker    *events.Broker
	clock     types.Clock
	keep      int
	threshold float64
	logger    zerolog.Logger
}

// NewEngine creates a new status engine
func NewEngine(store storage.Store, emitter *notify.Emitter, broker *events.Broker, clock types.Clock, cfg Config) *Engine {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if cfg.KeepSamples <= 0 {
		cfg.KeepSamples = DefaultKeepSamples
	}
	if cfg.HighUsageThreshold <= 0 {
		cfg.HighUsageThreshold = DefaultHighUsageThreshold
	}
	return &Engine{
		store:     store,
		emitter:   emitter,
		broker:    broker,
		clock:     clock,
		keep:      cfg.KeepSamples,
		threshold: cfg.HighUsageThreshold,
		logger:    log.WithComponent("monitor"),
	}
}

// RecordSample validates and appends an online sample for a node, emitting
// transition and high-usage notifications as side effects. Side effects are
// best-effort: their failure never rolls back the sample write.
func (e *Engine) RecordSample(nodeID string, usage types.Usage) (*types.Sample, error) {
	if err := validateUsage(usage); err != nil {
		metrics.SamplesRejected.WithLabelValues("invalid_metric").Inc()
		return nil, err
	}

	node, err := e.store.GetNode(nodeID)
	if err != nil {
		metrics.SamplesRejected.WithLabelValues("node_not_found").Inc()
		return nil, err
	}

	prev := e.previousStatus(nodeID)

	sample := &types.Sample{
		NodeID:    nodeID,
		Status:    types.StatusOnline,
		Usage:     usage.Clamp(),
		Timestamp: e.clock.Now(),
	}
	if err := e.store.AppendSample(sample); err != nil {
		return nil, fmt.Errorf("failed to append sample: %w", err)
	}
	metrics.SamplesIngested.Inc()

	if prev != types.StatusOnline {
		e.handleTransition(node, prev, types.StatusOnline, "")
	}
	e.checkHighUsage(node, sample.Usage)
	e.trim(nodeID)

	e.publish(&events.Event{
		Type:    events.EventSampleRecorded,
		NodeID:  nodeID,
		Message: fmt.Sprintf("sample recorded for node %q", node.Name),
	})

	e.logger.Debug().Str("node_id", nodeID).
		Float64("cpu", sample.Usage.CPU).
		Float64("ram", sample.Usage.RAM).
		Float64("disk", sample.Usage.Disk).
		Msg("sample recorded")
	return sample, nil
}

// ForceOffline appends a zero-usage offline sample for a node. Repeated calls
// on an already-offline node still write the sample but emit no duplicate
// notification.
func (e *Engine) ForceOffline(nodeID, reason string) (*types.Sample, error) {
	node, err := e.store.GetNode(nodeID)
	if err != nil {
		return nil, err
	}

	prev := e.previousStatus(nodeID)

	sample := &types.Sample{
		NodeID:    nodeID,
		Status:    types.StatusOffline,
		Usage:     types.Usage{},
		Timestamp: e.clock.Now(),
	}
	if err := e.store.AppendSample(sample); err != nil {
		return nil, fmt.Errorf("failed to append offline sample: %w", err)
	}

	if prev != types.StatusOffline {
		e.handleTransition(node, prev, types.StatusOffline, reason)
	}

	e.logger.Info().Str("node_id", nodeID).Str("reason", reason).Msg("node forced offline")
	return sample, nil
}

// LatestStatus returns the node's current derived status. A node with no
// samples reads as unknown with zero usage.
func (e *Engine) LatestStatus(nodeID string) (*types.NodeStatus, error) {
	if _, err := e.store.GetNode(nodeID); err != nil {
		return nil, err
	}

	latest, err := e.store.LatestSample(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest sample: %w", err)
	}
	if latest == nil {
		return &types.NodeStatus{
			NodeID:      nodeID,
			Status:      types.StatusUnknown,
			LastUpdated: e.clock.Now(),
		}, nil
	}

	return &types.NodeStatus{
		NodeID:      nodeID,
		Status:      latest.Status,
		Usage:       latest.Usage,
		LastUpdated: latest.Timestamp,
	}, nil
}

// History returns the node's samples from the last windowHours hours in
// ascending time order
func (e *Engine) History(nodeID string, windowHours int) ([]*types.Sample, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	now := e.clock.Now()
	return e.store.SamplesInRange(nodeID, now.Add(-time.Duration(windowHours)*time.Hour), now)
}

// Overview summarizes the fleet: per-status node counts and the average
// usage across online nodes
func (e *Engine) Overview() (*types.Overview, error) {
	nodes, err := e.store.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	ov := &types.Overview{TotalNodes: len(nodes)}
	var sum types.Usage
	for _, node := range nodes {
		status, usage := types.StatusUnknown, types.Usage{}
		latest, err := e.store.LatestSample(node.ID)
		if err != nil {
			e.logger.Warn().Err(err).Str("node_id", node.ID).Msg("failed to read latest sample")
		} else if latest != nil {
			status, usage = latest.Status, latest.Usage
		}

		switch status {
		case types.StatusOnline:
			ov.OnlineNodes++
			sum.CPU += usage.CPU
			sum.RAM += usage.RAM
			sum.Disk += usage.Disk
		case types.StatusOffline:
			ov.OfflineNodes++
		default:
			ov.UnknownNodes++
		}
	}

	if ov.OnlineNodes > 0 {
		n := float64(ov.OnlineNodes)
		ov.AverageUsage = types.Usage{
			CPU:  sum.CPU / n,
			RAM:  sum.RAM / n,
			Disk: sum.Disk / n,
		}.Clamp()
	}
	return ov, nil
}

// previousStatus reads the status of the freshest sample, defaulting to
// unknown when the node has never reported or the read fails
func (e *Engine) previousStatus(nodeID string) types.Status {
	latest, err := e.store.LatestSample(nodeID)
	if err != nil {
		e.logger.Warn().Err(err).Str("node_id", nodeID).Msg("failed to read previous status")
		return types.StatusUnknown
	}
	if latest == nil {
		return types.StatusUnknown
	}
	return latest.Status
}

func (e *Engine) handleTransition(node *types.Node, prev, next types.Status, reason string) {
	metrics.StatusTransitions.WithLabelValues(string(next)).Inc()

	var err error
	switch {
	case next == types.StatusOffline:
		_, err = e.emitter.Error(notify.NodeOfflineMessage(node.Name, reason))
		e.publish(&events.Event{
			Type:    events.EventNodeOffline,
			NodeID:  node.ID,
			Message: notify.NodeOfflineMessage(node.Name, reason),
		})
	case next == types.StatusOnline && prev == types.StatusOffline:
		_, err = e.emitter.Success(notify.NodeBackOnlineMessage(node.Name))
		e.publish(&events.Event{
			Type:    events.EventNodeOnline,
			NodeID:  node.ID,
			Message: notify.NodeBackOnlineMessage(node.Name),
		})
	case next == types.StatusOnline:
		_, err = e.emitter.Info(notify.NodeOnlineMessage(node.Name))
		e.publish(&events.Event{
			Type:    events.EventNodeOnline,
			NodeID:  node.ID,
			Message: notify.NodeOnlineMessage(node.Name),
		})
	}
	if err != nil {
		e.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to emit transition notification")
	}
}

// checkHighUsage emits one warning per usage value strictly above the
// threshold, independent of any status change
func (e *Engine) checkHighUsage(node *types.Node, usage types.Usage) {
	checks := []struct {
		resource string
		value    float64
	}{
		{"CPU", usage.CPU},
		{"RAM", usage.RAM},
		{"disk", usage.Disk},
	}

	for _, c := range checks {
		if c.value <= e.threshold {
			continue
		}
		msg := notify.HighUsageMessage(node.Name, c.resource, c.value)
		if _, err := e.emitter.Warning(msg); err != nil {
			e.logger.Error().Err(err).Str("node_id", node.ID).Msg("failed to emit high usage notification")
		}
		e.publish(&events.Event{
			Type:    events.EventHighUsage,
			NodeID:  node.ID,
			Message: msg,
		})
	}
}

// trim bounds the node's series; failures are logged, never propagated
func (e *Engine) trim(nodeID string) {
	deleted, err := e.store.TrimSamples(nodeID, e.keep)
	if err != nil {
		e.logger.Error().Err(err).Str("node_id", nodeID).Msg("failed to trim samples")
		return
	}
	if deleted > 0 {
		metrics.SamplesTrimmed.Add(float64(deleted))
	}
}

func (e *Engine) publish(event *events.Event) {
	if e.broker != nil {
		e.broker.Publish(event)
	}
}

func validateUsage(usage types.Usage) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"cpu", usage.CPU},
		{"ram", usage.RAM},
		{"disk", usage.Disk},
	}
	for _, f := range fields {
		if !types.ValidRatio(f.value) {
			return fmt.Errorf("%w: %s must be a number between 0 and 100", ErrInvalidMetric, f.name)
		}
	}
	return nil
}
