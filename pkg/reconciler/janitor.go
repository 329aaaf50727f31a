package reconciler

import (
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/notify"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultJanitorInterval is how often retention sweeps run
	DefaultJanitorInterval = time.Hour

	// DefaultSampleRetentionDays is the global time-based sample retention
	DefaultSampleRetentionDays = 365

	// DefaultNotificationRetentionDays is how long inactive notifications
	// are kept before hard deletion
	DefaultNotificationRetentionDays = 90
)

// JanitorConfig holds retention tuning knobs
type JanitorConfig struct {
	Interval                  time.Duration
	SampleRetentionDays       int
	NotificationRetentionDays int
}

// Janitor runs the global time-based retention sweeps: old samples across
// all nodes and inactive notifications past their retention window. Both
// sweeps are best-effort; failures are logged and retried next interval.
type Janitor struct {
	store   storage.Store
	emitter *notify.Emitter
	clock   types.Clock
	cfg     JanitorConfig
	logger  zerolog.Logger
	stopCh  chan struct{}
}

// NewJanitor creates a new retention janitor
func NewJanitor(store storage.Store, emitter *notify.Emitter, clock types.Clock, cfg JanitorConfig) *Janitor {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultJanitorInterval
	}
	if cfg.SampleRetentionDays <= 0 {
		cfg.SampleRetentionDays = DefaultSampleRetentionDays
	}
	if cfg.NotificationRetentionDays <= 0 {
		cfg.NotificationRetentionDays = DefaultNotificationRetentionDays
	}
	return &Janitor{
		store:   store,
		emitter: emitter,
		clock:   clock,
		cfg:     cfg,
		logger:  log.WithComponent("janitor"),
		stopCh:  make(chan struct{}),
	}
}

// Start begins the retention loop
func (j *Janitor) Start() {
	go j.run()
}

// Stop stops the retention loop
func (j *Janitor) Stop() {
	close(j.stopCh)
}

func (j *Janitor) run() {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	// Sweep once on startup so retention applies after long downtime
	j.Sweep()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-j.stopCh:
			return
		}
	}
}

// Sweep applies both retention policies once
func (j *Janitor) Sweep() {
	now := j.clock.Now()

	sampleCutoff := now.AddDate(0, 0, -j.cfg.SampleRetentionDays)
	if deleted, err := j.store.DeleteSamplesOlderThan(sampleCutoff); err != nil {
		j.logger.Error().Err(err).Msg("failed to delete old samples")
	} else if deleted > 0 {
		j.logger.Info().Int("deleted", deleted).Int("retention_days", j.cfg.SampleRetentionDays).Msg("deleted old samples")
	}

	notificationCutoff := now.AddDate(0, 0, -j.cfg.NotificationRetentionDays)
	if _, err := j.emitter.PurgeOlderThan(notificationCutoff); err != nil {
		j.logger.Error().Err(err).Msg("failed to purge old notifications")
	}
}
