package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/metrics"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxMessageLength bounds the stored message size
const MaxMessageLength = 500

// ErrInvalidNotification is returned for an empty message, an over-long
// message, or an unrecognized type
var ErrInvalidNotification = errors.New("invalid notification")

// Emitter creates and manages operator-facing notifications
type Emitter struct {
	store  storage.Store
	clock  types.Clock
	logger zerolog.Logger
}

// NewEmitter creates a new notification emitter
func NewEmitter(store storage.Store, clock types.Clock) *Emitter {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Emitter{
		store:  store,
		clock:  clock,
		logger: log.WithComponent("notify"),
	}
}

// Emit validates and persists a notification
func (e *Emitter) Emit(kind types.NotificationType, message string) (*types.Notification, error) {
	if !types.ValidNotificationType(kind) {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, kind)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidNotification)
	}
	if len(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidNotification, MaxMessageLength)
	}

	n := &types.Notification{
		ID:        uuid.New().String(),
		Type:      kind,
		Message:   message,
		Timestamp: e.clock.Now(),
		Active:    true,
	}

	if err := e.store.CreateNotification(n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	metrics.NotificationsEmitted.WithLabelValues(string(kind)).Inc()
	e.logger.Info().Str("type", string(kind)).Str("message", message).Msg("notification emitted")
	return n, nil
}

// Convenience emitters for the four notification kinds
func (e *Emitter) Info(message string) (*types.Notification, error) {
	return e.Emit(types.NotificationInfo, message)
}

func (e *Emitter) Warning(message string) (*types.Notification, error) {
	return e.Emit(types.NotificationWarning, message)
}

func (e *Emitter) Error(message string) (*types.Notification, error) {
	return e.Emit(types.NotificationError, message)
}

func (e *Emitter) Success(message string) (*types.Notification, error) {
	return e.Emit(types.NotificationSuccess, message)
}

// ListActive returns all active notifications, newest first
func (e *Emitter) ListActive() ([]*types.Notification, error) {
	return e.store.ListNotifications(false)
}

// List returns all notifications, optionally including deactivated ones
func (e *Emitter) List(includeInactive bool) ([]*types.Notification, error) {
	return e.store.ListNotifications(includeInactive)
}

// Deactivate soft-deletes a notification
func (e *Emitter) Deactivate(id string) error {
	n, err := e.store.GetNotification(id)
	if err != nil {
		return err
	}
	n.Active = false
	return e.store.UpdateNotification(n)
}

// Activate re-activates a previously deactivated notification
func (e *Emitter) Activate(id string) error {
	n, err := e.store.GetNotification(id)
	if err != nil {
		return err
	}
	n.Active = true
	return e.store.UpdateNotification(n)
}

// PurgeOlderThan hard-deletes inactive notifications older than the cutoff
func (e *Emitter) PurgeOlderThan(cutoff time.Time) (int, error) {
	deleted, err := e.store.PurgeNotificationsOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		e.logger.Info().Int("deleted", deleted).Time("cutoff", cutoff).Msg("purged old notifications")
	}
	return deleted, nil
}
