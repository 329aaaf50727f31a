package storage

import (
	"errors"
	"time"

	"github.com/fleetwatch/fleetwatch/pkg/types"
)

var (
	// ErrNodeNotFound is returned when a node does not exist
	ErrNodeNotFound = errors.New("node not found")

	// ErrCategoryNotFound is returned when a category does not exist
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryInUse is returned when deleting a category that still has nodes
	ErrCategoryInUse = errors.New("category has nodes attached")

	// ErrNotificationNotFound is returned when a notification does not exist
	ErrNotificationNotFound = errors.New("notification not found")
)

// Store is the persistence contract consumed by the monitoring engine.
// Implementations must serialize writes touching the same node's sample
// series so a retention trim can never race an append.
type Store interface {
	// Node operations
	CreateNode(node *types.Node) error
	GetNode(id string) (*types.Node, error)
	GetNodeByAPIKey(apiKey string) (*types.Node, error)
	ListNodes() ([]*types.Node, error)
	ListNodesByCategory(categoryID string) ([]*types.Node, error)
	UpdateNode(node *types.Node) error
	DeleteNode(id string) error

	// Category operations
	CreateCategory(category *types.Category) error
	GetCategory(id string) (*types.Category, error)
	ListCategories() ([]*types.Category, error)
	DeleteCategory(id string) error

	// Sample operations. The per-node series is append-only; LatestSample
	// and SamplesInRange return empty results, not errors, for nodes that
	// do not exist or have never reported.
	AppendSample(sample *types.Sample) error
	LatestSample(nodeID string) (*types.Sample, error)
	SamplesInRange(nodeID string, start, end time.Time) ([]*types.Sample, error)
	TrimSamples(nodeID string, keep int) (int, error)
	DeleteSamplesOlderThan(cutoff time.Time) (int, error)

	// Notification operations
	CreateNotification(n *types.Notification) error
	GetNotification(id string) (*types.Notification, error)
	ListNotifications(includeInactive bool) ([]*types.Notification, error)
	UpdateNotification(n *types.Notification) error
	DeleteNotification(id string) error
	PurgeNotificationsOlderThan(cutoff time.Time) (int, error)

	Close() error
}
