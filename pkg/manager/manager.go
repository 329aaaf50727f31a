package manager

import (
	"fmt"
	"strings"

	"github.com/fleetwatch/fleetwatch/pkg/events"
	"github.com/fleetwatch/fleetwatch/pkg/log"
	"github.com/fleetwatch/fleetwatch/pkg/storage"
	"github.com/fleetwatch/fleetwatch/pkg/types"
	"github.com/fleetwatch/fleetwatch/pkg/uptime"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrValidation is returned for malformed node or category input
var ErrValidation = fmt.Errorf("validation failed")

// Manager owns the administrative lifecycle of nodes and categories. Status
// derivation stays in the monitor package; the manager only manages the
// registry the engine monitors.
type Manager struct {
	store  storage.Store
	broker *events.Broker
	calc   *uptime.Calculator
	clock  types.Clock
	logger zerolog.Logger
}

// NewManager creates a new registry manager
func NewManager(store storage.Store, broker *events.Broker, calc *uptime.Calculator, clock types.Clock) *Manager {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Manager{
		store:  store,
		broker: broker,
		calc:   calc,
		clock:  clock,
		logger: log.WithComponent("manager"),
	}
}

// CreateNode registers a new monitored node. The ID and API key are
// generated server-side; the key is the credential agents report with.
func (m *Manager) CreateNode(name, location, categoryID string) (*types.Node, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)

	if name == "" {
		return nil, fmt.Errorf("%w: node name is required", ErrValidation)
	}
	if location == "" {
		return nil, fmt.Errorf("%w: node location is required", ErrValidation)
	}
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category id is required", ErrValidation)
	}
	if _, err := m.store.GetCategory(categoryID); err != nil {
		return nil, err
	}

	now := m.clock.Now()
	node := &types.Node{
		ID:         uuid.New().String(),
		Name:       name,
		Location:   location,
		APIKey:     "sk_" + uuid.New().String(),
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.store.CreateNode(node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	m.publish(&events.Event{
		Type:    events.EventNodeCreated,
		NodeID:  node.ID,
		Message: fmt.Sprintf("node %q registered", node.Name),
	})
	m.logger.Info().Str("node_id", node.ID).Str("name", node.Name).Msg("node created")
	return node, nil
}

// GetNode returns a node by ID
func (m *Manager) GetNode(id string) (*types.Node, error) {
	return m.store.GetNode(id)
}

// GetNodeByAPIKey resolves the node a report credential belongs to
func (m *Manager) GetNodeByAPIKey(apiKey string) (*types.Node, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrValidation)
	}
	return m.store.GetNodeByAPIKey(apiKey)
}

// ListNodes returns all registered nodes
func (m *Manager) ListNodes() ([]*types.Node, error) {
	return m.store.ListNodes()
}

// UpdateNode updates a node's mutable fields (name, location, category)
func (m *Manager) UpdateNode(id, name, location, categoryID string) (*types.Node, error) {
	node, err := m.store.GetNode(id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: node name cannot be empty", ErrValidation)
		}
		node.Name = strings.TrimSpace(name)
	}
	if location != "" {
		node.Location = strings.TrimSpace(location)
	}
	if categoryID != "" {
		if _, err := m.store.GetCategory(categoryID); err != nil {
			return nil, err
		}
		node.CategoryID = categoryID
	}
	node.UpdatedAt = m.clock.Now()

	if err := m.store.UpdateNode(node); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}
	return node, nil
}

// DeleteNode removes a node and its entire sample series
func (m *Manager) DeleteNode(id string) error {
	if err := m.store.DeleteNode(id); err != nil {
		return err
	}
	m.publish(&events.Event{
		Type:    events.EventNodeDeleted,
		NodeID:  id,
		Message: fmt.Sprintf("node %s deleted", id),
	})
	m.logger.Info().Str("node_id", id).Msg("node deleted")
	return nil
}

// CreateCategory registers a new node category
func (m *Manager) CreateCategory(name string) (*types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}

	category := &types.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: m.clock.Now(),
	}
	if err := m.store.CreateCategory(category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	m.logger.Info().Str("category_id", category.ID).Str("name", name).Msg("category created")
	return category, nil
}

// ListCategories returns all categories
func (m *Manager) ListCategories() ([]*types.Category, error) {
	return m.store.ListCategories()
}

// DeleteCategory removes a category. Fails with storage.ErrCategoryInUse
// while nodes still reference it.
func (m *Manager) DeleteCategory(id string) error {
	return m.store.DeleteCategory(id)
}

// GroupedNodes returns every node grouped by category name, each with its
// current status, latest usage and 24h uptime. A node whose metrics cannot
// be loaded is reported offline with zero usage rather than dropped.
func (m *Manager) GroupedNodes() (map[string][]*types.NodeSummary, error) {
	categories, err := m.store.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	result := make(map[string][]*types.NodeSummary)
	for _, category := range categories {
		nodes, err := m.store.ListNodesByCategory(category.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list nodes for category %s: %w", category.ID, err)
		}

		summaries := make([]*types.NodeSummary, 0, len(nodes))
		for _, node := range nodes {
			summaries = append(summaries, m.summarize(node))
		}
		result[category.Name] = summaries
	}
	return result, nil
}

func (m *Manager) summarize(node *types.Node) *types.NodeSummary {
	summary := &types.NodeSummary{
		Node:        *node,
		Status:      types.StatusUnknown,
		LastUpdated: node.UpdatedAt,
	}
	summary.Node.APIKey = "" // credentials never leave the registry

	latest, err := m.store.LatestSample(node.ID)
	if err != nil {
		m.logger.Warn().Err(err).Str("node_id", node.ID).Msg("failed to load latest sample")
		summary.Status = types.StatusOffline
		return summary
	}
	if latest != nil {
		summary.Status = latest.Status
		summary.Usage = latest.Usage
		summary.LastUpdated = latest.Timestamp
	}

	if up, err := m.calc.Uptime(node.ID, uptime.DefaultWindow); err == nil {
		summary.Uptime = up
	} else {
		m.logger.Warn().Err(err).Str("node_id", node.ID).Msg("failed to compute uptime")
	}
	return summary
}

func (m *Manager) publish(event *events.Event) {
	if m.broker != nil {
		m.broker.Publish(event)
	}
}
