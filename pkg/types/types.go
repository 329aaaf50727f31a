package types

import (
	"math"
	"time"
)

// Node represents a monitored server reporting in over the push API
type Node struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	APIKey     string    `json:"apiKey,omitempty"`
	CategoryID string    `json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Category groups nodes for the dashboard overview
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status represents the derived state of a node
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Usage holds the three resource usage ratios of a sample, each in [0,100]
type Usage struct {
	CPU  float64 `json:"cpu"`
	RAM  float64 `json:"ram"`
	Disk float64 `json:"disk"`
}

// Clamp returns a copy with every ratio forced into [0,100].
// Non-finite values collapse to 0, matching the ingestion behavior
// of the push API.
func (u Usage) Clamp() Usage {
	return Usage{
		CPU:  clampRatio(u.CPU),
		RAM:  clampRatio(u.RAM),
		Disk: clampRatio(u.Disk),
	}
}

// Valid reports whether every ratio is a finite number in [0,100]
func (u Usage) Valid() bool {
	return ValidRatio(u.CPU) && ValidRatio(u.RAM) && ValidRatio(u.Disk)
}

// ValidRatio reports whether v is a finite number in [0,100]
func ValidRatio(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}

func clampRatio(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	// Two decimal places, same precision the agents report with
	return math.Round(v*100) / 100
}

// Sample is one immutable observation in a node's time series.
// Offline samples always carry zero usage.
type Sample struct {
	NodeID    string    `json:"nodeId"`
	Status    Status    `json:"status"`
	Usage     Usage     `json:"usage"`
	Timestamp time.Time `json:"timestamp"`
}

// NodeStatus is the read-model returned for a node's current state
type NodeStatus struct {
	NodeID      string    `json:"nodeId"`
	Status      Status    `json:"status"`
	Usage       Usage     `json:"usage"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NotificationType classifies operator-facing notifications
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// ValidNotificationType reports whether t is one of the four recognized kinds
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationInfo, NotificationWarning, NotificationError, NotificationSuccess:
		return true
	}
	return false
}

// Notification is a record of an event worth surfacing to an operator.
// Notifications carry only a rendered message, not a node reference.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Active    bool             `json:"active"`
}

// Overview summarizes the whole fleet for the dashboard
type Overview struct {
	TotalNodes   int   `json:"totalNodes"`
	OnlineNodes  int   `json:"onlineNodes"`
	OfflineNodes int   `json:"offlineNodes"`
	UnknownNodes int   `json:"unknownNodes"`
	AverageUsage Usage `json:"averageUsage"`
}

// NodeSummary is one node's row in the grouped overview
type NodeSummary struct {
	Node        Node      `json:"node"`
	Status      Status    `json:"status"`
	Usage       Usage     `json:"usage"`
	Uptime      float64   `json:"uptime"`
	LastUpdated time.Time `json:"lastUpdated"`
}
