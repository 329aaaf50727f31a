package notify

import "fmt"

// Message builders for the notifications the engine emits. Kept in one place
// so transition and threshold wording stays consistent across code paths.

// NodeOfflineMessage renders the transition message for a node going offline
func NodeOfflineMessage(name, reason string) string {
	if reason != "" {
		return fmt.Sprintf("Node %q went offline. Reason: %s", name, reason)
	}
	return fmt.Sprintf("Node %q went offline", name)
}

// NodeBackOnlineMessage renders the recovery message for an offline node
// coming back
func NodeBackOnlineMessage(name string) string {
	return fmt.Sprintf("Node %q is back online", name)
}

// NodeOnlineMessage renders the message for a node reporting for the first time
func NodeOnlineMessage(name string) string {
	return fmt.Sprintf("Node %q is now online", name)
}

// HighUsageMessage renders the threshold-breach warning for one resource
func HighUsageMessage(name, resource string, usage float64) string {
	return fmt.Sprintf("High %s usage (%.1f%%) on node %q", resource, usage, name)
}
