/*
Package types defines the core data structures used throughout fleetwatch.

This package contains the domain model shared by all other packages: monitored
nodes, their categories, the per-node sample time series, derived status, and
operator notifications.

# Core Types

Node: a monitored server. Nodes are created administratively, authenticate
their reports with a per-node API key, and belong to a category.

Sample: one timestamped observation of a node's status and resource usage
(CPU, RAM, disk, each a percentage in [0,100]). Samples are immutable and the
per-node series is append-only. An offline sample always carries zero usage.

Status: derived, not stored independently. The status of a node at time T is
the status field of its most recent sample at or before T; a node with no
samples is "unknown".

Notification: an operator-facing event record (info, warning, error, success)
with a soft-delete active flag. Notifications carry only a rendered message,
not a foreign key to a node.

All types are plain serializable structs; validation helpers live next to the
types they validate (Usage.Valid, ValidNotificationType).
*/
package types
