/*
Package manager owns the administrative registry of monitored nodes and their
categories.

Nodes are created with a server-generated ID and a per-node API key
(sk_<uuid>) that agents use to authenticate reports. The manager validates
input, guards referential integrity (a category cannot be deleted while nodes
reference it; a node cannot be created in a nonexistent category), and
cascades a node deletion to its sample series.

GroupedNodes builds the dashboard read-model: nodes grouped by category name,
each with current status, latest usage and 24-hour uptime. API keys are
stripped from that view; they are only returned once, at node creation.

The manager deliberately contains no temporal logic: deriving status and
writing samples is the monitor package's job.
*/
package manager
