/*
Package reconciler provides silent-failure detection and retention sweeps for
the monitored fleet.

# Offline Reconciler

Nodes report in over the push API; a node that stops reporting never tells
anyone. The reconciler closes that gap: on a fixed interval (default 30s) it
scans every node, and any node whose freshest sample is older than the
offline timeout (default 2 minutes) is forced offline through the status
engine, producing the same offline sample and error notification a real
transition would. Nodes that have never reported are skipped: no data means
unknown, not offline.

	Last sample:  10:00:00
	Sweep at:     10:03:05  (timeout 2m)
	Action:       ForceOffline("no report received for 3m5s")

Sweeps are single-flight: if a sweep is still running when the next tick
fires, the tick is skipped rather than queued, so storage latency can never
stack concurrent scans. A failure evaluating one node is logged and the sweep
continues with the rest. Stop cancels the loop cooperatively and waits for an
in-flight sweep to return; each node transition is a single atomic append, so
stopping between nodes is always safe.

Because the reconciler drives transitions through monitor.Engine.ForceOffline,
repeated sweeps over a dead node keep appending offline samples (the series
stays honest about when checks happened) but emit exactly one notification.

# Retention Janitor

The janitor applies the two global retention policies on an hourly cadence:
samples older than the history retention window (default 365 days) are
deleted across all nodes, and inactive notifications past their retention
window (default 90 days) are hard-deleted. Both sweeps are best-effort and
independent of the per-append count-based trim the engine performs.
*/
package reconciler
