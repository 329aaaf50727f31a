/*
Package monitor implements the status engine at the heart of fleetwatch.

The engine ingests validated metric reports, appends them to the per-node
sample series, derives the online/offline state machine, and emits operator
notifications on transitions and high-usage breaches.

# State Machine

Nodes move between three states:

	unknown ──RecordSample──▶ online
	unknown ──ForceOffline──▶ offline
	online  ──ForceOffline──▶ offline
	offline ──RecordSample──▶ online

State is never stored independently: the status of a node is the status of
its freshest sample, and a node with no samples is unknown. RecordSample and
ForceOffline are the only two operations that change status, so both real
reports and reconciler-forced transitions flow through one code path.

# Side Effects

Every status change emits a notification: error when a node goes offline
(with the reconciler's reason, when present), success when an offline node
recovers, info when a node reports for the first time. Independent of status,
each usage value strictly above the high-usage threshold (default 85%) emits
a warning. All side effects, including the post-append retention trim, are
best-effort: a failure is logged and never rolls back the sample write.

ForceOffline is idempotent with respect to notifications: repeated calls on
an already-offline node append offline samples but emit nothing, avoiding
notification storms when the reconciler sweeps an unreachable node every
period.

# Concurrency

The engine is stateless between calls and safe for concurrent use across
nodes. Concurrent RecordSample and ForceOffline calls for the same node are
serialized only by the storage layer's write transaction; a race between a
real report and a reconciler sweep resolves to whichever append lands last,
bounded by one reconciler period.
*/
package monitor
