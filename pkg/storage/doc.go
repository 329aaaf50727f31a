/*
Package storage provides persistent state management for fleetwatch using BoltDB.

The storage layer persists nodes, categories, the per-node sample time series,
and operator notifications behind the Store interface, keeping the monitoring
engine independent of the storage technology.

# Architecture

BoltStore wraps a single embedded BoltDB database file (fleetwatch.db) with
four top-level buckets:

	nodes          node records, keyed by node ID
	categories     category records, keyed by category ID
	samples        one nested bucket per node holding its time series
	notifications  notification records, keyed by notification ID

Records are stored as JSON. Sample keys are the sample timestamp in big-endian
unix nanoseconds followed by the bucket sequence number, so keys sort
chronologically and both range queries (SamplesInRange) and retention trims
(TrimSamples, DeleteSamplesOlderThan) are simple cursor scans. The sequence
suffix keeps keys unique when two samples share a timestamp.

# Consistency

BoltDB serializes all write transactions, which gives the per-node append
atomicity the engine relies on: a retention trim can never observe (or drop)
a half-written sample. Deleting a node deletes its sample bucket in the same
transaction, so reads never return samples for a removed node.

# Usage

	store, err := storage.NewBoltStore("/var/lib/fleetwatch")
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.AppendSample(&types.Sample{
		NodeID:    "node-1",
		Status:    types.StatusOnline,
		Usage:     types.Usage{CPU: 12.5, RAM: 40.1, Disk: 71.0},
		Timestamp: time.Now(),
	})

Lookups for missing nodes return ErrNodeNotFound (wrapped, test with
errors.Is); sample reads for unknown nodes return empty results instead.
*/
package storage
