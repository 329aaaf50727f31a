/*
Package metrics provides Prometheus instrumentation and process health
reporting for fleetwatch.

Collectors are package-level variables registered in init() and exported for
direct use by the engine, reconciler and API layers:

	metrics.SamplesIngested.Inc()
	metrics.NodesTotal.WithLabelValues("online").Set(float64(n))

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconcilerDuration)

Handler() exposes the standard promhttp handler for the /metrics endpoint.

The package also tracks coarse component health (storage, reconciler, api)
for the /healthz endpoint via RegisterComponent/UpdateComponent; the handler
returns 503 when any registered component reports unhealthy.
*/
package metrics
