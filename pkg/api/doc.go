/*
Package api provides the HTTP surface of fleetwatch.

The API is thin plumbing around the engine: handlers authenticate, decode,
call one engine/manager/calculator method, and map domain errors onto HTTP
status codes (not found → 404, validation → 400, category-in-use → 409,
anything else → 500).

# Endpoints

Push API (agents, authenticated with the node's Bearer api key):

	POST /api/v1/samples

Read API (dashboard):

	GET    /api/v1/overview
	GET    /api/v1/nodes
	POST   /api/v1/nodes
	GET    /api/v1/nodes/{id}
	PUT    /api/v1/nodes/{id}
	DELETE /api/v1/nodes/{id}
	GET    /api/v1/nodes/{id}/history?hours=24
	GET    /api/v1/nodes/{id}/uptime?range=24h
	GET    /api/v1/categories
	POST   /api/v1/categories
	DELETE /api/v1/categories/{id}
	GET    /api/v1/notifications?all=true
	DELETE /api/v1/notifications/{id}

Operational:

	GET /healthz
	GET /metrics

Sample payloads may spell usage fields as cpu/ram/disk or the legacy
cpuUsage/ramUsage/diskUsage; the boundary normalizes them before the values
reach the engine. The node api key is returned exactly once, in the node
creation response.
*/
package api
