// Package server provides the MCP server context and the HTTP servers of the
// ohq-bluejeans service.
//
// # Key Components
//
// ServerContext owns the long-lived dependencies shared by every tool call:
// the BlueJeans client, the backend adapter, the provisioner with its store
// and the metrics recorder. Shutdown cancels its context and closes the store.
//
// HTTPServer mounts the MCP streamable HTTP transport at /mcp together with
// the health endpoints of HealthChecker:
//   - /healthz: liveness
//   - /readyz: readiness, including a store connectivity check
//   - /healthz/detailed: uptime, version, backend and store information
//
// MetricsServer exposes Prometheus metrics on a separate port.
package server
