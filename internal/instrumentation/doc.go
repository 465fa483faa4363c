// Package instrumentation provides OpenTelemetry metrics and tracing for the
// ohq-bluejeans service.
//
// # Metrics
//
// Provider API:
//   - provider_api_requests_total: provider API calls by provider, operation, status
//   - provider_api_request_duration_seconds: provider API call durations
//   - oauth_token_refresh_total: access token refreshes by result
//
// Provisioning:
//   - meeting_provision_total: SaveUserMeeting outcomes (created, existing, no_account, error)
//
// MCP Tools:
//   - mcp_tool_invocations_total: tool invocations by tool name and status
//   - mcp_tool_duration_seconds: tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>) and provider calls
// (bluejeans.<operation>). Outbound HTTP is additionally traced by otelhttp.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: ohq-bluejeans)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordProvision(ctx, "bluejeans", instrumentation.ProvisionCreated)
package instrumentation
