// Package telemetry provides structured logging, Prometheus metrics, and
// OpenTelemetry tracing for AccessBridge.
//
// Logging is zerolog-based and flows through the Logger wrapper so that
// component loggers and session-scoped fields stay consistent across the
// bridge core, the host client, and the tool server. Metrics cover the
// orchestration core's observable behavior: tool calls, engine resets,
// recovery retries, arbitration releases, and tabular reopens. Tracing
// wraps tool calls and automation runs in spans.
package telemetry
