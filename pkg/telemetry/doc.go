// Package telemetry groups the gateway's observability concerns.
//
// Structured logging lives in the logging subpackage; Prometheus metrics
// for invocations, attempts, costs, and cache lookups are registered by
// pkg/gateway and shared across the engine and the search client.
package telemetry
