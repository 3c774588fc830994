// Package telemetry groups the observability concerns of the gateway:
// structured logging, Prometheus metrics, and health checks.
package telemetry
