// Package metrics defines the Prometheus instrumentation for the gateway:
// policy decision counters, routing selection counters, and audit log
// gauges, exposed through a standard scrape handler.
package metrics
