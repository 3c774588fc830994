// Package routing ranks model endpoints for executable decisions.
//
// A pool groups targets sharing a region and health status. Each active
// target is scored against the caller's routing preferences; the score is
// additive over latency, availability, residency, data-class alignment,
// context window, cost, quality, and feature requirements. Candidates are
// returned sorted descending with the winner flagged, and every score carries
// the human-readable reasons that produced it so callers can see why a
// target was penalized rather than silently losing it.
//
// Pool and target configuration lives in a copy-on-write registry: reads
// take the current snapshot without locking, management operations publish
// a replacement atomically.
package routing
