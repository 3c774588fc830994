// Package health implements liveness and readiness checks for the gateway.
// Components register named check functions; the checker runs them with a
// per-check timeout and aggregates the results.
package health
