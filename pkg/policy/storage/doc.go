// Package storage provides persistence backends for the policy registry.
//
// The SQLite backend stores each policy as a JSON document keyed by
// policy_id, so the registry's snapshot can be rebuilt at startup. The memory
// backend exists for tests.
package storage
