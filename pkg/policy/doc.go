// Package policy defines compliance policies and evaluates them against
// enriched request contexts.
//
// A Policy is an ordered, versioned set of rules plus an evaluation strategy.
// The engine considers enabled rules in ascending priority order, evaluates
// each rule's condition with pkg/expr, and returns the first match together
// with a complete trace of every rule inspected. When no rule matches, the
// policy's default effect applies. A condition that fails to evaluate is a
// non-match, never an error: expression failures must not change the decision
// path beyond skipping the broken rule.
//
// Policies are published to readers through a copy-on-write Registry
// snapshot; management operations swap the snapshot pointer atomically so an
// in-flight evaluation never observes a partially updated rule list.
package policy
