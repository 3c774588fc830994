// Package decision orchestrates the request pipeline: preprocess the
// payload, evaluate the policy, resolve residency and obligations, rank
// routing candidates for executable outcomes, append the audit entry, and
// optionally hand the request to a model connector.
//
// The orchestrator exclusively owns each enriched context for the duration
// of a request. All configuration reads go through copy-on-write snapshots,
// so two concurrent requests each see one atomic view of the policy and
// routing configuration. The audit append is fatal on failure: a decision
// that was never recorded is never delivered.
package decision
