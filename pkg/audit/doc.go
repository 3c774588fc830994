// Package audit implements the tamper-evident decision log.
//
// Every decision appends one entry to a hash chain: the entry's prev_hash is
// derived from the previous entry's hashes plus the new entry's rule, effect,
// and timestamp, so any later mutation of a stored entry breaks every link
// after it. A Merkle tree over the entry leaves provides a compact proof of
// the whole log's state, and VerifyIntegrity re-derives the chain to locate
// exactly which entry was tampered with.
//
// Entries are append-only. The chain tail is guarded by a single mutex so
// appends are strictly linearly ordered; readers of committed entries never
// take that lock.
package audit
