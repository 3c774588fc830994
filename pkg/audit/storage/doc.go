// Package storage persists the audit chain. The SQLite store is the
// production backend; the memory store backs tests. Both are append-only:
// neither exposes update or delete.
package storage
