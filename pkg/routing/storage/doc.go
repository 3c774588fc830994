// Package storage persists routing configuration. The SQLite store shares
// the operational configuration database with the policy store; the memory
// store backs tests and simulation tooling.
package storage
