// Package cli provides small helpers shared by the warden command: output
// formatters, signal handling, and command error types.
package cli
