package audit

import "errors"

var (
	// ErrEntryNotFound is returned when an entry id does not exist.
	ErrEntryNotFound = errors.New("audit entry not found")

	// ErrEmptyLog is returned when a proof is requested over an empty log.
	ErrEmptyLog = errors.New("audit log is empty")
)
