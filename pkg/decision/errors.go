package decision

import "fmt"

// Override rejection codes.
const (
	OverrideNotAllowed    = "OVERRIDE_NOT_ALLOWED"
	RoleNotAuthorized     = "ROLE_NOT_AUTHORIZED"
	JustificationRequired = "JUSTIFICATION_REQUIRED"
)

// OverrideError rejects an override request with a protocol code.
type OverrideError struct {
	Code    string
	Message string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
