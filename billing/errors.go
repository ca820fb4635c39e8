package billing

import "fmt"

// Error codes surfaced to API clients alongside the HTTP status.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeMissingContext  = "MISSING_CONTEXT"
)

// ValidationError reports malformed client input (out-of-range age,
// oversized act list). Raised before any engine computation begins.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", CodeValidationError, e.Field, e.Message)
}

// MissingContextError reports a referenced patient that does not exist,
// as opposed to a malformed value.
type MissingContextError struct {
	Field   string
	Message string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%s: %s: %s", CodeMissingContext, e.Field, e.Message)
}
