package schema

import "fmt"

// ValidationError rejects a single receipt. It is recoverable: callers report
// it and move on to the next receipt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid receipt: %s", e.Reason)
	}
	return fmt.Sprintf("invalid receipt: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
