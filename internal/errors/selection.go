package errors

import "errors"

// SelectionCancelledError represents a user-driven cancel of the
// candidate-selection step (e.g. esc/q in the TUI).
type SelectionCancelledError struct {
	Reason string
}

func (e *SelectionCancelledError) Error() string {
	return e.Reason
}

// NewSelectionCancelledError creates a SelectionCancelledError with the
// provided reason.
func NewSelectionCancelledError(reason string) *SelectionCancelledError {
	return &SelectionCancelledError{Reason: reason}
}

// IsSelectionCancelled reports whether err is a SelectionCancelledError
// (even when wrapped).
func IsSelectionCancelled(err error) bool {
	var cancelErr *SelectionCancelledError
	return errors.As(err, &cancelErr)
}
