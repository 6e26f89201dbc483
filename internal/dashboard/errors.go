package dashboard

import (
	"errors"
	"fmt"

	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("order item not found")
	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrConcurrencyConflict = errors.New("order item was modified concurrently")
)

// TransitionError describes a rejected status edge.
type TransitionError struct {
	From itemstatus.Status
	To   itemstatus.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// IsRetryable reports whether the caller may re-fetch and decide again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
