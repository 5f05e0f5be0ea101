package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound indicates no element matched the selector.
	ErrElementNotFound = errors.New("element not found")

	// ErrStaleElement indicates the element was detached from the document
	// between resolution and use.
	ErrStaleElement = errors.New("stale element reference")

	// ErrTimeout indicates a driver-level operation exceeded its deadline.
	ErrTimeout = errors.New("operation timeout")

	// ErrSessionClosed indicates the session's browser resources are gone.
	ErrSessionClosed = errors.New("browser session closed")
)

// Error wraps a failure from the underlying automation layer with the
// operation and selector it occurred on.
type Error struct {
	Op       string
	Selector string
	Err      error
}

func (e *Error) Error() string {
	if e.Selector != "" {
		return fmt.Sprintf("driver %s %q: %v", e.Op, e.Selector, e.Err)
	}
	return fmt.Sprintf("driver %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with operation context.
func NewError(op, selector string, err error) *Error {
	return &Error{Op: op, Selector: selector, Err: err}
}

// IsNotFound reports whether err indicates a missing element.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrElementNotFound)
}

// IsStale reports whether err indicates a stale element reference.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleElement)
}

// IsTimeout reports whether err indicates a driver-level timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
