package encoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

var (
	// ErrNotInitialized indicates the encoder is used before Init.
	ErrNotInitialized = errors.New("encoder not initialized")
	// ErrHardwareUnavailable indicates no counting channel could be
	// acquired for an axis.
	ErrHardwareUnavailable = errors.New("hardware unavailable")
	// ErrBadThreshold indicates the overflow threshold doesn't satisfy
	// the operating precondition.
	ErrBadThreshold = errors.New("bad overflow threshold")
)

// InitError reports the axes whose channel could not be claimed.
// The encoder remains usable for the other axes.
type InitError struct {
	Unavailable []axis.Axis
	Errors      []error
}

// Error implements error.
func (e *InitError) Error() string {
	items := make([]string, len(e.Unavailable))
	for n, a := range e.Unavailable {
		items[n] = fmt.Sprintf("%s: %v", a, e.Errors[n])
	}
	return "encoder init: " + strings.Join(items, "; ")
}

// Unwrap makes errors.Is(err, ErrHardwareUnavailable) work.
func (e *InitError) Unwrap() error {
	return ErrHardwareUnavailable
}

// Degraded indicates some but not all axes are available.
func (e *InitError) Degraded() bool {
	return len(e.Unavailable) < axis.NumAxes
}
