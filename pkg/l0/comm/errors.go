package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates no host is attached to the device task.
	ErrNotReady = errors.New("not ready")
	// ErrTransmissionFailed indicates a response was only partially written.
	ErrTransmissionFailed = errors.New("transmission failed")
	// ErrShortFrame indicates fewer than FrameSize bytes for a frame.
	ErrShortFrame = errors.New("short frame")
	// ErrBadSentinel indicates a frame doesn't start with the expected sentinel.
	ErrBadSentinel = errors.New("bad sentinel")
	// ErrRequestTooLarge indicates a single command doesn't fit a request.
	ErrRequestTooLarge = errors.New("request too large")
)

// UnexpectedFrameError reports a frame with a sentinel other than the
// one the command expects.
type UnexpectedFrameError struct {
	Expected Sentinel
	Got      Sentinel
}

// Error implements error.
func (e *UnexpectedFrameError) Error() string {
	return fmt.Sprintf("%v: expect %v, got %v", ErrBadSentinel, e.Expected, e.Got)
}

// Unwrap makes errors.Is(err, ErrBadSentinel) work.
func (e *UnexpectedFrameError) Unwrap() error {
	return ErrBadSentinel
}
