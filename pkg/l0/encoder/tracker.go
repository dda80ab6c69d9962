package encoder

import (
	"fmt"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

const (
	// Wrap is the span of the raw 32-bit counter.
	Wrap int64 = 1 << 32
	// HalfRange is half of the raw counter span.
	HalfRange int64 = 1 << 31
	// DefaultThreshold is the default wrap detection threshold.
	DefaultThreshold int32 = 0x40000000
)

// CheckThreshold verifies maxDelta < threshold < 2^31 and that a wrap
// is still observed across the threshold: maxDelta < 2^31 - threshold.
// maxDelta is the largest count change possible between two updates,
// 0 if unknown.
func CheckThreshold(threshold int32, maxDelta int64) error {
	if threshold <= 0 {
		return fmt.Errorf("%w: %d must be positive", ErrBadThreshold, threshold)
	}
	if maxDelta < 0 {
		maxDelta = -maxDelta
	}
	if maxDelta >= int64(threshold) {
		return fmt.Errorf("%w: max delta %d reaches threshold %d", ErrBadThreshold, maxDelta, threshold)
	}
	if maxDelta >= HalfRange-int64(threshold) {
		return fmt.Errorf("%w: max delta %d skips the band above threshold %d", ErrBadThreshold, maxDelta, threshold)
	}
	return nil
}

// Tracker extends raw counts into logical counts.
type Tracker struct {
	threshold int32
	lastRaw   [axis.NumAxes]int32
	high      [axis.NumAxes]int64
	logical   [axis.NumAxes]int64
}

// NewTracker creates a Tracker.
func NewTracker(threshold int32) (*Tracker, error) {
	if err := CheckThreshold(threshold, 0); err != nil {
		return nil, err
	}
	return &Tracker{threshold: threshold}, nil
}

// Threshold returns the configured threshold.
func (t *Tracker) Threshold() int32 {
	return t.threshold
}

// Prime sets the starting raw value of an axis without counting a wrap.
func (t *Tracker) Prime(a axis.Axis, raw int32) {
	t.lastRaw[a] = raw
	t.logical[a] = t.high[a] + int64(raw)
}

// Update consumes the latest raw count and returns the logical count.
// The axis must be valid.
func (t *Tracker) Update(a axis.Axis, raw int32) int64 {
	old := t.lastRaw[a]
	switch {
	case old > t.threshold && raw < -t.threshold:
		t.high[a] += Wrap
	case old < -t.threshold && raw > t.threshold:
		t.high[a] -= Wrap
	}
	t.lastRaw[a] = raw
	t.logical[a] = t.high[a] + int64(raw)
	return t.logical[a]
}

// Get returns the logical count without consuming input.
func (t *Tracker) Get(a axis.Axis) int64 {
	return t.logical[a]
}
