// Package position maps logical counts to calibrated positions.
package position

import (
	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Counter provides logical counts per axis.
type Counter interface {
	Count(axis.Axis) (int64, error)
}

// Calibration holds the zero offset and scale factor of every axis.
// Position = (LogicalCount - ZeroOffset) * ScaleFactor.
type Calibration struct {
	Counter Counter

	zero  [axis.NumAxes]int64
	scale axis.Vector
}

// NewCalibration creates a Calibration with all scales 1.0.
func NewCalibration(counter Counter) *Calibration {
	c := &Calibration{Counter: counter}
	for _, a := range axis.All {
		c.scale[a] = 1.0
	}
	return c
}

// SetScale sets the scale factor of an axis. It only affects positions
// computed afterwards.
func (c *Calibration) SetScale(a axis.Axis, scale float64) error {
	if err := a.Check(); err != nil {
		return err
	}
	c.scale[a] = scale
	return nil
}

// Scale gets the scale factor of an axis.
func (c *Calibration) Scale(a axis.Axis) (float64, error) {
	if err := a.Check(); err != nil {
		return 0, err
	}
	return c.scale[a], nil
}

// Scales returns all scale factors.
func (c *Calibration) Scales() axis.Vector {
	return c.scale
}

// ZeroOffset returns the zero offset of an axis.
func (c *Calibration) ZeroOffset(a axis.Axis) (int64, error) {
	if err := a.Check(); err != nil {
		return 0, err
	}
	return c.zero[a], nil
}

// ResetZero makes the current logical count of an axis its zero.
// Nothing changes if the count can't be obtained.
func (c *Calibration) ResetZero(a axis.Axis) error {
	if err := a.Check(); err != nil {
		return err
	}
	cnt, err := c.Counter.Count(a)
	if err != nil {
		return err
	}
	c.zero[a] = cnt
	return nil
}

// Position computes the calibrated position of an axis.
func (c *Calibration) Position(a axis.Axis) (float64, error) {
	if err := a.Check(); err != nil {
		return 0, err
	}
	cnt, err := c.Counter.Count(a)
	if err != nil {
		return 0, err
	}
	return float64(cnt-c.zero[a]) * c.scale[a], nil
}
