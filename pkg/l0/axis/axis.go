// Package axis defines the fixed set of DRO axes.
package axis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Axis identifies one logical channel of the readout.
type Axis uint8

// NumAxes is the number of axes, fixed at build time.
const NumAxes = 4

// Axes
const (
	X Axis = iota
	Y
	Z
	A
)

var (
	// ErrInvalidIndex indicates an axis index out of range.
	ErrInvalidIndex = errors.New("invalid axis index")

	names = [NumAxes]string{"x", "y", "z", "a"}
)

// All lists all axes in index order.
var All = [NumAxes]Axis{X, Y, Z, A}

// IsValid checks the axis is within range.
func (a Axis) IsValid() bool {
	return a < NumAxes
}

// Check returns ErrInvalidIndex for out of range axes.
func (a Axis) Check() error {
	if !a.IsValid() {
		return fmt.Errorf("axis %d: %w", a, ErrInvalidIndex)
	}
	return nil
}

// String implements Stringer.
func (a Axis) String() string {
	if a.IsValid() {
		return strings.ToUpper(names[a])
	}
	return "axis(" + strconv.Itoa(int(a)) + ")"
}

// Parse accepts an axis name (x/y/z/a, any case) or an index.
func Parse(s string) (Axis, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for n, name := range names {
		if s == name {
			return Axis(n), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("axis %q: %w", s, ErrInvalidIndex)
	}
	a := Axis(n)
	return a, a.Check()
}

// Vector holds one float value per axis.
type Vector [NumAxes]float64
