package position

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/encoder"
	"github.com/robotalks/dro.go/pkg/l0/pattern"
)

// ErrNotInitialized indicates the store is used before Init.
var ErrNotInitialized = encoder.ErrNotInitialized

// Refresher pulls fresh raw counts before positions are computed.
type Refresher interface {
	Refresh()
}

// Store holds the current position vector. Positions come from the
// Calibration in normal mode and from the Generator in test mode; the
// logical counts and zero offsets are never touched by test mode.
type Store struct {
	Calibration *Calibration
	Generator   *pattern.Generator
	Clock       fx.TimeSource
	Refresher   Refresher

	positions   axis.Vector
	initialized bool
}

// NewStore creates a Store.
func NewStore(cal *Calibration, gen *pattern.Generator, clock fx.TimeSource) *Store {
	return &Store{Calibration: cal, Generator: gen, Clock: clock}
}

// Init marks the store ready once its counter is set up.
func (s *Store) Init() {
	s.initialized = true
}

// Initialized indicates Init was called.
func (s *Store) Initialized() bool {
	return s.initialized
}

// Positions returns the last computed positions without refreshing.
func (s *Store) Positions() axis.Vector {
	return s.positions
}

// Snapshot refreshes and returns the current positions. An axis whose
// count can't be read keeps its previous position.
func (s *Store) Snapshot() (axis.Vector, error) {
	if !s.initialized {
		return s.positions, ErrNotInitialized
	}
	return s.refresh(), nil
}

func (s *Store) refresh() axis.Vector {
	if s.Generator != nil && s.Generator.Enabled() {
		s.positions = s.Generator.Update(s.Clock.Time())
		return s.positions
	}
	if s.Refresher != nil {
		s.Refresher.Refresh()
	}
	for _, a := range axis.All {
		pos, err := s.Calibration.Position(a)
		if err != nil {
			glog.V(2).Infof("position %s: keep %v: %v", a, s.positions[a], err)
			continue
		}
		s.positions[a] = pos
	}
	return s.positions
}

// ResetAxis zeroes an axis at its current count.
func (s *Store) ResetAxis(a axis.Axis) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if err := a.Check(); err != nil {
		return err
	}
	if s.Refresher != nil {
		s.Refresher.Refresh()
	}
	if err := s.Calibration.ResetZero(a); err != nil {
		return err
	}
	s.positions[a] = 0
	return nil
}

// EnableTestMode switches test mode on (re-arming it) or off.
func (s *Store) EnableTestMode(on bool) {
	var current axis.Vector
	if on {
		current = s.refresh()
	}
	s.Generator.Enable(on, s.Clock.Time(), current)
}

// SetTestPattern selects a pattern, re-arming it if test mode is on.
func (s *Store) SetTestPattern(id pattern.ID) error {
	return s.Generator.SetPattern(id, s.Clock.Time(), s.refresh())
}

// SetTestMode applies the SET_TEST_MODE byte: 0 turns test mode off,
// n > 0 turns it on with pattern n-1. An unknown pattern still turns
// test mode on with the previous pattern and the error is returned.
func (s *Store) SetTestMode(mode byte) error {
	if mode == 0 {
		s.EnableTestMode(false)
		return nil
	}
	current, now := s.refresh(), s.Clock.Time()
	err := s.Generator.SetPattern(pattern.ID(mode-1), now, current)
	s.Generator.Enable(true, now, current)
	return err
}

// TestMode reports whether test mode is on and the selected pattern.
func (s *Store) TestMode() (bool, pattern.ID) {
	return s.Generator.Enabled(), s.Generator.Pattern()
}
