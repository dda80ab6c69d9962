package position

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/pattern"
)

var errGlitch = errors.New("glitch")

type fakeCounter struct {
	counts [axis.NumAxes]int64
	fail   [axis.NumAxes]bool
}

func (c *fakeCounter) Count(a axis.Axis) (int64, error) {
	if c.fail[a] {
		return c.counts[a], errGlitch
	}
	return c.counts[a], nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Time() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore() (*Store, *fakeCounter, *fakeClock) {
	counter := &fakeCounter{}
	clock := &fakeClock{now: time.Unix(5000, 0)}
	s := NewStore(NewCalibration(counter), pattern.New(pattern.DefaultConfig()), clock)
	s.Init()
	return s, counter, clock
}

var _ fx.TimeSource = &fakeClock{}

func TestScaleRoundTrip(t *testing.T) {
	cal := NewCalibration(&fakeCounter{})
	for _, a := range axis.All {
		v, err := cal.Scale(a)
		require.NoError(t, err)
		require.Equal(t, 1.0, v)
	}
	for _, v := range []float64{0, -2.5, 1e-12, 0.001, math.SmallestNonzeroFloat64, 1e9} {
		for _, a := range axis.All {
			require.NoError(t, cal.SetScale(a, v))
			got, err := cal.Scale(a)
			require.NoError(t, err)
			require.Equal(t, v, got)
		}
	}
}

func TestInvalidAxisRejected(t *testing.T) {
	cal := NewCalibration(&fakeCounter{})
	before := cal.Scales()
	err := cal.SetScale(axis.Axis(4), 7)
	require.True(t, errors.Is(err, axis.ErrInvalidIndex))
	require.Equal(t, before, cal.Scales())
	_, err = cal.Scale(axis.Axis(200))
	require.True(t, errors.Is(err, axis.ErrInvalidIndex))
	require.True(t, errors.Is(cal.ResetZero(axis.Axis(4)), axis.ErrInvalidIndex))
	_, err = cal.Position(axis.Axis(4))
	require.True(t, errors.Is(err, axis.ErrInvalidIndex))
}

func TestResetZero(t *testing.T) {
	counter := &fakeCounter{counts: [axis.NumAxes]int64{1234567890123, -55, 0, 10}}
	cal := NewCalibration(counter)
	require.NoError(t, cal.SetScale(axis.X, 0.001))
	for _, a := range axis.All {
		require.NoError(t, cal.ResetZero(a))
		pos, err := cal.Position(a)
		require.NoError(t, err)
		require.Equal(t, 0.0, pos)
	}
	counter.counts[axis.X] += 2000
	pos, err := cal.Position(axis.X)
	require.NoError(t, err)
	require.Equal(t, 2.0, pos)
	zero, err := cal.ZeroOffset(axis.X)
	require.NoError(t, err)
	require.Equal(t, int64(1234567890123), zero)
}

func TestScaleNotRetroactive(t *testing.T) {
	counter := &fakeCounter{counts: [axis.NumAxes]int64{100}}
	s, _, _ := newTestStore()
	s.Calibration.Counter = counter
	pos, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 100.0, pos[axis.X])
	require.NoError(t, s.Calibration.SetScale(axis.X, 0.5))
	require.Equal(t, 100.0, s.Positions()[axis.X])
	pos, err = s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 50.0, pos[axis.X])
}

func TestStoreNotInitialized(t *testing.T) {
	s := NewStore(NewCalibration(&fakeCounter{}), pattern.New(pattern.DefaultConfig()), fx.SystemTime)
	_, err := s.Snapshot()
	require.Equal(t, ErrNotInitialized, err)
	require.Equal(t, ErrNotInitialized, s.ResetAxis(axis.X))
}

func TestStoreKeepsPositionOnReadFailure(t *testing.T) {
	s, counter, _ := newTestStore()
	counter.counts[axis.Z] = 40
	pos, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 40.0, pos[axis.Z])

	counter.counts[axis.Z] = 90
	counter.fail[axis.Z] = true
	counter.counts[axis.Y] = 3
	pos, err = s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 40.0, pos[axis.Z])
	require.Equal(t, 3.0, pos[axis.Y])
}

func TestStoreResetAxis(t *testing.T) {
	s, counter, _ := newTestStore()
	counter.counts = [axis.NumAxes]int64{5, 6, 7, 8}
	_, err := s.Snapshot()
	require.NoError(t, err)
	require.NoError(t, s.ResetAxis(axis.Z))
	require.Equal(t, axis.Vector{5, 6, 0, 8}, s.Positions())
	pos, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{5, 6, 0, 8}, pos)
	require.True(t, errors.Is(s.ResetAxis(axis.Axis(4)), axis.ErrInvalidIndex))
}

func TestTestModeLeavesCountsAlone(t *testing.T) {
	s, counter, clock := newTestStore()
	counter.counts = [axis.NumAxes]int64{10, 20, 30, 40}
	require.NoError(t, s.ResetAxis(axis.A))

	require.NoError(t, s.SetTestMode(byte(pattern.LinearRamp)+1))
	on, id := s.TestMode()
	require.True(t, on)
	require.Equal(t, pattern.LinearRamp, id)
	require.Equal(t, axis.Vector{10, 20, 30, 0}, s.Generator.Base())

	clock.advance(2 * time.Second)
	counter.counts[axis.X] = 1000
	pos, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{14, 23, 31, 20}, pos)

	require.NoError(t, s.SetTestMode(0))
	pos, err = s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{1000, 20, 30, 0}, pos)
}

func TestSetTestModeSineBase(t *testing.T) {
	s, counter, _ := newTestStore()
	counter.counts = [axis.NumAxes]int64{1, 2, 3, 4}
	require.NoError(t, s.SetTestMode(1))
	pos, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, 1.0, pos[axis.X])
	require.Equal(t, 3.0, pos[axis.Z])
	require.Equal(t, 4.0, pos[axis.A])
	require.NotEqual(t, 2.0, pos[axis.Y])
}

func TestSetTestModeUnknownPattern(t *testing.T) {
	s, _, _ := newTestStore()
	err := s.SetTestMode(9)
	require.True(t, errors.Is(err, pattern.ErrUnknownPattern))
	on, id := s.TestMode()
	require.True(t, on)
	require.Equal(t, pattern.SineWave, id)
}

func TestRearmCapturesPatternPosition(t *testing.T) {
	s, _, clock := newTestStore()
	require.NoError(t, s.SetTestMode(byte(pattern.LinearRamp)+1))
	clock.advance(time.Second)
	require.NoError(t, s.SetTestMode(byte(pattern.LinearRamp)+1))
	require.Equal(t, axis.Vector{2, 1.5, 0.5, 10}, s.Generator.Base())
	pos, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{2, 1.5, 0.5, 10}, pos)
}
