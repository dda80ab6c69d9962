package encoder

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

var errReadGlitch = errors.New("read glitch")

type fakeSource struct {
	raw      [axis.NumAxes]int32
	failRead [axis.NumAxes]bool
	reads    int
}

func (s *fakeSource) Claim(a axis.Axis) error { return a.Check() }

func (s *fakeSource) Read(a axis.Axis) (int32, error) {
	s.reads++
	if s.failRead[a] {
		return 0, errReadGlitch
	}
	return s.raw[a], nil
}

func newTestEncoder(t *testing.T, src Source) *Encoder {
	enc, err := New(src, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, enc.Init())
	return enc
}

func TestEncoderNotInitialized(t *testing.T) {
	enc, err := New(&fakeSource{}, DefaultConfig())
	require.NoError(t, err)
	_, err = enc.Count(axis.X)
	require.Equal(t, ErrNotInitialized, err)
	_, err = enc.Count(axis.Axis(7))
	require.True(t, errors.Is(err, axis.ErrInvalidIndex))
}

func TestEncoderRejectsBadConfig(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxStepRate = 2000000000000
	_, err := New(&fakeSource{}, conf)
	require.True(t, errors.Is(err, ErrBadThreshold))
}

func TestEncoderPrimesFromSource(t *testing.T) {
	src := &fakeSource{raw: [axis.NumAxes]int32{10, -20, 30, 2000000000}}
	enc := newTestEncoder(t, src)
	for n, a := range axis.All {
		cnt, err := enc.Count(a)
		require.NoError(t, err)
		require.Equal(t, int64(src.raw[n]), cnt)
	}
	src.raw[axis.A] = -2000000000
	enc.Refresh()
	cnt, err := enc.Count(axis.A)
	require.NoError(t, err)
	require.Equal(t, Wrap-2000000000, cnt)
}

func TestEncoderReadFailureKeepsCount(t *testing.T) {
	src := &fakeSource{}
	enc := newTestEncoder(t, src)
	src.raw[axis.Y] = 500
	enc.Refresh()
	src.raw[axis.Y] = 900
	src.failRead[axis.Y] = true
	enc.Refresh()
	cnt, err := enc.Count(axis.Y)
	require.Equal(t, errReadGlitch, err)
	require.Equal(t, int64(500), cnt)

	src.failRead[axis.Y] = false
	enc.Refresh()
	cnt, err = enc.Count(axis.Y)
	require.NoError(t, err)
	require.Equal(t, int64(900), cnt)
}

func TestEncoderCheckThrottled(t *testing.T) {
	src := &fakeSource{}
	enc := newTestEncoder(t, src)
	base := time.Unix(100, 0)
	src.reads = 0
	enc.Check(base)
	require.Equal(t, axis.NumAxes, src.reads)
	enc.Check(base.Add(DefaultCheckInterval / 2))
	require.Equal(t, axis.NumAxes, src.reads)
	enc.Check(base.Add(DefaultCheckInterval))
	require.Equal(t, 2*axis.NumAxes, src.reads)
}

func TestEncoderDegradedInit(t *testing.T) {
	counters := NewCounters(3)
	enc, err := New(counters, DefaultConfig())
	require.NoError(t, err)
	err = enc.Init()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrHardwareUnavailable))
	var initErr *InitError
	require.True(t, errors.As(err, &initErr))
	require.Equal(t, []axis.Axis{axis.A}, initErr.Unavailable)
	require.True(t, initErr.Degraded())

	require.True(t, enc.Available(axis.X))
	require.False(t, enc.Available(axis.A))
	_, err = enc.Count(axis.A)
	require.True(t, errors.Is(err, ErrHardwareUnavailable))
	_, err = enc.Count(axis.Z)
	require.NoError(t, err)
}

func TestCountersClaimIdempotent(t *testing.T) {
	counters := NewCounters(1)
	require.NoError(t, counters.Claim(axis.X))
	require.NoError(t, counters.Claim(axis.X))
	require.True(t, errors.Is(counters.Claim(axis.Y), ErrHardwareUnavailable))
	_, err := counters.Read(axis.Y)
	require.True(t, errors.Is(err, ErrHardwareUnavailable))
}

func TestCountersConcurrentWriter(t *testing.T) {
	counters := NewCounters(axis.NumAxes)
	enc, err := New(counters, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, enc.Init())

	sim := NewSimulator(counters, axis.Vector{})
	sim.Preset([axis.NumAxes]int32{2147480000, 0, -2147480000, 0})
	enc.Refresh()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := counters.Writer(axis.X)
		v := counters.Writer(axis.Z)
		for i := 0; i < 10000; i++ {
			w.Advance(1)
			v.Advance(-1)
		}
	}()
	for i := 0; i < 1000; i++ {
		enc.Refresh()
	}
	wg.Wait()
	enc.Refresh()

	x, err := enc.Count(axis.X)
	require.NoError(t, err)
	assert.Equal(t, int64(2147480000+10000), x)
	z, err := enc.Count(axis.Z)
	require.NoError(t, err)
	assert.Equal(t, int64(-2147480000-10000), z)
}

func TestSimulatorStep(t *testing.T) {
	counters := NewCounters(axis.NumAxes)
	require.NoError(t, counters.Claim(axis.X))
	require.NoError(t, counters.Claim(axis.Y))
	sim := NewSimulator(counters, axis.Vector{1000, -0.5})
	sim.Step(10 * time.Millisecond)
	sim.Step(10 * time.Millisecond)
	x, err := counters.Read(axis.X)
	require.NoError(t, err)
	require.Equal(t, int32(20), x)
	for i := 0; i < 200; i++ {
		sim.Step(10 * time.Millisecond)
	}
	y, err := counters.Read(axis.Y)
	require.NoError(t, err)
	require.Equal(t, int32(-1), y)
}

func TestSimulatorStepClamped(t *testing.T) {
	counters := NewCounters(axis.NumAxes)
	for _, a := range []axis.Axis{axis.X, axis.Y, axis.Z} {
		require.NoError(t, counters.Claim(a))
	}
	sim := NewSimulator(counters, axis.Vector{1e12, -1e12, math.NaN()})
	sim.Step(10 * time.Millisecond)
	x, err := counters.Read(axis.X)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), x)
	y, err := counters.Read(axis.Y)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), y)
	z, err := counters.Read(axis.Z)
	require.NoError(t, err)
	assert.Equal(t, int32(0), z)
}
