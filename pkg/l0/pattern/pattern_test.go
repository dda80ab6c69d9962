package pattern

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

var t0 = time.Unix(1000, 0)

func TestLCGSequence(t *testing.T) {
	g := NewLCG(DefaultSeed)
	expect := []float64{
		0.416107177734375,
		0.10302734375,
		-0.204254150390625,
		0.0887451171875,
		-0.46197509765625,
	}
	for n, v := range expect {
		require.Equal(t, v, g.Next(), "sample %d", n)
	}
}

func TestLCGRange(t *testing.T) {
	g := NewLCG(1)
	for i := 0; i < 10000; i++ {
		v := g.Next()
		require.True(t, v >= -0.5 && v < 0.5, "value %v", v)
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("Circular")
	require.NoError(t, err)
	require.Equal(t, Circular, id)
	id, err = ParseID("3")
	require.NoError(t, err)
	require.Equal(t, RandomWalk, id)
	_, err = ParseID("4")
	require.True(t, errors.Is(err, ErrUnknownPattern))
	_, err = ParseID("zigzag")
	require.True(t, errors.Is(err, ErrUnknownPattern))
}

func TestSineAtArm(t *testing.T) {
	base := axis.Vector{1, 2, 3, 4}
	g := New(DefaultConfig())
	g.Enable(true, t0, base)
	require.True(t, g.Enabled())
	require.Equal(t, base, g.Base())

	pos := g.Update(t0)
	require.Equal(t, base[axis.X], pos[axis.X])
	require.Equal(t, base[axis.Z], pos[axis.Z])
	require.Equal(t, base[axis.A], pos[axis.A])
	require.NotEqual(t, base[axis.Y], pos[axis.Y])
	require.Equal(t, base[axis.Y]+3.0*math.Sin(1.57), pos[axis.Y])
}

func TestOffsets(t *testing.T) {
	testCases := []struct {
		name   string
		id     ID
		t      float64
		expect axis.Vector
	}{
		{"sine 2s", SineWave, 2, axis.Vector{5 * math.Sin(1.0), 3 * math.Sin(1.4+1.57), 2 * math.Sin(0.6), 45 * math.Sin(0.4)}},
		{"circle 0s", Circular, 0, axis.Vector{10, 0, 0, 0}},
		{"circle 10s", Circular, 10, axis.Vector{10 * math.Cos(3), 10 * math.Sin(3), math.Sin(1), 50}},
		{"ramp 4s", LinearRamp, 4, axis.Vector{8, 6, 2, 40}},
		{"walk", RandomWalk, 4, axis.Vector{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, a := range axis.All {
				assert.InDelta(t, tc.expect[a], Offset(tc.id, a, tc.t), 1e-12, "axis %s", a)
			}
		})
	}
}

func TestRampFromBase(t *testing.T) {
	base := axis.Vector{10, 20, 30, 40}
	g := New(DefaultConfig())
	require.NoError(t, g.SetPattern(LinearRamp, t0, axis.Vector{}))
	g.Enable(true, t0, base)
	pos := g.Update(t0.Add(2 * time.Second))
	require.Equal(t, axis.Vector{14, 23, 31, 60}, pos)
}

func TestRearm(t *testing.T) {
	g := New(DefaultConfig())
	require.NoError(t, g.SetPattern(LinearRamp, t0, axis.Vector{}))
	g.Enable(true, t0, axis.Vector{})
	later := t0.Add(time.Second)
	pos := g.Update(later)
	require.Equal(t, axis.Vector{2, 1.5, 0.5, 10}, pos)

	g.Enable(true, later, pos)
	require.Equal(t, pos, g.Base())
	require.Equal(t, pos, g.Update(later))

	require.NoError(t, g.SetPattern(LinearRamp, later.Add(time.Second), axis.Vector{7}))
	require.Equal(t, axis.Vector{7}, g.Base())

	g.Enable(false, later, axis.Vector{})
	require.False(t, g.Enabled())
	require.NoError(t, g.SetPattern(Circular, later, axis.Vector{100}))
	require.Equal(t, Circular, g.Pattern())
	require.Equal(t, axis.Vector{7}, g.Base())

	require.True(t, errors.Is(g.SetPattern(ID(9), later, axis.Vector{}), ErrUnknownPattern))
	require.Equal(t, Circular, g.Pattern())
}

func runWalk(base axis.Vector, steps int) []axis.Vector {
	g := New(DefaultConfig())
	if err := g.SetPattern(RandomWalk, t0, base); err != nil {
		panic(err)
	}
	g.Enable(true, t0, base)
	var out []axis.Vector
	for i := 1; i <= steps; i++ {
		out = append(out, g.Update(t0.Add(time.Duration(i)*10*time.Millisecond)))
	}
	return out
}

func TestRandomWalkDeterministic(t *testing.T) {
	base := axis.Vector{1, 2, 3, 4}
	first := runWalk(base, 100)
	second := runWalk(base, 100)
	require.Equal(t, first, second)

	// one step per 50ms: unchanged for the first 4 samples.
	for i := 0; i < 4; i++ {
		require.Equal(t, base, first[i])
	}
	expect := axis.Vector{
		1 + 0.416107177734375*0.02,
		2 + 0.10302734375*0.02,
		3 + -0.204254150390625*0.01,
		4 + 0.0887451171875*0.1,
	}
	for _, a := range axis.All {
		assert.InDelta(t, expect[a], first[4][a], 1e-12, "axis %s", a)
	}
	require.Equal(t, first[4], first[8])
	require.NotEqual(t, first[4], first[9])
}

func TestRandomWalkAccumulates(t *testing.T) {
	g := New(DefaultConfig())
	g.Rand = constRand(0.25)
	require.NoError(t, g.SetPattern(RandomWalk, t0, axis.Vector{}))
	g.Enable(true, t0, axis.Vector{})
	var pos axis.Vector
	for i := 1; i <= 10; i++ {
		pos = g.Update(t0.Add(time.Duration(i) * 50 * time.Millisecond))
	}
	assert.InDelta(t, 10*0.25*0.02, pos[axis.X], 1e-12)
	assert.InDelta(t, 10*0.25*0.1, pos[axis.A], 1e-12)
}

type constRand float64

func (r constRand) Next() float64 { return float64(r) }
