package encoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

func TestTrackerWrap(t *testing.T) {
	testCases := []struct {
		name   string
		old    int32
		new    int32
		expect int64
	}{
		{"positive wrap", 2000000000, -2000000000, Wrap - 2000000000},
		{"negative wrap", -2000000000, 2000000000, 2000000000 - Wrap},
		{"no wrap forward", 100, 250, 250},
		{"no wrap backward", 100, -250, -250},
		{"sign change near zero", 5, -5, -5},
		{"max to min", 2147483647, -2147483648, 2147483648},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := NewTracker(DefaultThreshold)
			require.NoError(t, err)
			tr.Prime(axis.X, tc.old)
			before := tr.Get(axis.X)
			require.Equal(t, int64(tc.old), before)
			require.Equal(t, tc.expect, tr.Update(axis.X, tc.new))
			require.Equal(t, tc.expect, tr.Get(axis.X))
		})
	}
}

func TestTrackerPositiveWrapDelta(t *testing.T) {
	tr, err := NewTracker(DefaultThreshold)
	require.NoError(t, err)
	old, new := int32(2000000000), int32(-2000000000)
	tr.Prime(axis.Y, old)
	before := tr.Get(axis.Y)
	after := tr.Update(axis.Y, new)
	require.Equal(t, Wrap+(int64(new)-int64(old)), after-before)
}

func TestTrackerFollowsTrueCount(t *testing.T) {
	for _, step := range []int64{100000000, -100000000, 999999937, -999999937} {
		tr, err := NewTracker(DefaultThreshold)
		require.NoError(t, err)
		truth := int64(2100000000)
		tr.Prime(axis.Z, int32(truth))
		for i := 0; i < 200; i++ {
			truth += step
			require.Equal(t, truth, tr.Update(axis.Z, int32(truth)), "step %d iteration %d", step, i)
		}
	}
}

func TestTrackerAxesIndependent(t *testing.T) {
	tr, err := NewTracker(DefaultThreshold)
	require.NoError(t, err)
	tr.Prime(axis.X, 2000000000)
	tr.Update(axis.X, -2000000000)
	tr.Update(axis.A, 42)
	require.Equal(t, int64(42), tr.Get(axis.A))
	require.Equal(t, int64(0), tr.Get(axis.Y))
	require.Equal(t, Wrap-2000000000, tr.Get(axis.X))
}

func TestCheckThreshold(t *testing.T) {
	require.NoError(t, CheckThreshold(DefaultThreshold, 0))
	require.NoError(t, CheckThreshold(DefaultThreshold, 1000000))
	require.True(t, errors.Is(CheckThreshold(0, 0), ErrBadThreshold))
	require.True(t, errors.Is(CheckThreshold(-5, 0), ErrBadThreshold))
	require.True(t, errors.Is(CheckThreshold(1000, 1000), ErrBadThreshold))
	require.True(t, errors.Is(CheckThreshold(2000000000, 200000000), ErrBadThreshold))

	_, err := NewTracker(0)
	require.Error(t, err)
}
