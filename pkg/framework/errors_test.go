package framework

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())

	errA, errB := errors.New("a"), errors.New("b")
	err := errs.Add(errA, nil, fmt.Errorf("wrapped: %w", errB)).Aggregate()
	require.Error(t, err)
	require.Len(t, errs.Errors, 2)
	require.Equal(t, "Multiple errors:\na\nwrapped: b", err.Error())
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
	require.False(t, errors.Is(err, errors.New("a")))
}
