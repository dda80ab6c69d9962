package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

func TestParseVelocity(t *testing.T) {
	v, err := parseVelocity("100, -2.5,0,1e3")
	require.NoError(t, err)
	assert.Equal(t, axis.Vector{100, -2.5, 0, 1000}, v)

	v, err = parseVelocity("")
	require.NoError(t, err)
	assert.Equal(t, axis.Vector{}, v)

	for _, s := range []string{"1,2,3", "1,2,3,x", "1,2,3,NaN", "1,+Inf,3,4"} {
		_, err := parseVelocity(s)
		assert.Error(t, err, s)
	}
}
