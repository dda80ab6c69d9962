package dro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/comm"
	"github.com/robotalks/dro.go/pkg/l0/pattern"
)

const benchMill = `
name: bench-mill
test_mode: ramp
axes:
  a: {label: Rotary, unit: deg, scale: 0.1}
  X: {label: Table, unit: mm, scale: 0.005}
  y: {unit: mm}
`

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(benchMill))
	require.NoError(t, err)
	require.Equal(t, "bench-mill", p.Name)

	cmds, err := p.Commands()
	require.NoError(t, err)
	require.Equal(t, []comm.Command{
		comm.SetScale(axis.X, 0.005),
		comm.SetScale(axis.A, 0.1),
		comm.SetTestMode(byte(pattern.LinearRamp) + 1),
	}, cmds)
	reqs, err := comm.Batch(cmds...)
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	ap, ok := p.Axis(axis.A)
	require.True(t, ok)
	require.Equal(t, "Rotary", ap.Label)
	_, ok = p.Axis(axis.Z)
	require.False(t, ok)

	require.Equal(t, map[string]string{
		"profile": "bench-mill",
		"unit.X":  "mm",
		"unit.Y":  "mm",
		"unit.A":  "deg",
	}, p.Labels())
}

func TestParseProfileErrors(t *testing.T) {
	for _, doc := range []string{
		"axes:\n  w: {scale: 1}\n",
		"axes:\n  x: {scale: 1}\n  X: {scale: 2}\n",
		"test_mode: spiral\n",
		"axes: [1, 2]\n",
	} {
		_, err := ParseProfile([]byte(doc))
		require.Error(t, err, doc)
	}
}
