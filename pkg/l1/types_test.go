package l1

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseControllerRef(t *testing.T) {
	cases := []struct {
		in    string
		ref   ControllerRef
		valid bool
	}{
		{"dro/bench", ControllerRef{Type: "dro", ID: "bench"}, true},
		{"lathe", ControllerRef{Type: "dro", ID: "lathe"}, true},
		{"dro/", ControllerRef{}, false},
		{"a/b/c", ControllerRef{}, false},
		{"", ControllerRef{}, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			ref, err := ParseControllerRef(c.in, "dro")
			if !c.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.ref, ref)
		})
	}
}

func TestControllerRefFlag(t *testing.T) {
	ref := ControllerRef{Type: "dro"}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&ref, "dro", "")
	require.NoError(t, fs.Parse([]string{"-dro", "mill"}))
	assert.Equal(t, "dro/mill", ref.String())
	require.NoError(t, fs.Parse([]string{"-dro", "other/lathe"}))
	assert.Equal(t, ControllerRef{Type: "other", ID: "lathe"}, ref)
}

func TestLabelString(t *testing.T) {
	meta := ControllerMeta{Labels: map[string]string{"unit.X": "mm", "profile": "bench"}}
	assert.Equal(t, "profile=bench,unit.X=mm", meta.LabelString())
	assert.Empty(t, ControllerMeta{}.LabelString())
}
