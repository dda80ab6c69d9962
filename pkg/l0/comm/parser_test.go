package comm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

func TestParser(t *testing.T) {
	scale := SetScale(axis.X, 0.5).Bytes()
	testCases := []struct {
		name    string
		in      []byte
		expect  []Command
		skipped int
		dropped int
	}{
		{"empty", nil, nil, 0, 0},
		{"single", []byte{0x01}, []Command{GetPosition()}, 0, 0},
		{"mixed lengths", []byte{0x01, 0x05, 0x02}, []Command{GetPosition(), ResetEncoder(axis.Z)}, 0, 0},
		{"unknown skipped", []byte{0x00, 0x06, 0xff, 0x04}, []Command{GetScale()}, 3, 0},
		{"truncated set scale", append([]byte{0x01}, scale[:5]...), []Command{GetPosition()}, 0, 5},
		{"truncated operand byte", []byte{0x04, 0x02}, []Command{GetScale()}, 0, 1},
		{"set scale then get", append(append([]byte{}, scale...), 0x04), []Command{SetScale(axis.X, 0.5), GetScale()}, 0, 0},
		{"operand looks like opcode", []byte{0x02, 0x01, 0x01}, []Command{SetTestMode(1), GetPosition()}, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParser(tc.in)
			var cmds []Command
			for {
				cmd, ok := p.Next()
				if !ok {
					break
				}
				cmds = append(cmds, cmd)
			}
			require.Equal(t, tc.expect, cmds)
			require.Equal(t, tc.skipped, p.Skipped)
			require.Equal(t, tc.dropped, p.Dropped)
			require.Equal(t, 0, p.Remaining())
			_, ok := p.Next()
			require.False(t, ok)
		})
	}
}

func TestParserOperandBounded(t *testing.T) {
	buf := []byte{0x05, 0x01, 0x01}
	cmds := ParseAll(buf[:2])
	require.Len(t, cmds, 1)
	require.Equal(t, 1, cap(cmds[0].Operand))
}
