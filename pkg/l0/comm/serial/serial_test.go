package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type fakePort struct {
	serial.Port

	pending  [][]byte
	timeouts []time.Duration
	resets   int
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		return 0, nil
	}
	n := copy(b, p.pending[0])
	p.pending = p.pending[1:]
	return n, nil
}

func (p *fakePort) SetReadTimeout(d time.Duration) error {
	p.timeouts = append(p.timeouts, d)
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.resets++
	return nil
}

func TestReadTimeout(t *testing.T) {
	fake := &fakePort{pending: [][]byte{{1, 2}}}
	p := &Port{Port: fake}
	buf := make([]byte, 4)
	n, err := p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = p.Read(buf)
	require.Equal(t, ErrTimeout, err)
}

func TestDiscardInput(t *testing.T) {
	fake := &fakePort{pending: [][]byte{{1, 2, 3}, {4}}}
	p := &Port{Port: fake, Config: Config{ReadTimeout: time.Second, DrainSilence: 10 * time.Millisecond}}
	require.NoError(t, p.DiscardInput())
	require.Empty(t, fake.pending)
	require.Equal(t, 1, fake.resets)
	require.Equal(t, []time.Duration{10 * time.Millisecond, time.Second}, fake.timeouts)

	p.Config.ReadTimeout = 0
	require.NoError(t, p.DiscardInput())
	require.Equal(t, serial.NoTimeout, fake.timeouts[len(fake.timeouts)-1])
}
