package comm

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// misbehavingDevice answers the first request with a frame of the wrong
// type plus trailing garbage, then serves normally.
func misbehavingDevice(t *testing.T, conn net.Conn, proc *Processor) {
	buf := make([]byte, MaxRequestSize)
	first := true
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if first {
			first = false
			f := ScaleFrame(axis.Vector{})
			conn.Write(append(f.Bytes(), 1, 2, 3, 4, 5))
			continue
		}
		frames, err := proc.Process(buf[:n])
		if err != nil {
			t.Error(err)
		}
		for n := range frames {
			if _, err := frames[n].WriteTo(conn); err != nil {
				return
			}
		}
	}
}

func TestClientBadSentinel(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	target := newFakeTarget()
	target.counts = axis.Vector{5, 6, 7, 8}
	go misbehavingDevice(t, dev, NewProcessor(target))

	client := NewClient(host)
	_, err := client.Positions()
	require.True(t, errors.Is(err, ErrBadSentinel))
	var frameErr *UnexpectedFrameError
	require.True(t, errors.As(err, &frameErr))
	require.Equal(t, SentinelPosition, frameErr.Expected)
	require.Equal(t, SentinelScale, frameErr.Got)

	pos, err := client.Positions()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{5, 6, 7, 8}, pos)
}

func TestClientOperations(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	target := newFakeTarget()
	target.counts = axis.Vector{100, 200, 300, 400}
	go misbehavingDevice(t, dev, NewProcessor(target))

	client := NewClient(host)
	_, err := client.Positions()
	require.Error(t, err)

	require.NoError(t, client.SetScale(axis.X, 0.5))
	scales, err := client.Scales()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{0.5, 1, 1, 1}, scales)

	require.NoError(t, client.ResetAxis(axis.Y))
	pos, err := client.Positions()
	require.NoError(t, err)
	require.Equal(t, axis.Vector{50, 0, 300, 400}, pos)

	require.NoError(t, client.SetTestMode(2))
	_, err = client.Scales()
	require.NoError(t, err)
	require.Equal(t, byte(2), target.mode)

	require.True(t, errors.Is(client.SetScale(axis.Axis(4), 1), axis.ErrInvalidIndex))
	require.True(t, errors.Is(client.ResetAxis(axis.Axis(7)), axis.ErrInvalidIndex))
}

type shortConn struct {
	shortWriter
}

func (c *shortConn) Read(p []byte) (int, error) {
	return 0, errors.New("unexpected read")
}

func TestClientShortRequest(t *testing.T) {
	client := NewClient(&shortConn{shortWriter{n: 1}})
	_, err := client.Do(GetPosition(), GetScale())
	require.True(t, errors.Is(err, ErrTransmissionFailed))
}

// lateConn answers request N with a position frame carrying N. The
// first reply misses the read and arrives right after the timeout.
type lateConn struct {
	in      bytes.Buffer
	reqs    int
	pending []byte
}

var errReadTimeout = errors.New("read timeout")

func (c *lateConn) Write(p []byte) (int, error) {
	c.reqs++
	f := PositionFrame(axis.Vector{float64(c.reqs)})
	if c.reqs == 1 {
		c.pending = f.Bytes()
	} else {
		c.in.Write(f.Bytes())
	}
	return len(p), nil
}

func (c *lateConn) Read(p []byte) (int, error) {
	if c.pending != nil {
		c.in.Write(c.pending)
		c.pending = nil
		return 0, errReadTimeout
	}
	return c.in.Read(p)
}

func (c *lateConn) DiscardInput() error {
	c.in.Reset()
	return nil
}

func TestClientLateFrame(t *testing.T) {
	client := NewClient(&lateConn{})
	_, err := client.Positions()
	require.True(t, errors.Is(err, errReadTimeout))

	for n := 2; n <= 3; n++ {
		pos, err := client.Positions()
		require.NoError(t, err)
		require.Equal(t, float64(n), pos[axis.X])
	}
}
