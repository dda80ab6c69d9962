package comm

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// InputDiscarder discards pending input of a transport.
type InputDiscarder interface {
	DiscardInput() error
}

type readDeadliner interface {
	SetReadDeadline(time.Time) error
}

// DefaultDrainTimeout is how long the client waits for stale input
// after a bad frame.
const DefaultDrainTimeout = 50 * time.Millisecond

// Client is the host side of the protocol.
type Client struct {
	Conn         io.ReadWriter
	DrainTimeout time.Duration

	lock sync.Mutex
}

// NewClient creates a client over a transport.
func NewClient(conn io.ReadWriter) *Client {
	return &Client{Conn: conn, DrainTimeout: DefaultDrainTimeout}
}

// Do sends commands batched into as few requests as possible and
// returns the response frames in command order. A frame with an
// unexpected sentinel fails the call with *UnexpectedFrameError. Any
// read failure drains stale input so a late frame can't answer the
// next query.
func (c *Client) Do(cmds ...Command) ([]Frame, error) {
	reqs, err := Batch(cmds...)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	var frames []Frame
	for _, req := range reqs {
		n, err := c.Conn.Write(req)
		if err != nil {
			return frames, err
		}
		if n != len(req) {
			return frames, fmt.Errorf("%w: request %d/%d bytes", ErrTransmissionFailed, n, len(req))
		}
		for _, cmd := range ParseAll(req) {
			expected, ok := cmd.Op.Reply()
			if !ok {
				continue
			}
			f, err := ReadFrame(c.Conn)
			if err != nil {
				c.drain()
				return frames, err
			}
			if f.Sentinel != expected {
				c.drain()
				return frames, &UnexpectedFrameError{Expected: expected, Got: f.Sentinel}
			}
			frames = append(frames, f)
		}
	}
	return frames, nil
}

func (c *Client) query(cmd Command) (axis.Vector, error) {
	frames, err := c.Do(cmd)
	if err != nil {
		return axis.Vector{}, err
	}
	return frames[0].Values, nil
}

// Positions queries all positions.
func (c *Client) Positions() (axis.Vector, error) {
	return c.query(GetPosition())
}

// Scales queries all scale factors.
func (c *Client) Scales() (axis.Vector, error) {
	return c.query(GetScale())
}

// SetScale sets the scale factor of an axis.
func (c *Client) SetScale(a axis.Axis, scale float64) error {
	if err := a.Check(); err != nil {
		return err
	}
	_, err := c.Do(SetScale(a, scale))
	return err
}

// ResetAxis zeroes an axis.
func (c *Client) ResetAxis(a axis.Axis) error {
	if err := a.Check(); err != nil {
		return err
	}
	_, err := c.Do(ResetEncoder(a))
	return err
}

// SetTestMode sends SET_TEST_MODE.
func (c *Client) SetTestMode(mode byte) error {
	_, err := c.Do(SetTestMode(mode))
	return err
}

func (c *Client) drain() {
	switch conn := c.Conn.(type) {
	case InputDiscarder:
		if err := conn.DiscardInput(); err != nil {
			glog.Warningf("drain: %v", err)
		}
	case readDeadliner:
		buf := make([]byte, 256)
		for {
			conn.SetReadDeadline(time.Now().Add(c.DrainTimeout))
			n, err := c.Conn.Read(buf)
			if err != nil || n == 0 {
				break
			}
			glog.V(2).Infof("drained %d bytes", n)
		}
		conn.SetReadDeadline(time.Time{})
	}
}
