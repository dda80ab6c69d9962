package comm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Frame is a response: a sentinel and one value per axis.
type Frame struct {
	Sentinel Sentinel
	Values   axis.Vector
}

// PositionFrame creates the response of GET_POSITION.
func PositionFrame(pos axis.Vector) Frame {
	return Frame{Sentinel: SentinelPosition, Values: pos}
}

// ScaleFrame creates the response of GET_SCALE.
func ScaleFrame(scales axis.Vector) Frame {
	return Frame{Sentinel: SentinelScale, Values: scales}
}

// Bytes returns the encoded frame, always FrameSize bytes.
func (f *Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	binary.LittleEndian.PutUint32(b, uint32(f.Sentinel))
	for n, v := range f.Values {
		binary.LittleEndian.PutUint64(b[4+n*8:], math.Float64bits(v))
	}
	return b
}

// WriteTo writes the encoded frame. A short write is a transmission
// failure.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	if err == nil && n != FrameSize {
		err = fmt.Errorf("%w: %v frame %d/%d bytes", ErrTransmissionFailed, f.Sentinel, n, FrameSize)
	}
	return int64(n), err
}

// DecodeFrame decodes the first FrameSize bytes of b.
func DecodeFrame(b []byte) (f Frame, err error) {
	if len(b) < FrameSize {
		return f, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(b))
	}
	f.Sentinel = Sentinel(binary.LittleEndian.Uint32(b))
	for n := range f.Values {
		f.Values[n] = math.Float64frombits(binary.LittleEndian.Uint64(b[4+n*8:]))
	}
	return f, nil
}

// ReadFrame reads exactly one frame.
func ReadFrame(r io.Reader) (Frame, error) {
	var buf [FrameSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err == io.ErrUnexpectedEOF {
		err = fmt.Errorf("%w: %d bytes", ErrShortFrame, n)
	}
	if err != nil {
		return Frame{}, err
	}
	return DecodeFrame(buf[:])
}
