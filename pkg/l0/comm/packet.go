package comm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Opcode is the first byte of a command.
type Opcode byte

// Opcodes
const (
	OpGetPosition  Opcode = 0x01
	OpSetTestMode  Opcode = 0x02
	OpSetScale     Opcode = 0x03
	OpGetScale     Opcode = 0x04
	OpResetEncoder Opcode = 0x05
)

// Sentinel is the magic number leading a response frame.
type Sentinel uint32

// Sentinels
const (
	SentinelPosition Sentinel = 0x3F8A7C91
	SentinelScale    Sentinel = 0x7B2D4E8F
)

const (
	// MaxRequestSize is the maximum bytes of a request.
	MaxRequestSize = 64
	// MaxCommandSize is the size of the longest command.
	MaxCommandSize = 1 + setScaleOperandLen
	// FrameSize is the size of a response frame.
	FrameSize = 4 + axis.NumAxes*8

	setScaleOperandLen = 9
)

var operandLens = map[Opcode]int{
	OpGetPosition:  0,
	OpSetTestMode:  1,
	OpSetScale:     setScaleOperandLen,
	OpGetScale:     0,
	OpResetEncoder: 1,
}

var opcodeNames = map[Opcode]string{
	OpGetPosition:  "GET_POSITION",
	OpSetTestMode:  "SET_TEST_MODE",
	OpSetScale:     "SET_SCALE",
	OpGetScale:     "GET_SCALE",
	OpResetEncoder: "RESET_ENCODER",
}

// OperandLen returns the operand length of a known opcode.
func (op Opcode) OperandLen() (int, bool) {
	n, ok := operandLens[op]
	return n, ok
}

// IsValid indicates a known opcode.
func (op Opcode) IsValid() bool {
	_, ok := operandLens[op]
	return ok
}

// Reply returns the sentinel of the frame the opcode produces.
func (op Opcode) Reply() (Sentinel, bool) {
	switch op {
	case OpGetPosition:
		return SentinelPosition, true
	case OpGetScale:
		return SentinelScale, true
	}
	return 0, false
}

// String implements Stringer.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode(0x%02x)", byte(op))
}

// String implements Stringer.
func (s Sentinel) String() string {
	switch s {
	case SentinelPosition:
		return "position"
	case SentinelScale:
		return "scale"
	}
	return fmt.Sprintf("sentinel(0x%08x)", uint32(s))
}

// Command is an opcode with its operand.
type Command struct {
	Op      Opcode
	Operand []byte
}

// GetPosition creates a GET_POSITION command.
func GetPosition() Command {
	return Command{Op: OpGetPosition}
}

// GetScale creates a GET_SCALE command.
func GetScale() Command {
	return Command{Op: OpGetScale}
}

// SetTestMode creates a SET_TEST_MODE command. Mode 0 disables test
// mode, mode n enables pattern n-1.
func SetTestMode(mode byte) Command {
	return Command{Op: OpSetTestMode, Operand: []byte{mode}}
}

// SetScale creates a SET_SCALE command.
func SetScale(a axis.Axis, scale float64) Command {
	operand := make([]byte, setScaleOperandLen)
	operand[0] = byte(a)
	binary.LittleEndian.PutUint64(operand[1:], math.Float64bits(scale))
	return Command{Op: OpSetScale, Operand: operand}
}

// ResetEncoder creates a RESET_ENCODER command.
func ResetEncoder(a axis.Axis) Command {
	return Command{Op: OpResetEncoder, Operand: []byte{byte(a)}}
}

// Axis decodes the axis operand of SET_SCALE and RESET_ENCODER.
func (c Command) Axis() axis.Axis {
	if len(c.Operand) == 0 {
		return axis.NumAxes
	}
	return axis.Axis(c.Operand[0])
}

// Scale decodes the scale operand of SET_SCALE.
func (c Command) Scale() float64 {
	if len(c.Operand) < setScaleOperandLen {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(c.Operand[1:]))
}

// Mode decodes the mode operand of SET_TEST_MODE.
func (c Command) Mode() byte {
	if len(c.Operand) == 0 {
		return 0
	}
	return c.Operand[0]
}

// Len is the encoded size.
func (c Command) Len() int {
	return 1 + len(c.Operand)
}

// Bytes returns encoded bytes for sending.
func (c Command) Bytes() []byte {
	return c.AppendTo(make([]byte, 0, c.Len()))
}

// AppendTo appends the encoded command to b.
func (c Command) AppendTo(b []byte) []byte {
	return append(append(b, byte(c.Op)), c.Operand...)
}

// String implements Stringer.
func (c Command) String() string {
	switch c.Op {
	case OpSetTestMode:
		return fmt.Sprintf("%v %d", c.Op, c.Mode())
	case OpSetScale:
		return fmt.Sprintf("%v %v %v", c.Op, c.Axis(), c.Scale())
	case OpResetEncoder:
		return fmt.Sprintf("%v %v", c.Op, c.Axis())
	}
	return c.Op.String()
}

// Batch packs commands into requests of at most MaxRequestSize bytes
// without splitting a command.
func Batch(cmds ...Command) ([][]byte, error) {
	var reqs [][]byte
	var req []byte
	for _, cmd := range cmds {
		if cmd.Len() > MaxRequestSize {
			return nil, fmt.Errorf("%w: %v", ErrRequestTooLarge, cmd)
		}
		if len(req)+cmd.Len() > MaxRequestSize {
			reqs, req = append(reqs, req), nil
		}
		req = cmd.AppendTo(req)
	}
	if len(req) > 0 {
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// WriteTo writes encoded bytes.
func (c Command) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}
