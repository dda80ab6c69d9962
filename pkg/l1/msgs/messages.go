package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// DROPositionsQuery reads the current positions (GET_POSITION).
type DROPositionsQuery struct {
}

// NewMessage implements Message.
func (m *DROPositionsQuery) NewMessage() fx.Message { return &DROPositionsQuery{} }

// TypeID implements SerializableMessage.
func (m *DROPositionsQuery) TypeID() uint32 { return DROPositionsQueryTypeID }

// Serializable implements SerializableMessage.
func (m *DROPositionsQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROPositionsQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROPositionsQuery) Reset() { *m = DROPositionsQuery{} }

// String implements proto.Message.
func (m *DROPositionsQuery) String() string { return proto.CompactTextString(m) }

// DROPositions replies DROPositionsQuery.
type DROPositions struct {
	Positions []float64 `protobuf:"fixed64,1,rep,packed,name=positions,proto3" json:"positions,omitempty"`
	// Timestamp is the host time of the reading in unix nanoseconds.
	Timestamp int64 `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *DROPositions) NewMessage() fx.Message { return &DROPositions{} }

// TypeID implements SerializableMessage.
func (m *DROPositions) TypeID() uint32 { return DROPositionsTypeID }

// Serializable implements SerializableMessage.
func (m *DROPositions) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROPositions) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROPositions) Reset() { *m = DROPositions{} }

// String implements proto.Message.
func (m *DROPositions) String() string { return proto.CompactTextString(m) }

// Vector converts the positions.
func (m *DROPositions) Vector() axis.Vector { return VectorOf(m.Positions) }

// DROScalesQuery reads the scale factors (GET_SCALE).
type DROScalesQuery struct {
}

// NewMessage implements Message.
func (m *DROScalesQuery) NewMessage() fx.Message { return &DROScalesQuery{} }

// TypeID implements SerializableMessage.
func (m *DROScalesQuery) TypeID() uint32 { return DROScalesQueryTypeID }

// Serializable implements SerializableMessage.
func (m *DROScalesQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROScalesQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROScalesQuery) Reset() { *m = DROScalesQuery{} }

// String implements proto.Message.
func (m *DROScalesQuery) String() string { return proto.CompactTextString(m) }

// DROScales replies DROScalesQuery.
type DROScales struct {
	Scales []float64 `protobuf:"fixed64,1,rep,packed,name=scales,proto3" json:"scales,omitempty"`
}

// NewMessage implements Message.
func (m *DROScales) NewMessage() fx.Message { return &DROScales{} }

// TypeID implements SerializableMessage.
func (m *DROScales) TypeID() uint32 { return DROScalesTypeID }

// Serializable implements SerializableMessage.
func (m *DROScales) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROScales) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROScales) Reset() { *m = DROScales{} }

// String implements proto.Message.
func (m *DROScales) String() string { return proto.CompactTextString(m) }

// Vector converts the scales.
func (m *DROScales) Vector() axis.Vector { return VectorOf(m.Scales) }

// DROSetScale sets the scale factor of an axis (SET_SCALE).
type DROSetScale struct {
	Axis  uint32  `protobuf:"varint,1,opt,name=axis,proto3" json:"axis,omitempty"`
	Scale float64 `protobuf:"fixed64,2,opt,name=scale,proto3" json:"scale,omitempty"`
}

// NewMessage implements Message.
func (m *DROSetScale) NewMessage() fx.Message { return &DROSetScale{} }

// TypeID implements SerializableMessage.
func (m *DROSetScale) TypeID() uint32 { return DROSetScaleTypeID }

// Serializable implements SerializableMessage.
func (m *DROSetScale) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROSetScale) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROSetScale) Reset() { *m = DROSetScale{} }

// String implements proto.Message.
func (m *DROSetScale) String() string { return proto.CompactTextString(m) }

// DROResetAxis zeroes an axis (RESET_ENCODER).
type DROResetAxis struct {
	Axis uint32 `protobuf:"varint,1,opt,name=axis,proto3" json:"axis,omitempty"`
}

// NewMessage implements Message.
func (m *DROResetAxis) NewMessage() fx.Message { return &DROResetAxis{} }

// TypeID implements SerializableMessage.
func (m *DROResetAxis) TypeID() uint32 { return DROResetAxisTypeID }

// Serializable implements SerializableMessage.
func (m *DROResetAxis) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROResetAxis) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROResetAxis) Reset() { *m = DROResetAxis{} }

// String implements proto.Message.
func (m *DROResetAxis) String() string { return proto.CompactTextString(m) }

// DROSetTestMode switches test mode (SET_TEST_MODE), 0 for off.
type DROSetTestMode struct {
	Mode uint32 `protobuf:"varint,1,opt,name=mode,proto3" json:"mode,omitempty"`
}

// NewMessage implements Message.
func (m *DROSetTestMode) NewMessage() fx.Message { return &DROSetTestMode{} }

// TypeID implements SerializableMessage.
func (m *DROSetTestMode) TypeID() uint32 { return DROSetTestModeTypeID }

// Serializable implements SerializableMessage.
func (m *DROSetTestMode) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROSetTestMode) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROSetTestMode) Reset() { *m = DROSetTestMode{} }

// String implements proto.Message.
func (m *DROSetTestMode) String() string { return proto.CompactTextString(m) }

// DROStatsQuery reads the statistics collected by the controller and
// restarts collecting when Clear is set.
type DROStatsQuery struct {
	Clear bool `protobuf:"varint,1,opt,name=clear,proto3" json:"clear,omitempty"`
}

// NewMessage implements Message.
func (m *DROStatsQuery) NewMessage() fx.Message { return &DROStatsQuery{} }

// TypeID implements SerializableMessage.
func (m *DROStatsQuery) TypeID() uint32 { return DROStatsQueryTypeID }

// Serializable implements SerializableMessage.
func (m *DROStatsQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROStatsQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROStatsQuery) Reset() { *m = DROStatsQuery{} }

// String implements proto.Message.
func (m *DROStatsQuery) String() string { return proto.CompactTextString(m) }

// DROStats replies DROStatsQuery.
type DROStats struct {
	Min       []float64 `protobuf:"fixed64,1,rep,packed,name=min,proto3" json:"min,omitempty"`
	Max       []float64 `protobuf:"fixed64,2,rep,packed,name=max,proto3" json:"max,omitempty"`
	Reads     uint64    `protobuf:"varint,3,opt,name=reads,proto3" json:"reads,omitempty"`
	Successes uint64    `protobuf:"varint,4,opt,name=successes,proto3" json:"successes,omitempty"`
	// Rate is successful readings per second.
	Rate float64 `protobuf:"fixed64,5,opt,name=rate,proto3" json:"rate,omitempty"`
}

// NewMessage implements Message.
func (m *DROStats) NewMessage() fx.Message { return &DROStats{} }

// TypeID implements SerializableMessage.
func (m *DROStats) TypeID() uint32 { return DROStatsTypeID }

// Serializable implements SerializableMessage.
func (m *DROStats) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROStats) Reset() { *m = DROStats{} }

// String implements proto.Message.
func (m *DROStats) String() string { return proto.CompactTextString(m) }

// DROPositionEvent is published on every successful reading.
type DROPositionEvent struct {
	Positions []float64 `protobuf:"fixed64,1,rep,packed,name=positions,proto3" json:"positions,omitempty"`
	Timestamp int64     `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewMessage implements Message.
func (m *DROPositionEvent) NewMessage() fx.Message { return &DROPositionEvent{} }

// TypeID implements SerializableMessage.
func (m *DROPositionEvent) TypeID() uint32 { return DROPositionEventTypeID }

// Serializable implements SerializableMessage.
func (m *DROPositionEvent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROPositionEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROPositionEvent) Reset() { *m = DROPositionEvent{} }

// String implements proto.Message.
func (m *DROPositionEvent) String() string { return proto.CompactTextString(m) }

// Vector converts the positions.
func (m *DROPositionEvent) Vector() axis.Vector { return VectorOf(m.Positions) }

// DROStatus is an event reflecting the device connection.
type DROStatus struct {
	Connected bool   `protobuf:"varint,1,opt,name=connected,proto3" json:"connected,omitempty"`
	Device    string `protobuf:"bytes,2,opt,name=device,proto3" json:"device,omitempty"`
	Error     string `protobuf:"bytes,3,opt,name=error,proto3" json:"error,omitempty"`
}

// NewMessage implements Message.
func (m *DROStatus) NewMessage() fx.Message { return &DROStatus{} }

// TypeID implements SerializableMessage.
func (m *DROStatus) TypeID() uint32 { return DROStatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *DROStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DROStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DROStatus) Reset() { *m = DROStatus{} }

// String implements proto.Message.
func (m *DROStatus) String() string { return proto.CompactTextString(m) }

// VectorOf converts repeated values into a Vector, missing axes are 0.
func VectorOf(vals []float64) (v axis.Vector) {
	copy(v[:], vals)
	return
}

// Values converts a Vector for a repeated field.
func Values(v axis.Vector) []float64 {
	return append([]float64(nil), v[:]...)
}

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupDRO     uint32 = 0x00030000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID         uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID        uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	DROPositionsQueryTypeID uint32 = GroupDRO | 0x0000
	DROPositionsTypeID      uint32 = DROPositionsQueryTypeID | TypeIDMaskReply
	DROScalesQueryTypeID    uint32 = GroupDRO | 0x0001
	DROScalesTypeID         uint32 = DROScalesQueryTypeID | TypeIDMaskReply
	DROSetScaleTypeID       uint32 = GroupDRO | 0x0002
	DROResetAxisTypeID      uint32 = GroupDRO | 0x0003
	DROSetTestModeTypeID    uint32 = GroupDRO | 0x0004
	DROStatsQueryTypeID     uint32 = GroupDRO | 0x0005
	DROStatsTypeID          uint32 = DROStatsQueryTypeID | TypeIDMaskReply
	DROPositionEventTypeID  uint32 = GroupDRO | TypeIDKindEvent | 0x0000
	DROStatusEventTypeID    uint32 = GroupDRO | TypeIDKindEvent | 0x0001
)

var (
	// ErrUnknownCommand indicates the command is unknown.
	ErrUnknownCommand = errors.New("unknown command")
)
