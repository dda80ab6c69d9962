package msgs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
)

func TestTypedRoundTrip(t *testing.T) {
	typed, err := TypedFrom(&DROSetScale{Axis: uint32(axis.Y), Scale: -0.0025})
	require.NoError(t, err)
	typed.Sequence = 7
	assert.True(t, typed.IsCommand())
	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, DROSetScaleTypeID, decoded.TypeId)
	require.Equal(t, uint32(7), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, &DROSetScale{Axis: 1, Scale: -0.0025}, msg)
}

func TestTypedPositionEvent(t *testing.T) {
	pos := axis.Vector{1.5, -2, 0, 359.9}
	typed, err := TypedFrom(&DROPositionEvent{Positions: Values(pos), Timestamp: 42})
	require.NoError(t, err)
	assert.True(t, typed.IsEvent())
	data, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	ev, ok := msg.(*DROPositionEvent)
	require.True(t, ok)
	require.Equal(t, pos, ev.Vector())
	require.Equal(t, int64(42), ev.Timestamp)
}

func TestTypedKinds(t *testing.T) {
	cases := []struct {
		typeID uint32
		event  bool
		reply  bool
	}{
		{DROPositionsQueryTypeID, false, false},
		{DROPositionsTypeID, false, true},
		{CommandErrTypeID, false, true},
		{DROSetTestModeTypeID, false, false},
		{DROPositionEventTypeID, true, false},
		{DROStatusEventTypeID, true, false},
	}
	for _, c := range cases {
		typed := Typed{TypeId: c.typeID}
		assert.Equal(t, c.event, typed.IsEvent(), "%08x", c.typeID)
		assert.Equal(t, !c.event, typed.IsCommand(), "%08x", c.typeID)
		assert.Equal(t, c.reply, typed.IsReply(), "%08x", c.typeID)
	}
}

func TestTypedUnknown(t *testing.T) {
	_, err := Typed{TypeId: GroupCustom | 0x7777}.Decode()
	require.Error(t, err)
	unknown, ok := err.(*ErrUnknownType)
	require.True(t, ok)
	require.Equal(t, GroupCustom|0x7777, unknown.TypeID)

	_, err = TypedFrom(&notSerializable{})
	require.Equal(t, ErrNotSerializable, err)
}

func TestVectorOf(t *testing.T) {
	require.Equal(t, axis.Vector{1, 2, 0, 0}, VectorOf([]float64{1, 2}))
	require.Equal(t, axis.Vector{1, 2, 3, 4}, VectorOf([]float64{1, 2, 3, 4, 5}))
}

type notSerializable struct{}

func (m *notSerializable) NewMessage() fx.Message { return &notSerializable{} }
