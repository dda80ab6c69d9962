package websocket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l1"
	"github.com/robotalks/dro.go/pkg/l1/comm"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
)

type positionsResponder struct {
	positions []float64
}

func (r *positionsResponder) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if msg, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
			if _, ok := msg.Command.Msg().(*msgs.DROPositionsQuery); ok {
				mctx.MessageTaken()
				msg.Command.Done(&msgs.DROPositions{Positions: r.positions})
			}
		}
	}))
	return nil
}

type eventCollector chan *msgs.DROPositionEvent

func (c eventCollector) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if ev, ok := mctx.CurrentMessage().(*msgs.DROPositionEvent); ok {
			mctx.MessageTaken()
			c <- ev
		}
	}))
	return nil
}

func startServer(t *testing.T, ctx context.Context) (*Server, string) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer("", l1.ControllerInfo{
		Ref:  l1.ControllerRef{Type: "dro", ID: "bench"},
		Meta: l1.ControllerMeta{Description: "test"},
	})
	srv.Listener = lis
	loop := fx.NewLoop()
	loop.Interval = 10 * time.Millisecond
	loop.Add(srv, &comm.UnsupportedCommands{})
	loop.AddController(fx.PrLvControl, &positionsResponder{positions: []float64{1, 2, 3, 4}})
	go loop.Run(ctx)
	return srv, "ws://" + lis.Addr().String() + DefaultPath
}

func TestServerCommandsAndEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, wsURL := startServer(t, ctx)

	connector, err := NewConnector(wsURL)
	require.NoError(t, err)
	infos, err := connector.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "dro/bench", infos[0].Ref.Name())
	require.Equal(t, "test", infos[0].Meta.Description)

	conn, err := connector.Connect(ctx, infos[0].Ref)
	require.NoError(t, err)
	wsConn := conn.(*ControllerConn)
	defer wsConn.Close()
	events := make(eventCollector, 4)
	client := fx.NewLoop()
	client.Interval = 10 * time.Millisecond
	client.Add(wsConn)
	client.AddController(fx.PrLvControl, events)
	go client.Run(ctx)

	reply, err := wsConn.Do(ctx, &msgs.DROPositionsQuery{})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4}, reply.(*msgs.DROPositions).Positions)

	_, err = wsConn.Do(ctx, &msgs.DROResetAxis{Axis: 2})
	require.Error(t, err)
	require.Equal(t, msgs.ErrUnsupportedCommand.Error(), err.Error())

	require.Equal(t, 1, srv.Connections())
	require.NoError(t, srv.SendEvent(ctx, &msgs.DROPositionEvent{Positions: []float64{5}}))
	select {
	case ev := <-events:
		require.Equal(t, []float64{5}, ev.Positions)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestConnectorURL(t *testing.T) {
	c, err := NewConnector("ws://localhost:8081")
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8081/l1", c.URL)
	_, err = NewConnector("mqtt://localhost")
	require.Error(t, err)
}
