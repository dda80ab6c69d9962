// Package dro implements the L1 controller of a DRO device. It polls
// positions, publishes them as events and maps L1 commands onto device
// opcodes.
package dro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/comm"
	"github.com/robotalks/dro.go/pkg/l1"
	env "github.com/robotalks/dro.go/pkg/l1/env/controller"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
	"github.com/robotalks/dro.go/pkg/monitor"
)

var (
	// ErrNotConnected indicates no device is connected.
	ErrNotConnected = errors.New("device not connected")
	// ErrBusy indicates too many commands are queued.
	ErrBusy = errors.New("device busy")
)

// Device is a connected DRO.
type Device interface {
	Do(cmds ...comm.Command) ([]comm.Frame, error)
	Positions() (axis.Vector, error)
	Scales() (axis.Vector, error)
	SetScale(axis.Axis, float64) error
	ResetAxis(axis.Axis) error
	SetTestMode(byte) error
	Close() error
}

// Opener opens a device and names it.
type Opener func() (Device, string, error)

// DefaultMaxFailures is the number of consecutive failed readings
// before the device is reopened.
const DefaultMaxFailures = 10

// Controller is the L1 controller of a DRO. The device is only used
// from the Run goroutine, commands are queued to it.
type Controller struct {
	Env               *env.Env
	Open              Opener
	Profile           *Profile
	PollInterval      time.Duration
	ReconnectInterval time.Duration
	MaxFailures       int
	OnChange          bool
	Clock             fx.TimeSource

	requests      chan *request
	stats         *monitor.Stats
	status        msgs.DROStatus
	statusChanged bool
	event         *msgs.DROPositionEvent
	last          axis.Vector
	hasLast       bool
}

// NewController creates a Controller.
func NewController(e *env.Env, open Opener) *Controller {
	return &Controller{
		Env:               e,
		Open:              open,
		PollInterval:      defaultConfig.PollInterval,
		ReconnectInterval: defaultConfig.ReconnectInterval,
		MaxFailures:       DefaultMaxFailures,
		Clock:             fx.SystemTime,
		requests:          make(chan *request, 16),
		statusChanged:     true,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.publish))
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	var dev Device
	var name string
	var failures int
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	disconnect := func(err error) <-chan time.Time {
		glog.Warningf("device %s lost: %v", name, err)
		dev.Close()
		dev, failures = nil, 0
		loopCtl.PostMessage(&statusMsg{status: msgs.DROStatus{Device: name, Error: err.Error()}})
		return time.After(c.ReconnectInterval)
	}
	reconnect := time.After(0)
	poll := time.NewTicker(c.PollInterval)
	defer poll.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reconnect:
			reconnect = nil
			d, devName, err := c.Open()
			name = devName
			if err != nil {
				glog.Warningf("open device %s: %v", name, err)
				loopCtl.PostMessage(&statusMsg{status: msgs.DROStatus{Device: name, Error: err.Error()}})
				reconnect = time.After(c.ReconnectInterval)
				break
			}
			if err := c.applyProfile(d); err != nil {
				glog.Warningf("device %s: apply profile: %v", name, err)
			}
			glog.Infof("device %s connected", name)
			dev = d
			loopCtl.PostMessage(&statusMsg{status: msgs.DROStatus{Connected: true, Device: name}})
		case <-poll.C:
			if dev == nil {
				continue
			}
			pos, err := dev.Positions()
			loopCtl.PostMessage(&readingMsg{time: c.Clock.Time(), positions: pos, err: err})
			if err == nil {
				failures = 0
			} else if failures++; transportLost(err) || (c.MaxFailures > 0 && failures >= c.MaxFailures) {
				reconnect = disconnect(err)
			}
		case req := <-c.requests:
			if dev == nil {
				req.done(msgs.NewCommandErr(ErrNotConnected))
				continue
			}
			reply, err := c.execute(dev, req.msg)
			if err != nil {
				reply = msgs.NewCommandErr(err)
				if transportLost(err) {
					reconnect = disconnect(err)
				}
			}
			req.done(reply)
		}
		loopCtl.TriggerNext()
	}
}

func (c *Controller) applyProfile(dev Device) error {
	if c.Profile == nil {
		return nil
	}
	cmds, err := c.Profile.Commands()
	if err != nil || len(cmds) == 0 {
		return err
	}
	_, err = dev.Do(cmds...)
	return err
}

func (c *Controller) execute(dev Device, msg fx.Message) (fx.Message, error) {
	switch m := msg.(type) {
	case *msgs.DROPositionsQuery:
		pos, err := dev.Positions()
		if err != nil {
			return nil, err
		}
		return &msgs.DROPositions{Positions: msgs.Values(pos), Timestamp: c.Clock.Time().UnixNano()}, nil
	case *msgs.DROScalesQuery:
		scales, err := dev.Scales()
		if err != nil {
			return nil, err
		}
		return &msgs.DROScales{Scales: msgs.Values(scales)}, nil
	case *msgs.DROSetScale:
		a, err := axisOf(m.Axis)
		if err == nil {
			err = dev.SetScale(a, m.Scale)
		}
		return msgs.NewCommandOK(), err
	case *msgs.DROResetAxis:
		a, err := axisOf(m.Axis)
		if err == nil {
			err = dev.ResetAxis(a)
		}
		return msgs.NewCommandOK(), err
	case *msgs.DROSetTestMode:
		if m.Mode > 0xff {
			return nil, fmt.Errorf("invalid test mode %d", m.Mode)
		}
		return msgs.NewCommandOK(), dev.SetTestMode(byte(m.Mode))
	}
	return nil, msgs.ErrUnsupportedCommand
}

func axisOf(v uint32) (axis.Axis, error) {
	if v >= axis.NumAxes {
		return 0, fmt.Errorf("axis %d: %w", v, axis.ErrInvalidIndex)
	}
	return axis.Axis(v), nil
}

// transportLost tells errors which need the device reopened.
func transportLost(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, comm.ErrTransmissionFailed)
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	if c.stats == nil {
		c.stats = monitor.NewStats(cc.Time())
	}
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *l1.CommandMsg:
			switch m := msg.Command.Msg().(type) {
			case *msgs.DROStatsQuery:
				mctx.MessageTaken()
				msg.Command.Done(c.stats.Message(cc.Time()))
				if m.Clear {
					c.stats.Reset(cc.Time())
				}
			case *msgs.DROPositionsQuery, *msgs.DROScalesQuery, *msgs.DROSetScale,
				*msgs.DROResetAxis, *msgs.DROSetTestMode:
				mctx.MessageTaken()
				select {
				case c.requests <- &request{cmd: msg.Command, msg: m}:
				default:
					msg.Command.Done(msgs.NewCommandErr(ErrBusy))
				}
			}
		case *readingMsg:
			mctx.MessageTaken()
			c.handleReading(msg)
		case *statusMsg:
			mctx.MessageTaken()
			if msg.status != c.status {
				c.status, c.statusChanged = msg.status, true
			}
		}
	}))
	return nil
}

func (c *Controller) handleReading(msg *readingMsg) {
	if msg.err != nil {
		c.stats.Fail()
		glog.V(1).Infof("read positions: %v", msg.err)
		return
	}
	c.stats.Record(msg.positions)
	if c.OnChange && c.hasLast && c.last == msg.positions {
		return
	}
	c.last, c.hasLast = msg.positions, true
	c.event = &msgs.DROPositionEvent{
		Positions: msgs.Values(msg.positions),
		Timestamp: msg.time.UnixNano(),
	}
}

func (c *Controller) publish(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	if c.statusChanged {
		c.statusChanged = false
		status := c.status
		errs.Add(c.Env.Registrar.SendEvent(cc.Context(), &status))
	}
	if ev := c.event; ev != nil {
		c.event = nil
		errs.Add(c.Env.Registrar.SendEvent(cc.Context(), ev))
	}
	return errs.Aggregate()
}

type request struct {
	cmd l1.Command
	msg fx.Message
}

func (r *request) done(reply fx.Message) {
	if err := r.cmd.Done(reply); err != nil {
		glog.Errorf("reply %T: %v", r.msg, err)
	}
}

type readingMsg struct {
	time      time.Time
	positions axis.Vector
	err       error
}

func (m *readingMsg) NewMessage() fx.Message { return &readingMsg{} }

type statusMsg struct {
	status msgs.DROStatus
}

func (m *statusMsg) NewMessage() fx.Message { return &statusMsg{} }
