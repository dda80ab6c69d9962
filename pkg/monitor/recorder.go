package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
)

// Recorder feeds position readings into Stats, an optional CSV log and
// an optional live display. Readings arrive as loop messages, either
// DROPositionEvent from an L1 connection or from a Poller.
type Recorder struct {
	Stats   *Stats
	CSV     *CSVLogger
	Display io.Writer
	// DisplayInterval throttles the live display.
	DisplayInterval time.Duration
	// Newline prints every display update on its own line.
	Newline bool

	lastDisplay time.Time
	connected   bool
}

// DefaultDisplayInterval is the default live display throttle.
const DefaultDisplayInterval = 100 * time.Millisecond

// NewRecorder creates a Recorder starting at start.
func NewRecorder(start time.Time) *Recorder {
	return &Recorder{Stats: NewStats(start), DisplayInterval: DefaultDisplayInterval}
}

// Record records a successful reading taken at t.
func (r *Recorder) Record(t time.Time, pos axis.Vector) {
	r.Stats.Record(pos)
	if r.CSV != nil {
		if err := r.CSV.Log(t, pos); err != nil {
			glog.Errorf("csv log: %v", err)
		}
	}
	r.display(t, pos)
}

// Fail records a failed reading.
func (r *Recorder) Fail(err error) {
	r.Stats.Fail()
	glog.V(1).Infof("read failed: %v", err)
}

func (r *Recorder) display(t time.Time, pos axis.Vector) {
	if r.Display == nil || t.Sub(r.lastDisplay) < r.DisplayInterval {
		return
	}
	r.lastDisplay = t
	end := "\r"
	if r.Newline {
		end = "\n"
	}
	fmt.Fprintf(r.Display, "%s | %6.1f Hz | %5.1f%% | %7.1fs%s",
		FormatPositions(pos), r.Stats.Rate(t), r.Stats.SuccessRatio()*100,
		t.Sub(r.Stats.Start).Seconds(), end)
}

// FormatPositions formats positions as "X: 1.000 Y: ...".
func FormatPositions(pos axis.Vector) string {
	var s string
	for _, a := range axis.All {
		if a > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%10.3f", a, pos[a])
	}
	return s
}

// Control implements Controller.
func (r *Recorder) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *readingMsg:
			mctx.MessageTaken()
			if msg.err != nil {
				r.Fail(msg.err)
			} else {
				r.Record(msg.time, msg.positions)
			}
		case *msgs.DROPositionEvent:
			mctx.MessageTaken()
			t := cc.Time()
			if msg.Timestamp != 0 {
				t = time.Unix(0, msg.Timestamp)
			}
			r.Record(t, msg.Vector())
		case *msgs.DROStatus:
			mctx.MessageTaken()
			if msg.Connected != r.connected {
				r.connected = msg.Connected
				glog.Infof("device %s connected=%v %s", msg.Device, msg.Connected, msg.Error)
			}
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (r *Recorder) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPostProc, r)
}

// Close flushes and closes the CSV log.
func (r *Recorder) Close() error {
	if r.CSV != nil {
		return r.CSV.Close()
	}
	return nil
}

// PositionReader reads positions from a device.
type PositionReader interface {
	Positions() (axis.Vector, error)
}

// Poller reads positions at a fixed rate and posts them to the loop.
type Poller struct {
	Reader   PositionReader
	Interval time.Duration
	Clock    fx.TimeSource
}

// NewPoller creates a Poller reading at rate Hz.
func NewPoller(reader PositionReader, rate float64) *Poller {
	p := &Poller{Reader: reader, Clock: fx.SystemTime, Interval: 10 * time.Millisecond}
	if rate > 0 {
		p.Interval = time.Duration(float64(time.Second) / rate)
	}
	return p
}

// AddToLoop implements LoopAdder.
func (p *Poller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(p)
}

// Run implements Runnable.
func (p *Poller) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pos, err := p.Reader.Positions()
			loopCtl.PostMessage(&readingMsg{time: p.Clock.Time(), positions: pos, err: err})
			loopCtl.TriggerNext()
		}
	}
}

type readingMsg struct {
	time      time.Time
	positions axis.Vector
	err       error
}

func (m *readingMsg) NewMessage() fx.Message { return &readingMsg{} }
