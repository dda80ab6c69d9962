package comm

import (
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Target is what commands act on.
type Target interface {
	// Snapshot refreshes and returns all positions. On error it still
	// returns the last known positions.
	Snapshot() (axis.Vector, error)
	Scales() axis.Vector
	SetScale(axis.Axis, float64) error
	ResetAxis(axis.Axis) error
	SetTestMode(mode byte) error
}

// Processor executes requests against a Target.
type Processor struct {
	Target Target
}

// NewProcessor creates a Processor.
func NewProcessor(target Target) *Processor {
	return &Processor{Target: target}
}

// Execute runs a single command and returns its response frame if it
// has one.
func (p *Processor) Execute(cmd Command) (*Frame, error) {
	switch cmd.Op {
	case OpGetPosition:
		pos, err := p.Target.Snapshot()
		f := PositionFrame(pos)
		return &f, err
	case OpGetScale:
		f := ScaleFrame(p.Target.Scales())
		return &f, nil
	case OpSetTestMode:
		return nil, p.Target.SetTestMode(cmd.Mode())
	case OpSetScale:
		return nil, p.Target.SetScale(cmd.Axis(), cmd.Scale())
	case OpResetEncoder:
		return nil, p.Target.ResetAxis(cmd.Axis())
	}
	return nil, fmt.Errorf("unsupported %v", cmd.Op)
}

// Process executes all commands in buf in order and returns the
// response frames. Effects of a command are visible to the commands
// after it. A failed command doesn't stop the rest; failures are
// aggregated. A frame is still produced for a failed query so the host
// receives one frame per query.
func (p *Processor) Process(buf []byte) ([]Frame, error) {
	var frames []Frame
	var errs fx.AggregatedError
	parser := NewParser(buf)
	for {
		cmd, ok := parser.Next()
		if !ok {
			break
		}
		glog.V(2).Infof("exec %v", cmd)
		f, err := p.Execute(cmd)
		if f != nil {
			frames = append(frames, *f)
		}
		if err != nil {
			errs.Add(fmt.Errorf("%v: %w", cmd, err))
		}
	}
	if parser.Skipped > 0 || parser.Dropped > 0 {
		glog.V(2).Infof("request %d bytes: skipped %d, dropped %d", len(buf), parser.Skipped, parser.Dropped)
	}
	return frames, errs.Aggregate()
}
