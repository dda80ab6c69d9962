// Package firmware assembles the DRO core into a runtime context.
package firmware

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l0/comm"
	"github.com/robotalks/dro.go/pkg/l0/encoder"
	"github.com/robotalks/dro.go/pkg/l0/pattern"
	"github.com/robotalks/dro.go/pkg/l0/position"
)

// Runtime owns every component of the firmware. It is created once at
// startup and driven by a single loop; none of its methods may be
// called concurrently except through Task.Attach.
type Runtime struct {
	Config      Config
	Clock       fx.TimeSource
	Encoder     *encoder.Encoder
	Calibration *position.Calibration
	Generator   *pattern.Generator
	Store       *position.Store
	Task        *comm.Task

	hosts []*comm.Task
}

// NewRuntime wires the components over a raw count source.
func (c *Config) NewRuntime(src encoder.Source, clock fx.TimeSource) (*Runtime, error) {
	enc, err := encoder.New(src, c.Encoder)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = fx.SystemTime
	}
	r := &Runtime{
		Config:    *c,
		Clock:     clock,
		Encoder:   enc,
		Generator: pattern.New(c.Pattern),
	}
	r.Calibration = position.NewCalibration(enc)
	r.Store = position.NewStore(r.Calibration, r.Generator, clock)
	r.Store.Refresher = enc
	r.Task = comm.NewTask(comm.NewProcessor(r))
	return r, nil
}

// Init claims the hardware, applies boot scales and enters the boot test
// mode. An *encoder.InitError means some axes are unavailable; the
// runtime still serves the others and the caller decides whether that's
// acceptable.
func (r *Runtime) Init() error {
	initErr := r.Encoder.Init()
	if initErr != nil {
		glog.Warningf("%v", initErr)
	}
	for _, a := range axis.All {
		r.Calibration.SetScale(a, r.Config.Scales[a])
	}
	r.Store.Init()
	if r.Config.BootMode != TestModeOff {
		if err := r.Store.SetTestMode(byte(r.Config.BootMode)); err != nil {
			glog.Warningf("boot mode %v: %v", r.Config.BootMode, err)
		}
	}
	return initErr
}

// Snapshot implements comm.Target.
func (r *Runtime) Snapshot() (axis.Vector, error) {
	return r.Store.Snapshot()
}

// Scales implements comm.Target.
func (r *Runtime) Scales() axis.Vector {
	return r.Calibration.Scales()
}

// SetScale implements comm.Target.
func (r *Runtime) SetScale(a axis.Axis, scale float64) error {
	return r.Calibration.SetScale(a, scale)
}

// ResetAxis implements comm.Target.
func (r *Runtime) ResetAxis(a axis.Axis) error {
	return r.Store.ResetAxis(a)
}

// SetTestMode implements comm.Target.
func (r *Runtime) SetTestMode(mode byte) error {
	return r.Store.SetTestMode(mode)
}

// NewHostTask creates another host link sharing the processor of Task,
// so attaching to one link never evicts the host on another. It must be
// called before AddToLoop.
func (r *Runtime) NewHostTask() *comm.Task {
	t := comm.NewTask(r.Task.Processor)
	r.hosts = append(r.hosts, t)
	return t
}

// AddToLoop implements LoopAdder.
func (r *Runtime) AddToLoop(l *fx.Loop) {
	l.Add(r.Encoder, r.Task)
	for _, t := range r.hosts {
		l.Add(t)
	}
}

// NewLoop creates the main loop running the runtime.
func (r *Runtime) NewLoop() *fx.Loop {
	l := fx.NewLoop()
	l.Interval = r.Config.LoopInterval
	l.Clock = r.Clock
	return l.Add(r)
}
