package encoder

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Config defines the operating parameters of an Encoder.
type Config struct {
	// Threshold is the wrap detection threshold.
	Threshold int32
	// MaxStepRate is the maximum counts per second the mechanics can
	// produce on any axis, 0 if unknown.
	MaxStepRate int64
	// CheckInterval is the minimum interval between periodic overflow
	// checks from the main loop.
	CheckInterval time.Duration
}

// DefaultCheckInterval is the default overflow check interval.
const DefaultCheckInterval = time.Millisecond

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:     DefaultThreshold,
		CheckInterval: DefaultCheckInterval,
	}
}

// MaxDelta is the largest count change between two periodic checks.
func (c Config) MaxDelta() int64 {
	return int64(float64(c.MaxStepRate) * c.CheckInterval.Seconds())
}

// Validate checks the threshold against the check cadence.
func (c Config) Validate() error {
	return CheckThreshold(c.Threshold, c.MaxDelta())
}

// Encoder reads a Source and keeps logical counts for all axes.
type Encoder struct {
	Source  Source
	Tracker *Tracker
	Config  Config

	initialized bool
	available   [axis.NumAxes]bool
	readErrs    [axis.NumAxes]error
	lastCheck   time.Time
}

// New creates an Encoder. The configuration is validated here so a bad
// threshold is caught at startup.
func New(src Source, conf Config) (*Encoder, error) {
	if conf.CheckInterval <= 0 {
		conf.CheckInterval = DefaultCheckInterval
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	tracker, err := NewTracker(conf.Threshold)
	if err != nil {
		return nil, err
	}
	return &Encoder{Source: src, Tracker: tracker, Config: conf}, nil
}

// Init claims a channel per axis and primes the tracker with the current
// raw counts. It returns an *InitError when some axes are unavailable;
// the remaining axes are usable and the caller decides whether to carry on.
func (e *Encoder) Init() error {
	if e.initialized {
		return nil
	}
	var initErr InitError
	for _, a := range axis.All {
		if err := e.Source.Claim(a); err != nil {
			initErr.Unavailable = append(initErr.Unavailable, a)
			initErr.Errors = append(initErr.Errors, err)
			continue
		}
		raw, err := e.Source.Read(a)
		if err != nil {
			glog.Warningf("encoder %s: initial read failed: %v", a, err)
		}
		e.Tracker.Prime(a, raw)
		e.available[a] = true
	}
	e.initialized = true
	if len(initErr.Unavailable) > 0 {
		return &initErr
	}
	return nil
}

// Available indicates whether an axis has a claimed channel.
func (e *Encoder) Available(a axis.Axis) bool {
	return a.IsValid() && e.available[a]
}

// Refresh reads every available axis and updates the tracker.
// A failed read leaves the axis at its previous logical count.
func (e *Encoder) Refresh() {
	if !e.initialized {
		return
	}
	for _, a := range axis.All {
		if !e.available[a] {
			continue
		}
		raw, err := e.Source.Read(a)
		if e.readErrs[a] = err; err != nil {
			glog.V(2).Infof("encoder %s: read failed: %v", a, err)
			continue
		}
		e.Tracker.Update(a, raw)
	}
}

// Check runs Refresh if CheckInterval elapsed since the last check.
func (e *Encoder) Check(now time.Time) {
	if !e.initialized || now.Sub(e.lastCheck) < e.Config.CheckInterval {
		return
	}
	e.lastCheck = now
	e.Refresh()
}

// Count returns the logical count of an axis as of the last refresh.
// The count is still returned with the error of a failed last read.
func (e *Encoder) Count(a axis.Axis) (int64, error) {
	if err := a.Check(); err != nil {
		return 0, err
	}
	if !e.initialized {
		return 0, ErrNotInitialized
	}
	if !e.available[a] {
		return 0, fmt.Errorf("%s: %w", a, ErrHardwareUnavailable)
	}
	return e.Tracker.Get(a), e.readErrs[a]
}

// Control implements Controller.
func (e *Encoder) Control(cc fx.ControlContext) error {
	e.Check(cc.Time())
	return nil
}

// AddToLoop implements LoopAdder.
func (e *Encoder) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, e)
}
