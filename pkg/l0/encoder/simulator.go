package encoder

import (
	"context"
	"math"
	"time"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Simulator produces synthetic pulses into Counters from its own
// goroutine, standing in for the quadrature decoder interrupt.
type Simulator struct {
	Counters *Counters
	// Velocity is counts per second per axis.
	Velocity axis.Vector
	// Period is the interval between pulse bursts.
	Period time.Duration

	frac    axis.Vector
	writers [axis.NumAxes]SlotWriter
}

// DefaultSimPeriod is the default Simulator period.
const DefaultSimPeriod = time.Millisecond

// NewSimulator creates a Simulator writing into counters.
func NewSimulator(counters *Counters, velocity axis.Vector) *Simulator {
	s := &Simulator{Counters: counters, Velocity: velocity, Period: DefaultSimPeriod}
	for _, a := range axis.All {
		s.writers[a] = counters.Writer(a)
	}
	return s
}

// Preset stores absolute raw values, e.g. to start near a wrap.
func (s *Simulator) Preset(raw [axis.NumAxes]int32) {
	for _, a := range axis.All {
		s.writers[a].Store(raw[a])
	}
}

// Step advances all axes by dt worth of pulses. A burst is limited to
// the int32 range and a non-finite velocity produces no pulses.
func (s *Simulator) Step(dt time.Duration) {
	for _, a := range axis.All {
		counts := s.Velocity[a]*dt.Seconds() + s.frac[a]
		if math.IsNaN(counts) || math.IsInf(counts, 0) {
			s.frac[a] = 0
			continue
		}
		whole := math.Trunc(counts)
		s.frac[a] = counts - whole
		switch {
		case whole > math.MaxInt32:
			whole, s.frac[a] = math.MaxInt32, 0
		case whole < math.MinInt32:
			whole, s.frac[a] = math.MinInt32, 0
		}
		if whole != 0 {
			s.writers[a].Advance(int32(whole))
		}
	}
}

// Run implements Runnable.
func (s *Simulator) Run(ctx context.Context) error {
	period := s.Period
	if period <= 0 {
		period = DefaultSimPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Step(now.Sub(last))
			last = now
		}
	}
}
