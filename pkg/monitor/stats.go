// Package monitor keeps statistics of position readings and logs them.
package monitor

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/robotalks/dro.go/pkg/l0/axis"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
)

// Stats collects read counters and the per-axis range of positions.
type Stats struct {
	Start     time.Time
	Reads     uint64
	Successes uint64
	First     axis.Vector
	Last      axis.Vector
	Min       axis.Vector
	Max       axis.Vector
}

// NewStats creates Stats starting at t.
func NewStats(t time.Time) *Stats {
	s := &Stats{}
	s.Reset(t)
	return s
}

// Reset restarts collecting at t.
func (s *Stats) Reset(t time.Time) {
	*s = Stats{Start: t}
	for _, a := range axis.All {
		s.Min[a], s.Max[a] = math.Inf(1), math.Inf(-1)
	}
}

// Record counts a successful reading.
func (s *Stats) Record(pos axis.Vector) {
	if s.Successes == 0 {
		s.First = pos
	}
	s.Reads++
	s.Successes++
	s.Last = pos
	for _, a := range axis.All {
		s.Min[a] = math.Min(s.Min[a], pos[a])
		s.Max[a] = math.Max(s.Max[a], pos[a])
	}
}

// Fail counts a failed reading.
func (s *Stats) Fail() {
	s.Reads++
}

// HasRange indicates Min and Max are valid.
func (s *Stats) HasRange() bool {
	return s.Successes > 0
}

// Range returns Max - Min, zero before the first reading.
func (s *Stats) Range() (r axis.Vector) {
	if !s.HasRange() {
		return
	}
	for _, a := range axis.All {
		r[a] = s.Max[a] - s.Min[a]
	}
	return
}

// Rate returns successful readings per second until now.
func (s *Stats) Rate(now time.Time) float64 {
	elapsed := now.Sub(s.Start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Successes) / elapsed
}

// SuccessRatio is Successes / Reads, 0 without reads.
func (s *Stats) SuccessRatio() float64 {
	if s.Reads == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Reads)
}

// Message converts to DROStats.
func (s *Stats) Message(now time.Time) *msgs.DROStats {
	m := &msgs.DROStats{
		Reads:     s.Reads,
		Successes: s.Successes,
		Rate:      s.Rate(now),
	}
	if s.HasRange() {
		m.Min, m.Max = msgs.Values(s.Min), msgs.Values(s.Max)
	}
	return m
}

// FromMessage restores Stats from DROStats received at now.
func FromMessage(m *msgs.DROStats, now time.Time) *Stats {
	s := NewStats(now)
	s.Reads, s.Successes = m.Reads, m.Successes
	if m.Rate > 0 {
		s.Start = now.Add(-time.Duration(float64(m.Successes) / m.Rate * float64(time.Second)))
	}
	if len(m.Min) > 0 && len(m.Max) > 0 {
		s.Min, s.Max = msgs.VectorOf(m.Min), msgs.VectorOf(m.Max)
	}
	return s
}

// WriteSummary prints a summary table.
func (s *Stats) WriteSummary(w io.Writer, now time.Time) error {
	elapsed := now.Sub(s.Start)
	fmt.Fprintf(w, "Duration: %.2fs\n", elapsed.Seconds())
	fmt.Fprintf(w, "Total reads: %d\n", s.Reads)
	fmt.Fprintf(w, "Successful reads: %d (%.1f%%)\n", s.Successes, s.SuccessRatio()*100)
	fmt.Fprintf(w, "Successful read rate: %.1f Hz\n", s.Rate(now))
	if !s.HasRange() {
		return nil
	}
	tw := tabwriter.NewWriter(w, 10, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Axis\tStart\tMin\tMax\tRange\tCurrent\t")
	r := s.Range()
	for _, a := range axis.All {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t\n", a, s.First[a], s.Min[a], s.Max[a], r[a], s.Last[a])
	}
	return tw.Flush()
}
