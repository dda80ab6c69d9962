package encoder

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// Source supplies raw counts, one counting channel per axis.
type Source interface {
	// Claim acquires the counting channel of an axis.
	Claim(axis.Axis) error
	// Read loads the latest raw count of a claimed axis.
	Read(axis.Axis) (int32, error)
}

// Counters is the raw count storage shared between the counting context
// and the main loop. Channels limits how many axes can be claimed,
// modelling a fixed number of hardware state machines.
type Counters struct {
	Channels int

	slots   [axis.NumAxes]int32
	claimed [axis.NumAxes]uint32
	lock    sync.Mutex
	inUse   int
}

// NewCounters creates Counters with the given number of channels.
func NewCounters(channels int) *Counters {
	return &Counters{Channels: channels}
}

// SlotWriter is the counting-context side of a slot. Only one SlotWriter
// may be used per axis.
type SlotWriter struct {
	slot *int32
}

// Store publishes a raw count.
func (w SlotWriter) Store(raw int32) {
	atomic.StoreInt32(w.slot, raw)
}

// Advance adds delta with 32-bit wrap-around and publishes the result.
func (w SlotWriter) Advance(delta int32) int32 {
	return atomic.AddInt32(w.slot, delta)
}

// Writer returns the writer side of an axis slot.
func (c *Counters) Writer(a axis.Axis) SlotWriter {
	return SlotWriter{slot: &c.slots[a]}
}

// Claim implements Source.
func (c *Counters) Claim(a axis.Axis) error {
	if err := a.Check(); err != nil {
		return err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.claimed[a] != 0 {
		return nil
	}
	if c.inUse >= c.Channels {
		return fmt.Errorf("no free channel for %s: %w", a, ErrHardwareUnavailable)
	}
	c.inUse++
	atomic.StoreUint32(&c.claimed[a], 1)
	return nil
}

// Read implements Source.
func (c *Counters) Read(a axis.Axis) (int32, error) {
	if err := a.Check(); err != nil {
		return 0, err
	}
	if atomic.LoadUint32(&c.claimed[a]) == 0 {
		return 0, fmt.Errorf("%s: %w", a, ErrHardwareUnavailable)
	}
	return atomic.LoadInt32(&c.slots[a]), nil
}
