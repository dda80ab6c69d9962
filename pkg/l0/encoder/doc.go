// Package encoder turns raw, wrapping 32-bit pulse counters into 64-bit
// logical counts.
package encoder

// The raw counter of each axis is produced by the counting context (the
// quadrature decoder and its interrupt handler on real hardware, a Simulator
// when hosted) and consumed by the main loop. Every axis slot has exactly one
// writer and one reader; slots are accessed with single atomic loads/stores
// so an axis value is never observed torn. Readings across axes are not
// mutually consistent.
//
// The Tracker extends the raw value by counting wraps. It assumes two
// consecutive observations of the same axis never differ by more than the
// configured threshold allows (see CheckThreshold). Violating that operating
// assumption makes the wrap direction ambiguous and is not detected.
