// Package comm provides the L0 vendor protocol.
package comm

// The vendor protocol is spoken between the DRO firmware and a host
// over a byte-stream transport (USB vendor bulk, serial port or TCP).
//
// A request is up to MaxRequestSize bytes of commands packed back to
// back without delimiters. Each command is an opcode byte followed by
// a fixed-length operand, so the opcode alone determines how many bytes
// to consume. Unknown opcode bytes are skipped one at a time and a
// command truncated by the end of the request is dropped.
//
// GET_POSITION and GET_SCALE each produce one fixed FrameSize response:
// a little-endian uint32 sentinel identifying the frame type followed by
// one little-endian float64 per axis. Other commands produce nothing.
// There is no checksum; the sentinel lets the host detect misalignment.
//
// Producer: DRO firmware
// Consumer: host (L1 controller, monitor, shell)
