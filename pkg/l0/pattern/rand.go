package pattern

// Rand yields uniformly distributed values in [-0.5, 0.5).
type Rand interface {
	Next() float64
}

// DefaultSeed is the compiled-in random walk seed.
const DefaultSeed uint32 = 0x12345678

// LCG is the deterministic linear congruential generator
// s = s*1664525 + 1013904223 (mod 2^32).
type LCG struct {
	State uint32
}

// NewLCG creates an LCG from seed.
func NewLCG(seed uint32) *LCG {
	return &LCG{State: seed}
}

// Next implements Rand.
func (g *LCG) Next() float64 {
	g.State = g.State*1664525 + 1013904223
	return float64((g.State>>16)&0x7fff)/32768.0 - 0.5
}
