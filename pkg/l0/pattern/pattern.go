// Package pattern generates synthetic axis positions for diagnostics.
package pattern

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/dro.go/pkg/l0/axis"
)

// ID identifies a test pattern.
type ID uint8

// Patterns
const (
	SineWave ID = iota
	Circular
	LinearRamp
	RandomWalk

	NumPatterns = 4
)

// ErrUnknownPattern indicates an invalid pattern ID.
var ErrUnknownPattern = errors.New("unknown pattern")

var patternNames = [NumPatterns]string{"sine", "circular", "ramp", "walk"}

// IsValid checks the ID.
func (id ID) IsValid() bool {
	return id < NumPatterns
}

// String implements Stringer.
func (id ID) String() string {
	if id.IsValid() {
		return patternNames[id]
	}
	return "pattern(" + strconv.Itoa(int(id)) + ")"
}

// ParseID accepts a pattern name or number.
func ParseID(s string) (ID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for n, name := range patternNames {
		if s == name {
			return ID(n), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && ID(n).IsValid() {
		return ID(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPattern, s)
}

var (
	sineAmplitude = axis.Vector{5.0, 3.0, 2.0, 45.0}
	sineRate      = axis.Vector{0.5, 0.7, 0.3, 0.2}
	sinePhase     = axis.Vector{0, 1.57, 0, 0}
	rampVelocity  = axis.Vector{2.0, 1.5, 0.5, 10.0}
)

const (
	circleRadius    = 10.0
	circleRate      = 0.3
	circleZRate     = 0.1
	circleAVelocity = 5.0
)

// Offset is the displacement from base of a time-driven pattern after
// t seconds. RandomWalk is not time-driven and always yields 0.
func Offset(id ID, a axis.Axis, t float64) float64 {
	if !a.IsValid() {
		return 0
	}
	switch id {
	case SineWave:
		return sineAmplitude[a] * math.Sin(t*sineRate[a]+sinePhase[a])
	case Circular:
		switch a {
		case axis.X:
			return circleRadius * math.Cos(t*circleRate)
		case axis.Y:
			return circleRadius * math.Sin(t*circleRate)
		case axis.Z:
			return math.Sin(t * circleZRate)
		default:
			return t * circleAVelocity
		}
	case LinearRamp:
		return t * rampVelocity[a]
	}
	return 0
}

// Config defines random walk parameters.
type Config struct {
	Seed         uint32
	WalkInterval time.Duration
	WalkScales   axis.Vector
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		Seed:         DefaultSeed,
		WalkInterval: 50 * time.Millisecond,
		WalkScales:   axis.Vector{0.02, 0.02, 0.01, 0.1},
	}
}

// Generator holds the test mode state.
type Generator struct {
	Config Config
	Rand   Rand

	enabled  bool
	pattern  ID
	start    time.Time
	lastStep time.Time
	base     axis.Vector
	walk     axis.Vector
}

// New creates a Generator seeded from conf.
func New(conf Config) *Generator {
	return &Generator{Config: conf, Rand: NewLCG(conf.Seed)}
}

// Enabled indicates test mode is active.
func (g *Generator) Enabled() bool {
	return g.enabled
}

// Pattern returns the selected pattern.
func (g *Generator) Pattern() ID {
	return g.pattern
}

// Base returns the positions captured when the pattern was armed.
func (g *Generator) Base() axis.Vector {
	return g.base
}

// Enable switches test mode. Enabling always re-arms: the current
// positions become the base and the pattern clock restarts, even if
// test mode was already on.
func (g *Generator) Enable(on bool, now time.Time, current axis.Vector) {
	g.enabled = on
	if on {
		g.arm(now, current)
	}
}

// SetPattern selects a pattern, re-arming if test mode is on.
func (g *Generator) SetPattern(id ID, now time.Time, current axis.Vector) error {
	if !id.IsValid() {
		return fmt.Errorf("%w: %d", ErrUnknownPattern, id)
	}
	g.pattern = id
	if g.enabled {
		g.arm(now, current)
	}
	return nil
}

func (g *Generator) arm(now time.Time, current axis.Vector) {
	g.start, g.lastStep = now, now
	g.base, g.walk = current, current
}

// Sample returns the position of one axis of a time-driven pattern
// after elapsed seconds. For RandomWalk it returns the running position.
func (g *Generator) Sample(a axis.Axis, elapsed float64) float64 {
	if !a.IsValid() {
		return 0
	}
	if g.pattern == RandomWalk {
		return g.walk[a]
	}
	return g.base[a] + Offset(g.pattern, a, elapsed)
}

// Update computes all positions at now. RandomWalk takes at most one
// step per WalkInterval and accumulates it onto the running positions.
func (g *Generator) Update(now time.Time) (pos axis.Vector) {
	if g.pattern == RandomWalk && now.Sub(g.lastStep) >= g.Config.WalkInterval {
		for _, a := range axis.All {
			g.walk[a] += g.Rand.Next() * g.Config.WalkScales[a]
		}
		g.lastStep = now
	}
	elapsed := now.Sub(g.start).Seconds()
	for _, a := range axis.All {
		pos[a] = g.Sample(a, elapsed)
	}
	return
}
