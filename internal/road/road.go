package road

import (
	"enduro-clone/internal/common"
	"enduro-clone/internal/sim"
)

// Curve schedule tuning. Sections alternate straight / curve.
const (
	SectionSeconds = 4.0  // length of one straight or curve section
	EaseSeconds    = 1.0  // blend time between section targets
	MinCurve       = 0.35 // weakest curve magnitude
	StraightBelow  = 0.05 // |curvature| under this reports Straight
)

// Direction of the road at a given tick.
type Direction int

const (
	Straight Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "straight"
	}
}

// Segment is the road state for one tick.
// Curvature is in [-1, 1]; positive bends right.
type Segment struct {
	Tick      int
	Curvature float64
	Direction Direction
}

// Road produces the curvature sequence. Advance is a pure function of the
// seed and the tick, so the sequence is lazy, infinite and restartable.
type Road struct {
	seed         uint64
	sectionTicks int
	easeTicks    int
}

// New builds a road for the given configuration (defaults applied).
func New(cfg sim.Config) *Road {
	r := &Road{
		sectionTicks: max(1, cfg.Ticks(SectionSeconds)),
		easeTicks:    max(1, cfg.Ticks(EaseSeconds)),
	}
	r.Reset(cfg.Seed)
	return r
}

// Reset selects the schedule for a new seed.
func (r *Road) Reset(seed uint64) {
	r.seed = seed
}

// Advance returns the segment at tick.
func (r *Road) Advance(tick int) Segment {
	if tick < 0 {
		tick = 0
	}
	section := tick / r.sectionTicks
	into := tick % r.sectionTicks

	c := r.target(section)
	if into < r.easeTicks {
		prev := r.target(section - 1)
		c = prev + (c-prev)*common.Smoothstep(float64(into)/float64(r.easeTicks))
	}

	seg := Segment{Tick: tick, Curvature: c}
	switch {
	case c >= StraightBelow:
		seg.Direction = Right
	case c <= -StraightBelow:
		seg.Direction = Left
	}
	return seg
}

// SectionTicks is the length of one schedule section.
func (r *Road) SectionTicks() int {
	return r.sectionTicks
}

func (r *Road) target(section int) float64 {
	if section < 0 || section%2 == 0 {
		return 0
	}
	n := uint64(section)
	mag := MinCurve + (1-MinCurve)*common.Unit(r.seed, 2*n)
	if common.Unit(r.seed, 2*n+1) < 0.5 {
		return -mag
	}
	return mag
}
