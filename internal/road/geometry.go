package road

import (
	"math"

	"enduro-clone/internal/sim"
)

// Lanes is the number of traffic lanes.
const Lanes = 3

// Screen layout tuning.
const (
	HorizonRatio     = 0.3  // horizon row as a share of the playfield height
	BottomWidthRatio = 0.75 // road width at the playfield bottom, share of screen width
	CurveShiftRatio  = 0.3  // max vanishing point shift, share of screen width
	PlayerMargin     = 4.0  // gap between the player car and the playfield bottom
	EdgeNarrowing    = 0.2  // drivable width lost at full curvature
)

// Geometry projects the road onto the screen. The road is a strip whose
// width shrinks linearly to zero at the horizon, where both edges meet in
// a single pixel (the vanishing point).
type Geometry struct {
	ScreenWidth float64
	HorizonY    float64
	BottomY     float64
	BottomWidth float64
	CurveShift  float64
	PlayerY     float64 // center row of the player car
	CarWidth    float64
	CarHeight   float64
}

// NewGeometry derives the layout from a validated configuration.
func NewGeometry(cfg sim.Config) Geometry {
	pf := float64(cfg.PlayfieldHeight())
	sw := float64(cfg.ScreenWidth)
	ch := float64(cfg.CarHeight)
	return Geometry{
		ScreenWidth: sw,
		HorizonY:    math.Max(sim.MinHorizonPixels, math.Round(pf*HorizonRatio)),
		BottomY:     pf,
		BottomWidth: math.Round(sw * BottomWidthRatio),
		CurveShift:  sw * CurveShiftRatio,
		PlayerY:     pf - PlayerMargin - ch/2,
		CarWidth:    float64(cfg.CarWidth),
		CarHeight:   ch,
	}
}

// Depth maps a row to [0,1]: 0 at the horizon, 1 at the playfield bottom.
func (g Geometry) Depth(y float64) float64 {
	span := g.BottomY - g.HorizonY
	if span <= 0 {
		return 1
	}
	d := (y - g.HorizonY) / span
	return math.Max(0, math.Min(1, d))
}

// RowAt is the inverse of Depth for progress values; it is not clamped so
// that cars leaving the bottom of the screen keep moving.
func (g Geometry) RowAt(progress float64) float64 {
	return g.HorizonY + progress*(g.BottomY-g.HorizonY)
}

// Width is the road width at row y.
func (g Geometry) Width(y float64) float64 {
	return g.BottomWidth * g.Depth(y)
}

// Center is the road center at row y. Curvature bends the far part of the
// road; the bottom rows stay centered.
func (g Geometry) Center(y float64, seg Segment) float64 {
	far := 1 - g.Depth(y)
	return g.ScreenWidth/2 + seg.Curvature*g.CurveShift*far*far
}

// Edges returns the leftmost and rightmost road pixel columns at row y.
// The span is 2*half+1 pixels with half non-decreasing toward the bottom,
// so at the horizon left == right.
func (g Geometry) Edges(y float64, seg Segment) (left, right int) {
	c := int(math.Floor(g.Center(y, seg) + 0.5))
	half := int(math.Floor(g.Width(y)/2 + 0.5))
	return c - half, c + half
}

// VanishingPoint is the single pixel where the road edges converge.
func (g Geometry) VanishingPoint(seg Segment) (x, y int) {
	l, _ := g.Edges(g.HorizonY, seg)
	return l, int(g.HorizonY)
}

// LaneX is the center column of a lane at row y.
func (g Geometry) LaneX(lane int, y float64, seg Segment) float64 {
	laneWidth := g.Width(y) / Lanes
	return g.Center(y, seg) + (float64(lane)-float64(Lanes-1)/2)*laneWidth
}

// PlayerCenter is the road center on the player's row.
func (g Geometry) PlayerCenter(seg Segment) float64 {
	return g.Center(g.PlayerY, seg)
}

// PlayerProgress is the enemy progress value that lines up with the
// player's center row.
func (g Geometry) PlayerProgress() float64 {
	return g.Depth(g.PlayerY)
}

// DrivableHalfWidth is how far the player's center may sit from the road
// center before the car touches an edge. Curves narrow it.
func (g Geometry) DrivableHalfWidth(seg Segment) float64 {
	half := g.Width(g.PlayerY) / 2 * (1 - EdgeNarrowing*math.Abs(seg.Curvature))
	return math.Max(0, half-g.CarWidth/2)
}

// DespawnProgress is the progress past which a car is fully below the
// playfield.
func (g Geometry) DespawnProgress() float64 {
	span := g.BottomY - g.HorizonY
	if span <= 0 {
		return 1
	}
	return 1 + (g.CarHeight/2)/span
}
