package common

import "math"

// Vec2 is a screen-space point. Y grows downward, toward the player.
type Vec2 struct {
	X, Y float64
}

// Add adds two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub subtracts other from v.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Lerp interpolates from v toward other by t.
func (v Vec2) Lerp(other Vec2, t float64) Vec2 {
	return Vec2{v.X + (other.X-v.X)*t, v.Y + (other.Y-v.Y)*t}
}

// Rect is an axis-aligned box described by its center and full size.
type Rect struct {
	Center Vec2
	W, H   float64
}

// RectAt builds a box centered on (x, y).
func RectAt(x, y, w, h float64) Rect {
	return Rect{Center: Vec2{X: x, Y: y}, W: w, H: h}
}

func (r Rect) Left() float64   { return r.Center.X - r.W/2 }
func (r Rect) Right() float64  { return r.Center.X + r.W/2 }
func (r Rect) Top() float64    { return r.Center.Y - r.H/2 }
func (r Rect) Bottom() float64 { return r.Center.Y + r.H/2 }

// Overlaps reports whether the interiors of two boxes intersect.
// Boxes that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right() && o.Left() < r.Right() &&
		r.Top() < o.Bottom() && o.Top() < r.Bottom()
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Smoothstep eases t in [0,1] with zero slope at both ends.
func Smoothstep(t float64) float64 {
	t = Clamp(t, 0, 1)
	return t * t * (3 - 2*t)
}
