package road

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enduro-clone/internal/sim"
)

func TestEdges_ConvergeToSinglePixel(t *testing.T) {
	g := NewGeometry(sim.Default())
	for _, c := range []float64{-1, -0.4, 0, 0.6, 1} {
		seg := Segment{Curvature: c}
		l, r := g.Edges(g.HorizonY, seg)
		assert.Equal(t, l, r, "curvature %v", c)

		x, y := g.VanishingPoint(seg)
		assert.Equal(t, l, x)
		assert.Equal(t, int(g.HorizonY), y)
	}
}

func TestEdges_WidthShrinksTowardHorizon(t *testing.T) {
	g := NewGeometry(sim.Default())
	seg := Segment{Curvature: 0.8}

	prevSpan := -1
	for y := g.HorizonY; y <= g.BottomY; y++ {
		l, r := g.Edges(y, seg)
		span := r - l
		assert.GreaterOrEqual(t, span, prevSpan, "row %v", y)
		prevSpan = span
	}
	l, r := g.Edges(g.BottomY, seg)
	assert.Equal(t, int(g.BottomWidth/2+0.5)*2, r-l)
}

func TestCenter_CurvatureBendsFarRoadOnly(t *testing.T) {
	g := NewGeometry(sim.Default())
	straight := Segment{}
	right := Segment{Curvature: 1}
	left := Segment{Curvature: -1}

	assert.Equal(t, g.ScreenWidth/2, g.Center(g.BottomY, right))
	assert.Greater(t, g.Center(g.HorizonY, right), g.Center(g.HorizonY, straight))
	assert.Less(t, g.Center(g.HorizonY, left), g.Center(g.HorizonY, straight))
}

func TestLaneX_OrderedAndInsideRoad(t *testing.T) {
	g := NewGeometry(sim.Default())
	seg := Segment{Curvature: -0.5}
	y := g.PlayerY
	l, r := g.Edges(y, seg)

	prev := float64(l)
	for lane := 0; lane < Lanes; lane++ {
		x := g.LaneX(lane, y, seg)
		assert.Greater(t, x, prev)
		assert.Less(t, x, float64(r))
		prev = x
	}
	assert.InDelta(t, g.Center(y, seg), g.LaneX(1, y, seg), 1e-9)
}

func TestDrivableHalfWidth_NarrowsInCurves(t *testing.T) {
	g := NewGeometry(sim.Default())
	straight := g.DrivableHalfWidth(Segment{})
	curve := g.DrivableHalfWidth(Segment{Curvature: -1})
	assert.Greater(t, straight, curve)
	assert.Greater(t, curve, 0.0)
	assert.InDelta(t, g.Width(g.PlayerY)/2-g.CarWidth/2, straight, 1e-9)
}

func TestDepthAndRowAt_RoundTrip(t *testing.T) {
	g := NewGeometry(sim.Default())
	assert.Equal(t, 0.0, g.Depth(g.HorizonY-10))
	assert.Equal(t, 1.0, g.Depth(g.BottomY+10))
	for _, p := range []float64{0, 0.25, 0.5, 1} {
		assert.InDelta(t, p, g.Depth(g.RowAt(p)), 1e-9)
	}
	assert.Greater(t, g.DespawnProgress(), 1.0)
	assert.InDelta(t, g.PlayerY, g.RowAt(g.PlayerProgress()), 1e-9)
}
