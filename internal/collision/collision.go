package collision

import (
	"math"

	"enduro-clone/internal/common"
	"enduro-clone/internal/physics"
	"enduro-clone/internal/road"
	"enduro-clone/internal/traffic"
)

// Kind tags an Event.
type Kind int

const (
	Crash   Kind = iota // player footprint overlaps an enemy
	Pass                // an enemy moved from ahead of the player to behind it
	EdgeHit             // player footprint left the drivable width
)

func (k Kind) String() string {
	switch k {
	case Crash:
		return "crash"
	case Pass:
		return "pass"
	case EdgeHit:
		return "edge_hit"
	}
	return "unknown"
}

// Event is one detector finding. EnemyID is set for Crash and Pass, Side
// (-1 left, 1 right) for EdgeHit.
type Event struct {
	Kind    Kind
	EnemyID int
	Side    int
}

// Events is the detector output for one tick.
type Events []Event

// Count returns how many events of kind k are present.
func (ev Events) Count(k Kind) int {
	n := 0
	for _, e := range ev {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Has reports whether any event of kind k is present.
func (ev Events) Has(k Kind) bool {
	return ev.Count(k) > 0
}

// PlayerRect is the player footprint on screen.
func PlayerRect(car *physics.Car, seg road.Segment, geom road.Geometry) common.Rect {
	return common.RectAt(geom.PlayerCenter(seg)+car.Offset, geom.PlayerY, geom.CarWidth, geom.CarHeight)
}

// EnemyRect is an enemy footprint on screen.
func EnemyRect(e traffic.Enemy, seg road.Segment, geom road.Geometry) common.Rect {
	y := geom.RowAt(e.Progress)
	return common.RectAt(geom.LaneX(e.Lane, y, seg), y, geom.CarWidth, geom.CarHeight)
}

// Check inspects one tick without changing anything.
//
// A car that is still recovering from a crash cannot crash again and does
// not earn passes; enemies drive past it. Cars that cross the player row
// during recovery are forfeited and never reported as passes. A recovering
// car produces no edge hits either.
func Check(car *physics.Car, enemies []traffic.Enemy, seg road.Segment, geom road.Geometry) Events {
	var out Events
	player := PlayerRect(car, seg, geom)
	row := geom.PlayerProgress()
	recovering := car.Recovering()

	for _, e := range enemies {
		if !e.Alive {
			continue
		}
		overlap := player.Overlaps(EnemyRect(e, seg, geom))
		switch {
		case recovering:
			continue
		case overlap:
			out = append(out, Event{Kind: Crash, EnemyID: e.ID})
		case e.PrevProgress < row && e.Progress >= row:
			out = append(out, Event{Kind: Pass, EnemyID: e.ID})
		}
	}

	if recovering {
		return out
	}
	if half := geom.DrivableHalfWidth(seg); math.Abs(car.Offset) > half {
		side := 1
		if car.Offset < 0 {
			side = -1
		}
		out = append(out, Event{Kind: EdgeHit, Side: side})
	}
	return out
}
