package env

import (
	"cmp"
	"slices"

	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/road"
	"enduro-clone/internal/sim"
)

// Vehicle is the player as seen by renderers and agents.
type Vehicle struct {
	Offset     float64 // pixels from the road center
	X, Y       float64 // screen center
	Speed      float64
	SpeedFrac  float64 // speed mapped onto [0,1]
	Gear       int
	Steering   int
	Drift      float64
	CrashTicks int
}

// RoadView is the road geometry for the current tick.
type RoadView struct {
	Segment        road.Segment
	VanishX        int
	VanishY        int
	PlayerLeft     int // road edge columns on the player's row
	PlayerRight    int
	DrivableHalf   float64
	HorizonY       float64
	BottomY        float64
	BottomWidth    float64
	PlayerProgress float64 // enemy progress that lines up with the player
}

// EnemyView is one live enemy. Hidden enemies are present but should not
// be drawn or fed to agents.
type EnemyView struct {
	ID       int
	Lane     int
	Progress float64
	X, Y     float64
	Visible  bool
}

// Observation is a snapshot of the whole simulation. It shares no memory
// with the environment.
type Observation struct {
	Tick     int
	Vehicle  Vehicle
	Road     RoadView
	Enemies  []EnemyView // nearest first
	Day      daycycle.DayState
	Score    int
	Terminal bool

	norm normalizer
}

type normalizer struct {
	crashTicks int
	dayLength  int
	maxEnemies int
}

// FeatureCount is the length of Observation.Features for cfg.
func FeatureCount(cfg sim.Config) int {
	return 8 + 2*cfg.MaxEnemies
}

// Features flattens the observation into values in [0,1]:
// offset, speed, curvature, recovery, day time left, pass progress,
// phase, state, then lane and progress of each visible enemy, nearest
// first, zero padded.
func (o Observation) Features() []float32 {
	out := make([]float32, 8+2*o.norm.maxEnemies)

	half := o.Road.DrivableHalf
	if half > 0 {
		out[0] = unit((o.Vehicle.Offset/half + 1) / 2)
	} else {
		out[0] = 0.5
	}
	out[1] = unit(o.Vehicle.SpeedFrac)
	out[2] = unit((o.Road.Segment.Curvature + 1) / 2)
	if o.norm.crashTicks > 0 {
		out[3] = unit(float64(o.Vehicle.CrashTicks) / float64(o.norm.crashTicks))
	}
	if o.norm.dayLength > 0 {
		out[4] = unit(float64(o.Day.TicksRemaining) / float64(o.norm.dayLength))
	}
	if o.Day.Required > 0 {
		out[5] = unit(float64(o.Day.Passed) / float64(o.Day.Required))
	}
	out[6] = unit(float64(o.Day.Phase) / float64(daycycle.PhaseDawn))
	out[7] = unit(float64(o.Day.State) / float64(daycycle.Terminal))

	i := 8
	for _, e := range o.Enemies {
		if !e.Visible || i+1 >= len(out) {
			continue
		}
		out[i] = unit(float64(e.Lane) / float64(road.Lanes-1))
		out[i+1] = unit(e.Progress)
		i += 2
	}
	return out
}

func unit(v float64) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return float32(v)
}

// observe builds a fresh snapshot of the environment state.
func (e *Env) observe() Observation {
	seg := e.seg
	vx, vy := e.geom.VanishingPoint(seg)
	pl, pr := e.geom.Edges(e.geom.PlayerY, seg)
	day := e.cycle.Snapshot()

	active := e.traffic.Active()
	enemies := make([]EnemyView, 0, len(active))
	for _, en := range active {
		y := e.geom.RowAt(en.Progress)
		enemies = append(enemies, EnemyView{
			ID:       en.ID,
			Lane:     en.Lane,
			Progress: en.Progress,
			X:        e.geom.LaneX(en.Lane, y, seg),
			Y:        y,
			Visible:  day.Phase.Visible(en.Progress),
		})
	}
	slices.SortFunc(enemies, func(a, b EnemyView) int {
		if c := cmp.Compare(b.Progress, a.Progress); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return Observation{
		Tick: e.tick,
		Vehicle: Vehicle{
			Offset:     e.car.Offset,
			X:          e.geom.PlayerCenter(seg) + e.car.Offset,
			Y:          e.geom.PlayerY,
			Speed:      e.car.Speed,
			SpeedFrac:  e.car.SpeedFraction(),
			Gear:       e.car.Gear(),
			Steering:   e.car.Steering,
			Drift:      e.car.Drift,
			CrashTicks: e.car.CrashTicks,
		},
		Road: RoadView{
			Segment:        seg,
			VanishX:        vx,
			VanishY:        vy,
			PlayerLeft:     pl,
			PlayerRight:    pr,
			DrivableHalf:   e.geom.DrivableHalfWidth(seg),
			HorizonY:       e.geom.HorizonY,
			BottomY:        e.geom.BottomY,
			BottomWidth:    e.geom.BottomWidth,
			PlayerProgress: e.geom.PlayerProgress(),
		},
		Enemies:  enemies,
		Day:      day,
		Score:    e.scorer.Score(),
		Terminal: day.State == daycycle.Terminal,
		norm: normalizer{
			crashTicks: e.cfg.CrashNoopDuration,
			dayLength:  e.cfg.DayLength,
			maxEnemies: e.cfg.MaxEnemies,
		},
	}
}
