package traffic

import (
	"math/rand/v2"

	"enduro-clone/internal/common"
	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/physics"
	"enduro-clone/internal/road"
	"enduro-clone/internal/sim"
)

// Time for an enemy to travel from the vanishing point to the bottom of the
// playfield, at the player's minimum and maximum speed.
const (
	MinSpeedTraversal = 0.5 // seconds
	MaxSpeedTraversal = 0.4 // seconds
)

// Enemy is one slot of the pool. Progress runs from 0 at the vanishing
// point to 1 at the playfield bottom.
type Enemy struct {
	ID           int
	Lane         int
	Progress     float64
	PrevProgress float64
	Alive        bool
}

// EventKind tags an Event.
type EventKind int

const (
	Spawned EventKind = iota
	Advanced
	Despawned
)

func (k EventKind) String() string {
	switch k {
	case Spawned:
		return "spawned"
	case Advanced:
		return "advanced"
	case Despawned:
		return "despawned"
	}
	return "unknown"
}

// Event describes one change to the pool during a Tick.
type Event struct {
	Kind     EventKind
	ID       int
	Lane     int
	Progress float64
}

// Stats counts pool activity since the last Reset.
type Stats struct {
	Spawned   int
	Dropped   int // spawn rolls lost to a full pool or blocked lanes
	Despawned int
}

// Spawner owns the bounded enemy pool.
type Spawner struct {
	pool     []Enemy
	nextID   int
	rng      *rand.Rand
	tickRate float64
	despawn  float64

	stats  Stats
	events []Event
}

// New builds an empty pool with room for cfg.MaxEnemies cars.
func New(cfg sim.Config, geom road.Geometry) *Spawner {
	s := &Spawner{
		pool:     make([]Enemy, cfg.MaxEnemies),
		tickRate: float64(cfg.TickRate),
		despawn:  geom.DespawnProgress(),
		events:   make([]Event, 0, cfg.MaxEnemies*2+1),
	}
	s.Reset(cfg.Seed)
	return s
}

// Reset empties the pool and reseeds lane and timing choices.
func (s *Spawner) Reset(seed uint64) {
	for i := range s.pool {
		s.pool[i] = Enemy{}
	}
	s.nextID = 1
	s.rng = common.NewRand(seed)
	s.stats = Stats{}
	s.events = s.events[:0]
}

// Tick moves every enemy, removes those that left the screen and rolls for
// a new spawn. The returned slice is reused by the next Tick.
func (s *Spawner) Tick(level daycycle.Level, car *physics.Car) []Event {
	s.events = s.events[:0]
	step := s.Step(car)

	for i := range s.pool {
		e := &s.pool[i]
		if !e.Alive {
			continue
		}
		e.PrevProgress = e.Progress
		e.Progress += step
		if e.Progress > s.despawn {
			e.Alive = false
			s.stats.Despawned++
			s.events = append(s.events, Event{Kind: Despawned, ID: e.ID, Lane: e.Lane, Progress: e.Progress})
			continue
		}
		s.events = append(s.events, Event{Kind: Advanced, ID: e.ID, Lane: e.Lane, Progress: e.Progress})
	}

	if s.rng.Float64() < level.SpawnRate/s.tickRate {
		s.spawn(level.MinSpawnGap)
	}
	return s.events
}

// Step is the progress an enemy gains this tick. Faster player, faster
// approach; while recovering from a crash the player counts as stopped.
func (s *Spawner) Step(car *physics.Car) float64 {
	frac := car.SpeedFraction()
	if car.Recovering() {
		frac = 0
	}
	secs := MinSpeedTraversal + (MaxSpeedTraversal-MinSpeedTraversal)*frac
	return 1 / (secs * s.tickRate)
}

// spawn places a car at the vanishing point in a random open lane. A lane is
// open when no live car in it is closer to the vanishing point than gap.
// At least one lane near the horizon always stays free so that traffic
// never forms a wall. Full pool or no open lane drops the request.
func (s *Spawner) spawn(gap float64) {
	slot := -1
	var busy [road.Lanes]bool
	busyCount := 0
	for i := range s.pool {
		e := &s.pool[i]
		if !e.Alive {
			if slot < 0 {
				slot = i
			}
			continue
		}
		if e.Progress < gap && !busy[e.Lane] {
			busy[e.Lane] = true
			busyCount++
		}
	}
	if slot < 0 || busyCount >= road.Lanes-1 {
		s.stats.Dropped++
		return
	}

	open := make([]int, 0, road.Lanes)
	for lane, b := range busy {
		if !b {
			open = append(open, lane)
		}
	}
	lane := open[s.rng.IntN(len(open))]

	s.pool[slot] = Enemy{ID: s.nextID, Lane: lane, Alive: true}
	s.nextID++
	s.stats.Spawned++
	s.events = append(s.events, Event{Kind: Spawned, ID: s.pool[slot].ID, Lane: lane})
}

// Despawn frees the slot holding id. It reports whether a live car was removed.
func (s *Spawner) Despawn(id int) bool {
	for i := range s.pool {
		if s.pool[i].Alive && s.pool[i].ID == id {
			s.pool[i].Alive = false
			s.stats.Despawned++
			return true
		}
	}
	return false
}

// Active returns copies of the live cars in slot order.
func (s *Spawner) Active() []Enemy {
	out := make([]Enemy, 0, len(s.pool))
	for _, e := range s.pool {
		if e.Alive {
			out = append(out, e)
		}
	}
	return out
}

// AliveCount is the number of live cars.
func (s *Spawner) AliveCount() int {
	n := 0
	for _, e := range s.pool {
		if e.Alive {
			n++
		}
	}
	return n
}

// Capacity is the pool size.
func (s *Spawner) Capacity() int {
	return len(s.pool)
}

// Stats returns the counters since the last Reset.
func (s *Spawner) Stats() Stats {
	return s.stats
}
