package env

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"enduro-clone/internal/collision"
	"enduro-clone/internal/common"
	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/physics"
	"enduro-clone/internal/road"
	"enduro-clone/internal/score"
	"enduro-clone/internal/sim"
	"enduro-clone/internal/traffic"
)

// trafficStream separates the traffic random stream from the road hash.
const trafficStream = 0x7472616666696300

// Stats summarizes the current episode.
type Stats struct {
	Return         float64
	Length         int
	Score          int
	Day            int
	DaysCompleted  int
	Passes         int
	Crashes        int
	EdgeHits       int
	InvalidActions int
}

// Option configures an Env or a Vector.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	table    daycycle.Table
	weights  score.Weights
	recorder Recorder
}

func defaultOptions() options {
	return options{
		logger:  zerolog.Nop(),
		table:   daycycle.DefaultTable(),
		weights: score.DefaultWeights(),
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTable replaces the default difficulty table.
func WithTable(t daycycle.Table) Option {
	return func(o *options) { o.table = t }
}

// WithWeights replaces the default reward weights.
func WithWeights(w score.Weights) Option {
	return func(o *options) { o.weights = w }
}

// WithRecorder attaches a metrics sink. Only Vector uses it.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// Env is one independent simulation. It owns every piece of mutable
// state; callers drive it only through Reset and Step. An Env is not safe
// for concurrent use.
type Env struct {
	cfg  sim.Config
	geom road.Geometry
	log  zerolog.Logger

	road    *road.Road
	car     *physics.Car
	traffic *traffic.Spawner
	cycle   *daycycle.Cycle
	scorer  *score.Scorer

	seed    uint64
	tick    int
	seg     road.Segment
	events  collision.Events
	invalid int
}

// New validates cfg and builds an environment already in its reset state.
func New(cfg sim.Config, opts ...Option) (*Env, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := o.table.Validate(); err != nil {
		return nil, fmt.Errorf("difficulty table: %v: %w", err, sim.ErrInvalidConfig)
	}

	geom := road.NewGeometry(cfg)
	e := &Env{
		cfg:     cfg,
		geom:    geom,
		log:     o.logger.With().Str("component", "env").Uint64("seed", cfg.Seed).Logger(),
		road:    road.New(cfg),
		car:     physics.NewCar(cfg),
		traffic: traffic.New(cfg, geom),
		cycle:   daycycle.New(cfg, o.table),
		scorer:  score.New(cfg, o.weights),
	}
	e.ResetSeed(cfg.Seed)
	return e, nil
}

// Config returns the validated configuration with defaults applied.
func (e *Env) Config() sim.Config {
	return e.cfg
}

// Geometry returns the screen projection used by the environment.
func (e *Env) Geometry() road.Geometry {
	return e.geom
}

// Reset starts a new episode with the configured seed. Two Resets in a row
// produce identical observations.
func (e *Env) Reset() Observation {
	return e.ResetSeed(e.cfg.Seed)
}

// ResetSeed starts a new episode with a different seed.
func (e *Env) ResetSeed(seed uint64) Observation {
	e.seed = seed
	e.road.Reset(seed)
	e.car.Reset()
	e.traffic.Reset(common.Hash64(seed, trafficStream))
	e.cycle.Reset()
	e.scorer.Reset()
	e.tick = 0
	e.seg = e.road.Advance(0)
	e.events = e.events[:0]
	e.invalid = 0
	return e.observe()
}

// Step advances the simulation by one tick. Unknown action bits are
// counted and replaced by Noop. Once terminal, Step is a no-op returning
// the final observation until the next Reset.
func (e *Env) Step(a Action) (Observation, float64, bool) {
	e.events = e.events[:0]
	if e.cycle.State() == daycycle.Terminal {
		return e.observe(), 0, true
	}
	if !a.Valid() {
		e.invalid++
		e.log.Warn().Int("tick", e.tick).Uint8("action", uint8(a)).Msg("invalid action, using noop")
		a = Noop
	}

	e.tick++
	e.seg = e.road.Advance(e.tick)
	e.car.Update(e.seg, a.Controls(), e.cycle.Phase().Grip())
	e.traffic.Tick(e.cycle.Level(), e.car)

	ev := collision.Check(e.car, e.traffic.Active(), e.seg, e.geom)
	for _, c := range ev {
		switch c.Kind {
		case collision.Crash:
			e.car.Crash(e.cfg.CrashNoopDuration)
			e.traffic.Despawn(c.EnemyID)
			e.log.Debug().Int("tick", e.tick).Int("enemy", c.EnemyID).Msg("crash")
		case collision.EdgeHit:
			e.car.ClampToRoad(e.geom.DrivableHalfWidth(e.seg))
			e.log.Debug().Int("tick", e.tick).Int("side", c.Side).Msg("edge hit")
		}
	}
	if e.car.Recovering() {
		e.car.HoldOnRoad(e.geom.DrivableHalfWidth(e.seg))
	}
	e.events = append(e.events, ev...)

	tr := e.cycle.Tick(ev.Count(collision.Pass))
	reward := e.scorer.Update(ev)
	e.logTransition(tr)

	obs := e.observe()
	return obs, reward, obs.Terminal
}

func (e *Env) logTransition(tr daycycle.Transition) {
	if tr == daycycle.NoTransition {
		return
	}
	day := e.cycle.Snapshot()
	e.log.Info().
		Int("tick", e.tick).
		Str("transition", tr.String()).
		Int("day", day.Day).
		Int("required", day.Required).
		Int("score", e.scorer.Score()).
		Msg("day cycle")
}

// Observation returns a snapshot of the current state without stepping.
func (e *Env) Observation() Observation {
	return e.observe()
}

// Events returns a copy of the detector events from the last Step.
func (e *Env) Events() collision.Events {
	return slices.Clone(e.events)
}

// Terminal reports whether the episode has ended.
func (e *Env) Terminal() bool {
	return e.cycle.State() == daycycle.Terminal
}

// Stats returns the running episode summary.
func (e *Env) Stats() Stats {
	sc := e.scorer.Stats()
	day := e.cycle.Snapshot()
	return Stats{
		Return:         sc.Return,
		Length:         sc.Ticks,
		Score:          sc.Score,
		Day:            day.Day,
		DaysCompleted:  day.DaysCompleted,
		Passes:         sc.Passes,
		Crashes:        sc.Crashes,
		EdgeHits:       sc.EdgeHits,
		InvalidActions: e.invalid,
	}
}

// TrafficStats exposes the spawner counters for diagnostics.
func (e *Env) TrafficStats() traffic.Stats {
	return e.traffic.Stats()
}
