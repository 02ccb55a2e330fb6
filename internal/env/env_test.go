package env

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enduro-clone/internal/collision"
	"enduro-clone/internal/common"
	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/sim"
)

func newEnv(t *testing.T, cfg sim.Config, opts ...Option) *Env {
	t.Helper()
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	return e
}

// unwinnable returns a config whose first day can only be lost.
func unwinnable(dayLength int) sim.Config {
	cfg := sim.Default()
	cfg.DayLength = dayLength
	cfg.InitialCarsToPass = 1000
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sim.Config)
	}{
		{"zero width", func(c *sim.Config) { c.ScreenWidth = 0 }},
		{"negative enemies", func(c *sim.Config) { c.MaxEnemies = -1 }},
		{"zero day", func(c *sim.Config) { c.DayLength = 0 }},
		{"inverted speeds", func(c *sim.Config) { c.MinSpeed, c.MaxSpeed = 5, 2 }},
		{"negative tick rate", func(c *sim.Config) { c.TickRate = -60 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sim.Default()
			tt.mutate(&cfg)
			e, err := New(cfg)
			assert.ErrorIs(t, err, sim.ErrInvalidConfig)
			assert.Nil(t, e)
		})
	}
}

func TestNew_RejectsInvalidTable(t *testing.T) {
	table := daycycle.DefaultTable()
	table.MaxCarsFactor = 0
	_, err := New(sim.Default(), WithTable(table))
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestNew_FillsOptionalDefaults(t *testing.T) {
	cfg := sim.Default()
	cfg.HUDHeight, cfg.TickRate, cfg.VictoryDuration, cfg.Seed = 0, 0, 0, 0
	e := newEnv(t, cfg)
	assert.Equal(t, sim.Default(), e.Config())
}

func TestReset_Idempotent(t *testing.T) {
	e := newEnv(t, sim.Default())
	first := e.Reset()
	second := e.Reset()
	assert.Equal(t, first, second)

	for range 500 {
		e.Step(Accelerate | Right)
	}
	assert.Equal(t, first, e.Reset(), "reset after play matches a fresh reset")
	assert.Equal(t, Stats{Day: 1}, e.Stats())
	assert.Empty(t, e.Events())
}

func TestStep_DeterministicForSeed(t *testing.T) {
	a := newEnv(t, sim.Default())
	b := newEnv(t, sim.Default())
	rng := common.NewRand(99)

	for i := range 3000 {
		act := Discrete[rng.IntN(DiscreteCount)]
		obsA, rA, dA := a.Step(act)
		obsB, rB, dB := b.Step(act)
		require.Equal(t, obsA, obsB, "tick %d", i)
		require.Equal(t, rA, rB)
		require.Equal(t, dA, dB)
	}
	assert.Equal(t, a.Stats(), b.Stats())
}

func TestResetSeed_ChangesTraffic(t *testing.T) {
	e := newEnv(t, sim.Default())
	run := func(seed uint64) []int {
		e.ResetSeed(seed)
		var lanes []int
		for range 2000 {
			obs, _, _ := e.Step(Accelerate)
			for _, en := range obs.Enemies {
				if en.Progress == 0 {
					lanes = append(lanes, en.Lane)
				}
			}
		}
		return lanes
	}
	assert.NotEqual(t, run(1), run(2))
}

func TestStep_LossIsTerminal(t *testing.T) {
	cfg := unwinnable(1000)
	e := newEnv(t, cfg)

	var done bool
	var obs Observation
	for i := 1; i <= cfg.DayLength; i++ {
		obs, _, done = e.Step(Accelerate)
		if i < cfg.DayLength {
			require.False(t, done, "terminal before the countdown ran out at tick %d", i)
		}
	}
	require.True(t, done)
	assert.True(t, obs.Terminal)
	assert.Equal(t, daycycle.Terminal, obs.Day.State)
	assert.Zero(t, obs.Day.TicksRemaining)
	assert.Less(t, obs.Day.Passed, obs.Day.Required)
	assert.True(t, e.Terminal())

	// Terminal absorbs further steps until reset.
	again, reward, done := e.Step(Accelerate | Left)
	assert.True(t, done)
	assert.Zero(t, reward)
	assert.Equal(t, obs, again)
	assert.Empty(t, e.Events())

	assert.False(t, e.Reset().Terminal)
}

func TestStep_VictoryStartsNextDay(t *testing.T) {
	cfg := sim.Default()
	cfg.DayLength = 100000
	cfg.InitialCarsToPass = 1
	e := newEnv(t, cfg)

	var obs Observation
	won := 0
	for range 20000 {
		obs, _, _ = e.Step(Accelerate)
		if obs.Day.State == daycycle.Victory {
			won = obs.Tick
			break
		}
	}
	require.NotZero(t, won, "never passed a car")
	assert.GreaterOrEqual(t, obs.Day.Passed, 1)
	assert.Equal(t, 1, obs.Day.DaysCompleted)
	assert.Equal(t, 1, obs.Day.Day)

	for range cfg.VictoryDuration {
		obs, _, _ = e.Step(Accelerate)
	}
	assert.Equal(t, 2, obs.Day.Day)
	assert.Equal(t, daycycle.Racing, obs.Day.State)
	assert.Equal(t, cfg.DayLength, obs.Day.TicksRemaining)
	assert.Zero(t, obs.Day.Passed)
	assert.Greater(t, obs.Day.Required, 1)
}

func TestStep_InvalidActionActsAsNoop(t *testing.T) {
	a := newEnv(t, sim.Default())
	b := newEnv(t, sim.Default())

	for range 50 {
		a.Step(Accelerate)
		b.Step(Accelerate)
	}
	obsA, rA, _ := a.Step(Action(0x40))
	obsB, rB, _ := b.Step(Noop)
	assert.Equal(t, obsB, obsA)
	assert.Equal(t, rB, rA)
	assert.Equal(t, 1, a.Stats().InvalidActions)
	assert.Zero(t, b.Stats().InvalidActions)
}

func TestStep_PoolBoundAndFeatures(t *testing.T) {
	cfg := sim.Default()
	cfg.MaxEnemies = 4
	table := daycycle.DefaultTable()
	table.SpawnRate = daycycle.Curve{Base: 30, Limit: 30}
	table.MinSpawnGap = daycycle.Curve{Base: 0.05, Limit: 0.05}
	e := newEnv(t, cfg, WithTable(table))
	rng := common.NewRand(5)

	for i := range 3000 {
		obs, _, _ := e.Step(Discrete[rng.IntN(DiscreteCount)])
		require.LessOrEqual(t, len(obs.Enemies), cfg.MaxEnemies)

		f := obs.Features()
		require.Len(t, f, FeatureCount(cfg))
		for j, v := range f {
			require.True(t, v >= 0 && v <= 1, "tick %d feature %d = %v", i, j, v)
		}
	}
	assert.Greater(t, e.TrafficStats().Dropped, 0)
}

func TestStep_EdgeIsClamped(t *testing.T) {
	e := newEnv(t, sim.Default())

	hits := 0
	for range 600 {
		obs, _, _ := e.Step(Accelerate | Right)
		require.LessOrEqual(t, obs.Vehicle.Offset, obs.Road.DrivableHalf+1e-9)
		if e.Events().Has(collision.EdgeHit) {
			hits++
		}
	}
	assert.Positive(t, hits)
	assert.Equal(t, hits, e.Stats().EdgeHits)
	assert.Less(t, e.Stats().Return, float64(e.Stats().Passes))
}

func TestStep_CrashIgnoresInputForExactDuration(t *testing.T) {
	cfg := sim.Default()
	cfg.DayLength = 100000

	for seed := uint64(1); seed <= 20; seed++ {
		cfg.Seed = seed
		e := newEnv(t, cfg)

		crashed := false
		for range 20000 {
			e.Step(Accelerate)
			if e.Events().Has(collision.Crash) {
				crashed = true
				break
			}
		}
		if !crashed {
			continue
		}

		obs := e.Observation()
		require.Equal(t, cfg.CrashNoopDuration, obs.Vehicle.CrashTicks)
		assert.GreaterOrEqual(t, e.Stats().Crashes, 1)

		speed := obs.Vehicle.Speed
		for k := 1; k <= cfg.CrashNoopDuration; k++ {
			obs, _, _ = e.Step(Accelerate | Left)
			require.Zero(t, obs.Vehicle.Steering, "input applied %d ticks after the crash", k)
			require.LessOrEqual(t, obs.Vehicle.Speed, speed)
			if k < cfg.CrashNoopDuration {
				require.False(t, e.Events().Has(collision.Crash), "recovering car crashed again")
				require.False(t, e.Events().Has(collision.EdgeHit), "recovering car hit the edge")
				require.LessOrEqual(t, math.Abs(obs.Vehicle.Offset), obs.Road.DrivableHalf+1e-9)
			}
			speed = obs.Vehicle.Speed
		}
		if e.Events().Has(collision.Crash) {
			continue
		}
		assert.Zero(t, obs.Vehicle.CrashTicks)

		obs, _, _ = e.Step(Accelerate | Left)
		if e.Events().Has(collision.Crash) {
			continue
		}
		assert.Equal(t, -1, obs.Vehicle.Steering, "control resumes on the following tick")
		return
	}
	t.Fatal("no crash within 20 seeds")
}

func TestObservation_IsDeepCopy(t *testing.T) {
	e := newEnv(t, sim.Default())
	var obs Observation
	for range 2000 {
		obs, _, _ = e.Step(Accelerate)
		if len(obs.Enemies) > 0 {
			break
		}
	}
	require.NotEmpty(t, obs.Enemies)

	id := obs.Enemies[0].ID
	obs.Enemies[0].Lane = 99
	fresh := e.Observation()
	require.NotEmpty(t, fresh.Enemies)
	assert.Equal(t, id, fresh.Enemies[0].ID)
	assert.NotEqual(t, 99, fresh.Enemies[0].Lane)
}

func TestObservation_EnemiesNearestFirst(t *testing.T) {
	e := newEnv(t, sim.Default())
	for range 3000 {
		obs, _, _ := e.Step(Accelerate)
		for i := 1; i < len(obs.Enemies); i++ {
			require.GreaterOrEqual(t, obs.Enemies[i-1].Progress, obs.Enemies[i].Progress)
		}
	}
}

func TestFeatures_SkipHiddenEnemies(t *testing.T) {
	obs := Observation{
		Enemies: []EnemyView{
			{ID: 1, Lane: 2, Progress: 0.8, Visible: true},
			{ID: 2, Lane: 1, Progress: 0.3, Visible: false},
		},
		norm: normalizer{maxEnemies: 2},
	}
	f := obs.Features()
	require.Len(t, f, 12)
	assert.Equal(t, float32(1), f[8])
	assert.InDelta(t, 0.8, f[9], 1e-6)
	assert.Zero(t, f[10])
	assert.Zero(t, f[11])
}

func TestStep_LogsDayTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	e := newEnv(t, unwinnable(120), WithLogger(logger))

	for range 120 {
		e.Step(Noop)
	}
	assert.Contains(t, buf.String(), `"transition":"lost"`)
	assert.Contains(t, buf.String(), `"component":"env"`)
	assert.NotContains(t, buf.String(), `"crash"`, "debug events filtered at info level")
}
