package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enduro-clone/internal/env"
	"enduro-clone/internal/road"
	"enduro-clone/internal/sim"
)

func baseObs() env.Observation {
	return env.Observation{
		Vehicle: env.Vehicle{SpeedFrac: 0.5},
		Road: env.RoadView{
			DrivableHalf:   50,
			PlayerLeft:     25,
			PlayerRight:    135,
			PlayerProgress: 0.9,
		},
	}
}

func TestDiscretizeState_Vehicle(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*env.Observation)
		want   State
	}{
		{"centered", func(o *env.Observation) {}, State{SpeedLevel: 2}},
		{"hard left", func(o *env.Observation) { o.Vehicle.Offset = -45 }, State{LaneIdx: -2, SpeedLevel: 2}},
		{"slightly right", func(o *env.Observation) { o.Vehicle.Offset = 20 }, State{LaneIdx: 1, SpeedLevel: 2}},
		{"crawling", func(o *env.Observation) { o.Vehicle.SpeedFrac = 0 }, State{}},
		{"flat out", func(o *env.Observation) { o.Vehicle.SpeedFrac = 1 }, State{SpeedLevel: 3}},
		{"right bend", func(o *env.Observation) { o.Road.Segment.Direction = road.Right }, State{SpeedLevel: 2, Curve: 1}},
		{"recovering", func(o *env.Observation) { o.Vehicle.CrashTicks = 5 }, State{SpeedLevel: 2, Recovering: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := baseObs()
			tt.mutate(&obs)
			assert.Equal(t, tt.want, DiscretizeState(obs))
		})
	}
}

func TestDiscretizeState_NearestEnemyAhead(t *testing.T) {
	obs := baseObs()
	obs.Enemies = []env.EnemyView{
		{ID: 1, Lane: 0, Progress: 0.95, Visible: true}, // already behind us
		{ID: 2, Lane: 2, Progress: 0.8, Visible: true},
		{ID: 3, Lane: 1, Progress: 0.2, Visible: true},
	}
	s := DiscretizeState(obs)
	assert.Equal(t, 1, s.EnemyRel)
	assert.Equal(t, 3, s.EnemyDist)

	obs.Enemies[1].Visible = false
	s = DiscretizeState(obs)
	assert.Equal(t, 0, s.EnemyRel)
	assert.Equal(t, 1, s.EnemyDist)
}

func TestSelectAction_DecaysEpsilon(t *testing.T) {
	p := DefaultParams()
	p.Decay = 0.5
	a := NewAgent(p)

	for range 20 {
		act := a.SelectAction(State{})
		require.GreaterOrEqual(t, act, 0)
		require.Less(t, act, ActionCount)
	}
	assert.Equal(t, p.MinEpsilon, a.Epsilon())
}

func TestGreedy_PicksBestAction(t *testing.T) {
	a := NewAgent(DefaultParams())
	s := State{SpeedLevel: 1}
	var q [ActionCount]float64
	q[4] = 2
	q[6] = 1
	a.QTable[s] = q

	for range 10 {
		assert.Equal(t, 4, a.Greedy(s))
	}
}

func TestLearn_BellmanUpdate(t *testing.T) {
	p := DefaultParams()
	p.Alpha, p.Gamma = 0.5, 0.9
	a := NewAgent(p)
	s, next := State{LaneIdx: 1}, State{LaneIdx: 2}

	var q [ActionCount]float64
	q[2] = 10
	a.QTable[next] = q

	a.Learn(s, 3, 1, next, false)
	assert.InDelta(t, 0.5*(1+0.9*10), a.QTable[s][3], 1e-12)

	// Terminal transitions ignore the next state's value.
	a.Learn(State{}, 0, 1, next, true)
	assert.InDelta(t, 0.5, a.QTable[State{}][0], 1e-12)
}

func TestAgent_SameSeedSameChoices(t *testing.T) {
	a := NewAgent(DefaultParams())
	b := NewAgent(DefaultParams())
	for i := range 200 {
		s := State{SpeedLevel: i % 4}
		require.Equal(t, a.SelectAction(s), b.SelectAction(s))
	}
}

func TestAgent_DrivesEnvironment(t *testing.T) {
	e, err := env.New(sim.Default())
	require.NoError(t, err)
	a := NewAgent(DefaultParams())

	obs := e.Reset()
	state := DiscretizeState(obs)
	for range 3000 {
		act := a.SelectAction(state)
		next, reward, done := e.Step(env.Discrete[act])
		nextState := DiscretizeState(next)
		a.Learn(state, act, reward, nextState, done)
		state = nextState
		if done {
			state = DiscretizeState(e.Reset())
		}
	}
	assert.NotEmpty(t, a.QTable)
	assert.Contains(t, a.DebugInfoStr(), "Q-Table Size")
}
