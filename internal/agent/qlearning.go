package agent

import (
	"fmt"
	"math"
	"math/rand/v2"

	"enduro-clone/internal/common"
	"enduro-clone/internal/env"
	"enduro-clone/internal/road"
)

// ActionCount is the number of discrete actions, see env.Discrete.
const ActionCount = env.DiscreteCount

// Default hyperparameters.
const (
	DefaultAlpha      = 0.1
	DefaultGamma      = 0.99
	DefaultMinEpsilon = 0.01
	DefaultDecay      = 0.99995
)

// Params configures a Q-table agent.
type Params struct {
	Alpha      float64 // learning rate
	Gamma      float64 // discount factor
	Epsilon    float64 // starting exploration rate
	MinEpsilon float64
	Decay      float64 // epsilon multiplier per selection
	Seed       uint64
}

// DefaultParams starts fully exploratory.
func DefaultParams() Params {
	return Params{
		Alpha:      DefaultAlpha,
		Gamma:      DefaultGamma,
		Epsilon:    1,
		MinEpsilon: DefaultMinEpsilon,
		Decay:      DefaultDecay,
		Seed:       1,
	}
}

// State is the discretized view of an observation.
type State struct {
	LaneIdx    int // lateral offset bucket (-2..2)
	SpeedLevel int // 0: crawling .. 3: flat out
	Curve      int // -1 left, 0 straight, 1 right
	Recovering bool
	EnemyRel   int // nearest car's lane relative to ours (-2..2); 0 also when none
	EnemyDist  int // 0: none, 1: far, 2: close, 3: about to reach us
}

// QTable stores the Q-values for state-action pairs.
type QTable map[State][ActionCount]float64

type Agent interface {
	SelectAction(state State) int
	Greedy(state State) int
	Learn(state State, action int, reward float64, nextState State, terminal bool)
	Epsilon() float64
	DebugInfoStr() string
}

type AgentQTable struct {
	QTable QTable

	params  Params
	epsilon float64
	rng     *rand.Rand
}

func NewAgent(p Params) *AgentQTable {
	return &AgentQTable{
		QTable:  make(QTable),
		params:  p,
		epsilon: p.Epsilon,
		rng:     common.NewRand(p.Seed),
	}
}

// DiscretizeState buckets the parts of an observation that matter for
// steering around traffic.
func DiscretizeState(obs env.Observation) State {
	s := State{Recovering: obs.Vehicle.CrashTicks > 0}

	// 1. Lateral offset, relative to the drivable half width.
	if half := obs.Road.DrivableHalf; half > 0 {
		d := obs.Vehicle.Offset / half
		switch {
		case d < -0.6:
			s.LaneIdx = -2
		case d < -0.2:
			s.LaneIdx = -1
		case d <= 0.2:
			s.LaneIdx = 0
		case d <= 0.6:
			s.LaneIdx = 1
		default:
			s.LaneIdx = 2
		}
	}

	// 2. Speed
	f := obs.Vehicle.SpeedFrac
	switch {
	case f > 0.75:
		s.SpeedLevel = 3
	case f > 0.4:
		s.SpeedLevel = 2
	case f > 0.1:
		s.SpeedLevel = 1
	}

	// 3. Curve direction
	switch obs.Road.Segment.Direction {
	case road.Left:
		s.Curve = -1
	case road.Right:
		s.Curve = 1
	}

	// 4. Nearest visible car still ahead of us.
	width := float64(obs.Road.PlayerRight - obs.Road.PlayerLeft)
	if width <= 0 {
		return s
	}
	laneWidth := width / road.Lanes
	ours := int(math.Round(obs.Vehicle.Offset/laneWidth)) + (road.Lanes-1)/2
	ours = max(0, min(road.Lanes-1, ours))

	for _, e := range obs.Enemies { // nearest first
		if !e.Visible || e.Progress > obs.Road.PlayerProgress {
			continue
		}
		s.EnemyRel = e.Lane - ours
		gap := obs.Road.PlayerProgress - e.Progress
		switch {
		case gap < 0.15:
			s.EnemyDist = 3
		case gap < 0.4:
			s.EnemyDist = 2
		default:
			s.EnemyDist = 1
		}
		break
	}
	return s
}

// SelectAction chooses an action using an epsilon-greedy policy and decays
// epsilon.
func (a *AgentQTable) SelectAction(state State) int {
	a.epsilon = math.Max(a.epsilon*a.params.Decay, a.params.MinEpsilon)

	if a.rng.Float64() < a.epsilon {
		return a.rng.IntN(ActionCount)
	}
	return a.Greedy(state)
}

// Greedy returns the best known action, breaking ties at random.
func (a *AgentQTable) Greedy(state State) int {
	qValues, exists := a.QTable[state]
	if !exists {
		return a.rng.IntN(ActionCount) // Unknown state, explore
	}

	bestAction := 0
	maxQ := -math.MaxFloat64
	start := a.rng.IntN(ActionCount)
	for i := 0; i < ActionCount; i++ {
		idx := (start + i) % ActionCount
		if qValues[idx] > maxQ {
			maxQ = qValues[idx]
			bestAction = idx
		}
	}
	return bestAction
}

// Learn updates the Q-table from one transition. Terminal transitions do
// not bootstrap from the next state.
func (a *AgentQTable) Learn(state State, action int, reward float64, nextState State, terminal bool) {
	qValues := a.QTable[state]
	currentQ := qValues[action]

	maxNextQ := 0.0
	if nextQValues, exists := a.QTable[nextState]; exists && !terminal {
		maxNextQ = -math.MaxFloat64
		for _, q := range nextQValues {
			maxNextQ = math.Max(maxNextQ, q)
		}
	}

	// Q(s,a) = Q(s,a) + Alpha * (R + Gamma * maxQ(s',a') - Q(s,a))
	qValues[action] = currentQ + a.params.Alpha*(reward+a.params.Gamma*maxNextQ-currentQ)
	a.QTable[state] = qValues
}

func (a *AgentQTable) Epsilon() float64 {
	return a.epsilon
}

func (a *AgentQTable) DebugInfoStr() string {
	return fmt.Sprintf("Agent Type: Q-Table\nQ-Table Size: %d\nEpsilon: %.3f", len(a.QTable), a.epsilon)
}

var _ Agent = (*AgentQTable)(nil)
