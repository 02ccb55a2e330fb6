package score

import (
	"enduro-clone/internal/collision"
	"enduro-clone/internal/sim"
)

// PointsPerPass is the score value of one passed car.
const PointsPerPass = 100

// Weights turns detector events into reward.
type Weights struct {
	Pass    float64 `mapstructure:"pass"`
	Crash   float64 `mapstructure:"crash"`
	EdgeHit float64 `mapstructure:"edge_hit"`
}

// DefaultWeights rewards passes and lightly punishes scraping the edge.
func DefaultWeights() Weights {
	return Weights{Pass: 1, EdgeHit: -0.01}
}

// Stats is the running tally for the current episode.
type Stats struct {
	Return   float64
	Score    int
	Ticks    int
	Passes   int
	Crashes  int
	EdgeHits int
}

// Scorer keeps reward and score apart. Reward is the per-tick learning
// signal; score is the arcade number on the HUD and only ever grows:
// PointsPerPass for each pass plus one point per whole second survived.
type Scorer struct {
	weights  Weights
	tickRate int
	stats    Stats
}

func New(cfg sim.Config, w Weights) *Scorer {
	return &Scorer{weights: w, tickRate: cfg.TickRate}
}

// Reset clears the episode tally.
func (s *Scorer) Reset() {
	s.stats = Stats{}
}

// Update accounts for one tick and returns the reward earned in it.
func (s *Scorer) Update(ev collision.Events) float64 {
	s.stats.Ticks++

	reward := 0.0
	for _, e := range ev {
		switch e.Kind {
		case collision.Pass:
			s.stats.Passes++
			reward += s.weights.Pass
		case collision.Crash:
			s.stats.Crashes++
			reward += s.weights.Crash
		case collision.EdgeHit:
			s.stats.EdgeHits++
			reward += s.weights.EdgeHit
		}
	}
	s.stats.Return += reward
	s.stats.Score = PointsPerPass*s.stats.Passes + s.stats.Ticks/s.tickRate
	return reward
}

// Score is the current arcade score.
func (s *Scorer) Score() int {
	return s.stats.Score
}

func (s *Scorer) Stats() Stats {
	return s.stats
}
