package env

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"enduro-clone/internal/sim"
)

// Recorder receives per-step and per-episode measurements from a Vector.
type Recorder interface {
	RecordSteps(ctx context.Context, n int)
	RecordEpisode(ctx context.Context, st Stats)
}

// Summary is the mean of finished episodes since the last Log.
type Summary struct {
	Episodes       int
	Return         float64
	Length         float64
	Score          float64
	DaysCompleted  float64
	Passes         float64
	Crashes        float64
	EdgeHits       float64
	InvalidActions float64
}

// Vector runs independent environments side by side. Environment i uses
// seed cfg.Seed+i. Environments share nothing, so each Step runs them in
// parallel and finished episodes are reset automatically.
type Vector struct {
	envs     []*Env
	obs      []Observation
	rewards  []float64
	dones    []bool
	ended    []*Stats
	finished []Stats
	recorder Recorder
}

// NewVector builds n environments from cfg.
func NewVector(cfg sim.Config, n int, opts ...Option) (*Vector, error) {
	if n < 1 {
		return nil, fmt.Errorf("vector needs at least one environment, got %d: %w", n, sim.ErrInvalidConfig)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.WithDefaults()
	v := &Vector{
		envs:     make([]*Env, n),
		obs:      make([]Observation, n),
		rewards:  make([]float64, n),
		dones:    make([]bool, n),
		ended:    make([]*Stats, n),
		recorder: o.recorder,
	}
	for i := range v.envs {
		c := cfg
		c.Seed = cfg.Seed + uint64(i)
		e, err := New(c, append(slices.Clip(opts), WithLogger(o.logger.With().Int("env", i).Logger()))...)
		if err != nil {
			return nil, fmt.Errorf("env %d: %w", i, err)
		}
		v.envs[i] = e
		v.obs[i] = e.Observation()
	}
	return v, nil
}

// Len is the number of environments.
func (v *Vector) Len() int {
	return len(v.envs)
}

// Env returns environment i.
func (v *Vector) Env(i int) *Env {
	return v.envs[i]
}

// Reset restarts every environment and drops unlogged episodes.
func (v *Vector) Reset() []Observation {
	for i, e := range v.envs {
		v.obs[i] = e.Reset()
		v.rewards[i] = 0
		v.dones[i] = false
	}
	v.finished = v.finished[:0]
	return v.Observations()
}

// Observations returns the latest observation of every environment.
func (v *Vector) Observations() []Observation {
	out := make([]Observation, len(v.obs))
	copy(out, v.obs)
	return out
}

// Step applies actions[i] to environment i. An environment that reaches
// Terminal reports done=true together with its final reward; the returned
// observation is already the first of the next episode.
//
// When ctx is cancelled part way through a batch, some environments may
// have stepped and others not, and the stored observations are left mixed.
// Call Reset before stepping again after an error.
func (v *Vector) Step(ctx context.Context, actions []Action) ([]Observation, []float64, []bool, error) {
	if len(actions) != len(v.envs) {
		return nil, nil, nil, fmt.Errorf("got %d actions for %d environments", len(actions), len(v.envs))
	}

	clear(v.ended)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range v.envs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			obs, r, done := e.Step(actions[i])
			if done {
				st := e.Stats()
				v.ended[i] = &st
				obs = e.Reset()
			}
			v.obs[i], v.rewards[i], v.dones[i] = obs, r, done
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	for _, st := range v.ended {
		if st == nil {
			continue
		}
		v.finished = append(v.finished, *st)
		if v.recorder != nil {
			v.recorder.RecordEpisode(ctx, *st)
		}
	}
	if v.recorder != nil {
		v.recorder.RecordSteps(ctx, len(v.envs))
	}

	rewards := make([]float64, len(v.rewards))
	copy(rewards, v.rewards)
	dones := make([]bool, len(v.dones))
	copy(dones, v.dones)
	return v.Observations(), rewards, dones, nil
}

// Log returns the mean of the episodes finished since the previous call
// and forgets them. ok is false when no episode has finished.
func (v *Vector) Log() (s Summary, ok bool) {
	n := len(v.finished)
	if n == 0 {
		return Summary{}, false
	}
	for _, st := range v.finished {
		s.Return += st.Return
		s.Length += float64(st.Length)
		s.Score += float64(st.Score)
		s.DaysCompleted += float64(st.DaysCompleted)
		s.Passes += float64(st.Passes)
		s.Crashes += float64(st.Crashes)
		s.EdgeHits += float64(st.EdgeHits)
		s.InvalidActions += float64(st.InvalidActions)
	}
	f := float64(n)
	s.Episodes = n
	s.Return /= f
	s.Length /= f
	s.Score /= f
	s.DaysCompleted /= f
	s.Passes /= f
	s.Crashes /= f
	s.EdgeHits /= f
	s.InvalidActions /= f
	v.finished = v.finished[:0]
	return s, true
}
