package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"enduro-clone/internal/agent"
	"enduro-clone/internal/config"
	"enduro-clone/internal/env"
	"enduro-clone/internal/logging"
	"enduro-clone/internal/metrics"
)

func main() {
	configDir := flag.String("config", ".", "directory containing enduro.yaml")
	run := flag.String("run", "train", "run name attached to metrics")
	flag.Parse()

	settings, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(settings.LogLevel, os.Stderr)
	log.Info().Str("loglevel", log.GetLevel().String()).Msg("Logging set up")

	table, err := settings.Table()
	if err != nil {
		log.Fatal().Err(err).Str("path", settings.DifficultyFile).Msg("Failed to load difficulty table")
	}

	rec, err := metrics.New(*run)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create metric instruments")
	}

	tr := settings.Train
	vec, err := env.NewVector(settings.Sim, tr.Envs,
		env.WithLogger(log),
		env.WithTable(table),
		env.WithWeights(settings.Reward),
		env.WithRecorder(rec),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build environments")
	}

	ag := agent.NewAgent(agent.Params{
		Alpha:      tr.Alpha,
		Gamma:      tr.Gamma,
		Epsilon:    tr.Epsilon,
		MinEpsilon: tr.MinEpsilon,
		Decay:      tr.EpsilonDecay,
		Seed:       tr.AgentSeed,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().
		Int("envs", vec.Len()).
		Int("steps", tr.Steps).
		Uint64("seed", settings.Sim.Seed).
		Msg("Training started")

	if err := train(ctx, vec, ag, tr, log); err != nil {
		log.Error().Err(err).Msg("Training stopped")
	}
	log.Info().Int("states", len(ag.QTable)).Float64("epsilon", ag.Epsilon()).Msg("Training finished")
}

func train(ctx context.Context, vec *env.Vector, ag *agent.AgentQTable, tr config.TrainSettings, log zerolog.Logger) error {
	n := vec.Len()
	obs := vec.Observations()
	states := make([]agent.State, n)
	for i := range obs {
		states[i] = agent.DiscretizeState(obs[i])
	}
	choices := make([]int, n)
	actions := make([]env.Action, n)

	start := time.Now()
	for step := 1; step <= tr.Steps; step++ {
		for i := range states {
			choices[i] = ag.SelectAction(states[i])
			actions[i] = env.Discrete[choices[i]]
		}

		next, rewards, dones, err := vec.Step(ctx, actions)
		if err != nil {
			return err
		}

		// A done env already returned the first observation of its next
		// episode, so its transition is learned as terminal.
		for i := range states {
			ns := agent.DiscretizeState(next[i])
			ag.Learn(states[i], choices[i], rewards[i], ns, dones[i])
			states[i] = ns
		}

		if tr.LogEvery > 0 && step%tr.LogEvery == 0 {
			ev := log.Info().
				Int("step", step).
				Int("states", len(ag.QTable)).
				Float64("epsilon", ag.Epsilon()).
				Float64("ticks_per_sec", float64(step*n)/time.Since(start).Seconds())
			if sum, ok := vec.Log(); ok {
				ev = ev.
					Int("episodes", sum.Episodes).
					Float64("return", sum.Return).
					Float64("score", sum.Score).
					Float64("days", sum.DaysCompleted).
					Float64("passes", sum.Passes).
					Float64("crashes", sum.Crashes)
			}
			ev.Msg("Progress")
		}
	}
	return nil
}
