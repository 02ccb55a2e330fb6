package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/score"
	"enduro-clone/internal/sim"
)

// FileName is the settings file looked up in the config directory.
const FileName = "enduro"

// EnvPrefix prefixes environment variable overrides, e.g. ENDURO_SIM_SEED.
const EnvPrefix = "ENDURO"

// TrainSettings drives cmd/train.
type TrainSettings struct {
	Envs         int     `mapstructure:"envs"`
	Steps        int     `mapstructure:"steps"`
	LogEvery     int     `mapstructure:"log_every"`
	Alpha        float64 `mapstructure:"alpha"`
	Gamma        float64 `mapstructure:"gamma"`
	Epsilon      float64 `mapstructure:"epsilon"`
	MinEpsilon   float64 `mapstructure:"min_epsilon"`
	EpsilonDecay float64 `mapstructure:"epsilon_decay"`
	AgentSeed    uint64  `mapstructure:"agent_seed"`
}

// Settings is everything a run needs.
type Settings struct {
	Sim            sim.Config    `mapstructure:"sim"`
	Reward         score.Weights `mapstructure:"reward"`
	Train          TrainSettings `mapstructure:"train"`
	LogLevel       string        `mapstructure:"logLevel"`
	DifficultyFile string        `mapstructure:"difficultyFile"`
}

func setDefaults() {
	d := sim.Default()
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("difficultyFile", "")

	viper.SetDefault("sim.screen_width", d.ScreenWidth)
	viper.SetDefault("sim.screen_height", d.ScreenHeight)
	viper.SetDefault("sim.car_width", d.CarWidth)
	viper.SetDefault("sim.car_height", d.CarHeight)
	viper.SetDefault("sim.max_enemies", d.MaxEnemies)
	viper.SetDefault("sim.crash_noop_duration", d.CrashNoopDuration)
	viper.SetDefault("sim.day_length", d.DayLength)
	viper.SetDefault("sim.initial_cars_to_pass", d.InitialCarsToPass)
	viper.SetDefault("sim.min_speed", d.MinSpeed)
	viper.SetDefault("sim.max_speed", d.MaxSpeed)
	viper.SetDefault("sim.hud_height", d.HUDHeight)
	viper.SetDefault("sim.tick_rate", d.TickRate)
	viper.SetDefault("sim.victory_duration", d.VictoryDuration)
	viper.SetDefault("sim.seed", d.Seed)

	w := score.DefaultWeights()
	viper.SetDefault("reward.pass", w.Pass)
	viper.SetDefault("reward.crash", w.Crash)
	viper.SetDefault("reward.edge_hit", w.EdgeHit)

	viper.SetDefault("train.envs", 8)
	viper.SetDefault("train.steps", 200000)
	viper.SetDefault("train.log_every", 10000)
	viper.SetDefault("train.alpha", 0.1)
	viper.SetDefault("train.gamma", 0.99)
	viper.SetDefault("train.epsilon", 1.0)
	viper.SetDefault("train.min_epsilon", 0.01)
	viper.SetDefault("train.epsilon_decay", 0.99995)
	viper.SetDefault("train.agent_seed", 7)
}

// Load reads enduro.yaml from configDir on top of the defaults and applies
// ENDURO_* environment overrides. A missing file is not an error. A relative
// difficultyFile is resolved against configDir.
func Load(configDir string) (Settings, error) {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding settings: %w", err)
	}

	if s.DifficultyFile != "" && !filepath.IsAbs(s.DifficultyFile) {
		s.DifficultyFile = filepath.Join(configDir, s.DifficultyFile)
	}

	s.Sim = s.Sim.WithDefaults()
	if err := s.Sim.Validate(); err != nil {
		return Settings{}, err
	}
	if s.Train.Envs < 1 {
		return Settings{}, fmt.Errorf("train.envs must be positive, got %d", s.Train.Envs)
	}
	return s, nil
}

// Table loads the difficulty table named by DifficultyFile, or the
// built-in one when none is set.
func (s Settings) Table() (daycycle.Table, error) {
	if s.DifficultyFile == "" {
		return daycycle.DefaultTable(), nil
	}
	return daycycle.LoadTable(s.DifficultyFile)
}
