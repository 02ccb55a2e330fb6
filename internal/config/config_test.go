package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enduro-clone/internal/daycycle"
	"enduro-clone/internal/score"
	"enduro-clone/internal/sim"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(body), 0644))
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	s, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, sim.Default(), s.Sim)
	assert.Equal(t, score.DefaultWeights(), s.Reward)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.DifficultyFile)
	assert.Equal(t, 8, s.Train.Envs)
	assert.Equal(t, 0.99, s.Train.Gamma)
	assert.Equal(t, uint64(7), s.Train.AgentSeed)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `
logLevel: debug
sim:
  max_enemies: 6
  day_length: 1500
  seed: 42
reward:
  edge_hit: -0.5
train:
  envs: 2
  alpha: 0.2
`)
	s, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 6, s.Sim.MaxEnemies)
	assert.Equal(t, 1500, s.Sim.DayLength)
	assert.Equal(t, uint64(42), s.Sim.Seed)
	assert.Equal(t, 160, s.Sim.ScreenWidth, "unset keys keep defaults")
	assert.Equal(t, -0.5, s.Reward.EdgeHit)
	assert.Equal(t, 1.0, s.Reward.Pass)
	assert.Equal(t, 2, s.Train.Envs)
	assert.Equal(t, 0.2, s.Train.Alpha)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("ENDURO_SIM_MAX_ENEMIES", "3")
	t.Setenv("ENDURO_LOGLEVEL", "warn")

	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 3, s.Sim.MaxEnemies)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errIs       error
		errContains string
	}{
		{
			name:        "invalid sim bounds",
			body:        "sim:\n  min_speed: 20\n",
			errIs:       sim.ErrInvalidConfig,
			errContains: "min_speed",
		},
		{
			name:        "negative enemies",
			body:        "sim:\n  max_enemies: -2\n",
			errIs:       sim.ErrInvalidConfig,
			errContains: "max_enemies",
		},
		{
			name:        "no environments",
			body:        "train:\n  envs: 0\n",
			errContains: "train.envs",
		},
		{
			name:        "broken yaml",
			body:        "sim: [unclosed",
			errContains: "error reading config file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)

			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestSettings_Table(t *testing.T) {
	tbl, err := Settings{}.Table()
	require.NoError(t, err)
	assert.Equal(t, daycycle.DefaultTable(), tbl)

	path := filepath.Join(t.TempDir(), "difficulty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraCarsPerDay: 4\n"), 0644))
	tbl, err = Settings{DifficultyFile: path}.Table()
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.ExtraCarsPerDay)

	_, err = Settings{DifficultyFile: filepath.Join(t.TempDir(), "missing.yaml")}.Table()
	assert.Error(t, err)
}

func TestLoad_DifficultyFileRelativeToConfigDir(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, "difficultyFile: tables/hard.yaml\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tables"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tables", "hard.yaml"), []byte("extraCarsPerDay: 9\n"), 0644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tables", "hard.yaml"), s.DifficultyFile)

	tbl, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, 9, tbl.ExtraCarsPerDay)
}

func TestLoad_DifficultyFileAbsoluteKept(t *testing.T) {
	t.Cleanup(viper.Reset)

	abs := filepath.Join(t.TempDir(), "difficulty.yaml")
	s, err := Load(writeConfig(t, "difficultyFile: "+abs+"\n"))
	require.NoError(t, err)
	assert.Equal(t, abs, s.DifficultyFile)
}

func TestLoad_ShippedConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	s, err := Load(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)
	assert.Equal(t, sim.Default(), s.Sim)
	assert.Equal(t, score.DefaultWeights(), s.Reward)
	assert.Equal(t, filepath.Join("..", "..", "configs", "difficulty.yaml"), s.DifficultyFile)

	tbl, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, daycycle.DefaultTable(), tbl)
}
