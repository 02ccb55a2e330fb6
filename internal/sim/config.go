package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every construction-time validation failure.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Defaults for the optional fields.
const (
	DefaultHUDHeight       = 55
	DefaultTickRate        = 60
	DefaultVictoryDuration = 180
	DefaultSeed            = 1
)

// Config is the immutable per-run parameter set. The first ten fields are
// required; the remaining ones fall back to defaults when zero.
type Config struct {
	ScreenWidth       int     `mapstructure:"screen_width"`
	ScreenHeight      int     `mapstructure:"screen_height"`
	CarWidth          int     `mapstructure:"car_width"`
	CarHeight         int     `mapstructure:"car_height"`
	MaxEnemies        int     `mapstructure:"max_enemies"`
	CrashNoopDuration int     `mapstructure:"crash_noop_duration"` // ticks
	DayLength         int     `mapstructure:"day_length"`          // ticks
	InitialCarsToPass int     `mapstructure:"initial_cars_to_pass"`
	MinSpeed          float64 `mapstructure:"min_speed"`
	MaxSpeed          float64 `mapstructure:"max_speed"`

	HUDHeight       int    `mapstructure:"hud_height"`
	TickRate        int    `mapstructure:"tick_rate"`
	VictoryDuration int    `mapstructure:"victory_duration"` // ticks
	Seed            uint64 `mapstructure:"seed"`
}

// Default returns the stock arcade parameters.
func Default() Config {
	return Config{
		ScreenWidth:       160,
		ScreenHeight:      210,
		CarWidth:          10,
		CarHeight:         10,
		MaxEnemies:        10,
		CrashNoopDuration: 60,
		DayLength:         2000,
		InitialCarsToPass: 5,
		MinSpeed:          1.0,
		MaxSpeed:          10.0,
		HUDHeight:         DefaultHUDHeight,
		TickRate:          DefaultTickRate,
		VictoryDuration:   DefaultVictoryDuration,
		Seed:              DefaultSeed,
	}
}

// WithDefaults returns a copy with unset optional fields filled in.
func (c Config) WithDefaults() Config {
	if c.HUDHeight == 0 {
		c.HUDHeight = DefaultHUDHeight
	}
	if c.TickRate == 0 {
		c.TickRate = DefaultTickRate
	}
	if c.VictoryDuration == 0 {
		c.VictoryDuration = DefaultVictoryDuration
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	return c
}

// Validate checks every bound. It expects defaults to be applied already.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"screen_width", float64(c.ScreenWidth)},
		{"screen_height", float64(c.ScreenHeight)},
		{"car_width", float64(c.CarWidth)},
		{"car_height", float64(c.CarHeight)},
		{"max_enemies", float64(c.MaxEnemies)},
		{"crash_noop_duration", float64(c.CrashNoopDuration)},
		{"day_length", float64(c.DayLength)},
		{"initial_cars_to_pass", float64(c.InitialCarsToPass)},
		{"min_speed", c.MinSpeed},
		{"max_speed", c.MaxSpeed},
		{"hud_height", float64(c.HUDHeight)},
		{"tick_rate", float64(c.TickRate)},
		{"victory_duration", float64(c.VictoryDuration)},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%s must be positive, got %v: %w", p.name, p.value, ErrInvalidConfig)
		}
	}
	if c.MinSpeed > c.MaxSpeed {
		return fmt.Errorf("min_speed %v exceeds max_speed %v: %w", c.MinSpeed, c.MaxSpeed, ErrInvalidConfig)
	}
	if c.CarWidth >= c.ScreenWidth {
		return fmt.Errorf("car_width %d does not fit screen_width %d: %w", c.CarWidth, c.ScreenWidth, ErrInvalidConfig)
	}
	// The playfield must hold the horizon band and at least two car heights.
	if c.PlayfieldHeight() < 2*c.CarHeight+MinHorizonPixels {
		return fmt.Errorf("playfield height %d too small for car_height %d: %w",
			c.PlayfieldHeight(), c.CarHeight, ErrInvalidConfig)
	}
	return nil
}

// MinHorizonPixels is the smallest sky band above the road.
const MinHorizonPixels = 8

// PlayfieldHeight is the drawable area above the HUD strip.
func (c Config) PlayfieldHeight() int {
	return c.ScreenHeight - c.HUDHeight
}

// SpeedRange is MaxSpeed-MinSpeed.
func (c Config) SpeedRange() float64 {
	return c.MaxSpeed - c.MinSpeed
}

// SpeedFraction maps a speed into [0,1] across the configured range.
func (c Config) SpeedFraction(speed float64) float64 {
	r := c.SpeedRange()
	if r <= 0 {
		return 1
	}
	f := (speed - c.MinSpeed) / r
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Ticks converts seconds to whole ticks at the configured rate, rounding up.
func (c Config) Ticks(seconds float64) int {
	return int(math.Ceil(seconds*float64(c.TickRate) - 1e-9))
}
