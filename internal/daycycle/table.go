package daycycle

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Curve is a per-day value that moves linearly from Base by PerDay each day
// until it reaches Limit.
type Curve struct {
	Base   float64 `yaml:"base"`
	PerDay float64 `yaml:"perDay"`
	Limit  float64 `yaml:"limit"`
}

// At evaluates the curve for a 1-based day.
func (c Curve) At(day int) float64 {
	if day < 1 {
		day = 1
	}
	v := c.Base + c.PerDay*float64(day-1)
	switch {
	case c.PerDay > 0 && v > c.Limit:
		return c.Limit
	case c.PerDay < 0 && v < c.Limit:
		return c.Limit
	}
	return v
}

// Table describes how difficulty grows from one day to the next.
type Table struct {
	SpawnRate       Curve `yaml:"spawnRate"`       // enemy spawns per second
	MinSpawnGap     Curve `yaml:"minSpawnGap"`     // progress between spawns in one lane
	ExtraCarsPerDay int   `yaml:"extraCarsPerDay"` // added to the pass requirement each day
	MaxCarsFactor   int   `yaml:"maxCarsFactor"`   // requirement cap, multiple of the first day's
}

// Level is the difficulty in force for one day.
type Level struct {
	Day         int
	SpawnRate   float64
	MinSpawnGap float64
	CarsToPass  int
}

// DefaultTable is the built-in difficulty curve.
func DefaultTable() Table {
	return Table{
		SpawnRate:       Curve{Base: 1.2, PerDay: 0.3, Limit: 4.8},
		MinSpawnGap:     Curve{Base: 0.35, PerDay: -0.03, Limit: 0.15},
		ExtraCarsPerDay: 2,
		MaxCarsFactor:   4,
	}
}

// Level returns the difficulty for a 1-based day.
func (t Table) Level(day, initialCarsToPass int) Level {
	if day < 1 {
		day = 1
	}
	cars := initialCarsToPass + t.ExtraCarsPerDay*(day-1)
	if limit := initialCarsToPass * t.MaxCarsFactor; cars > limit {
		cars = limit
	}
	return Level{
		Day:         day,
		SpawnRate:   t.SpawnRate.At(day),
		MinSpawnGap: t.MinSpawnGap.At(day),
		CarsToPass:  cars,
	}
}

// Validate checks the curves stay within usable ranges on every day.
func (t Table) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"spawnRate.base", t.SpawnRate.Base},
		{"spawnRate.limit", t.SpawnRate.Limit},
	} {
		if c.v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", c.name, c.v)
		}
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"minSpawnGap.base", t.MinSpawnGap.Base},
		{"minSpawnGap.limit", t.MinSpawnGap.Limit},
	} {
		if c.v < 0 || c.v >= 1 {
			return fmt.Errorf("%s must be in [0,1), got %v", c.name, c.v)
		}
	}
	if t.ExtraCarsPerDay < 0 {
		return fmt.Errorf("extraCarsPerDay cannot be negative, got %d", t.ExtraCarsPerDay)
	}
	if t.MaxCarsFactor < 1 {
		return fmt.Errorf("maxCarsFactor must be at least 1, got %d", t.MaxCarsFactor)
	}
	return nil
}

// LoadTable reads a difficulty table from a YAML file. Keys that are
// absent keep their DefaultTable values.
func LoadTable(filePath string) (Table, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read difficulty file: %w", err)
	}

	table := DefaultTable()
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("failed to parse difficulty YAML: %w", err)
	}

	if err := table.Validate(); err != nil {
		return Table{}, fmt.Errorf("invalid difficulty table: %w", err)
	}
	return table, nil
}
