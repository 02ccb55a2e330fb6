package daycycle

import "enduro-clone/internal/sim"

// State of the day machine.
type State int

const (
	Racing State = iota
	Victory
	Terminal
)

func (s State) String() string {
	switch s {
	case Racing:
		return "racing"
	case Victory:
		return "victory"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Transition reports what a Tick changed.
type Transition int

const (
	NoTransition Transition = iota
	Won                     // Racing -> Victory: requirement met
	NewDay                  // Victory -> Racing: next day started
	Lost                    // Racing -> Terminal: countdown ran out
)

func (t Transition) String() string {
	switch t {
	case Won:
		return "won"
	case NewDay:
		return "new_day"
	case Lost:
		return "lost"
	}
	return "none"
}

// DayState is a read-only view of the cycle.
type DayState struct {
	Day            int
	TicksRemaining int
	Passed         int
	Required       int
	State          State
	VictoryTicks   int
	Phase          Phase
	DaysCompleted  int
}

// Cycle is the day / difficulty state machine.
//
// Each day starts in Racing with a full countdown and zero passes. Meeting
// the requirement before the countdown ends moves to Victory, which holds
// the countdown for VictoryDuration ticks and then starts the next, harder
// day. Reaching zero with the requirement unmet moves to Terminal, which
// only Reset leaves. Unmet requirements and surplus passes never roll over.
type Cycle struct {
	dayLength       int
	victoryDuration int
	initialCars     int
	table           Table

	level          Level
	day            int
	ticksRemaining int
	passed         int
	state          State
	victoryTicks   int
	completed      int
	phase          Phase
}

// New builds a cycle at day one.
func New(cfg sim.Config, table Table) *Cycle {
	c := &Cycle{
		dayLength:       cfg.DayLength,
		victoryDuration: cfg.VictoryDuration,
		initialCars:     cfg.InitialCarsToPass,
		table:           table,
	}
	c.Reset()
	return c
}

// Reset returns to the start of day one.
func (c *Cycle) Reset() {
	c.completed = 0
	c.startDay(1)
}

// Tick advances one simulation tick with the passes detected during it.
func (c *Cycle) Tick(passes int) Transition {
	switch c.state {
	case Racing:
		c.passed += passes
		if c.passed >= c.level.CarsToPass {
			c.state = Victory
			c.victoryTicks = c.victoryDuration
			c.completed++
			return Won
		}
		c.ticksRemaining--
		c.phase = PhaseAt(c.elapsedFraction())
		if c.ticksRemaining <= 0 {
			c.ticksRemaining = 0
			c.state = Terminal
			return Lost
		}
	case Victory:
		c.passed += passes
		c.victoryTicks--
		if c.victoryTicks <= 0 {
			c.startDay(c.day + 1)
			return NewDay
		}
	}
	return NoTransition
}

// Level is the difficulty of the current day.
func (c *Cycle) Level() Level {
	return c.level
}

// State is the current machine state.
func (c *Cycle) State() State {
	return c.state
}

// Phase is the weather / light condition right now.
func (c *Cycle) Phase() Phase {
	return c.phase
}

// Snapshot copies the cycle state.
func (c *Cycle) Snapshot() DayState {
	return DayState{
		Day:            c.day,
		TicksRemaining: c.ticksRemaining,
		Passed:         c.passed,
		Required:       c.level.CarsToPass,
		State:          c.state,
		VictoryTicks:   c.victoryTicks,
		Phase:          c.phase,
		DaysCompleted:  c.completed,
	}
}

// elapsedFraction is the share of the day countdown already used.
func (c *Cycle) elapsedFraction() float64 {
	return 1 - float64(c.ticksRemaining)/float64(c.dayLength)
}

func (c *Cycle) startDay(day int) {
	c.day = day
	c.level = c.table.Level(day, c.initialCars)
	c.ticksRemaining = c.dayLength
	c.passed = 0
	c.state = Racing
	c.victoryTicks = 0
	c.phase = PhaseDay
}
