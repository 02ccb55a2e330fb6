package env

import (
	"errors"
	"fmt"
	"strings"

	"enduro-clone/internal/physics"
)

// ErrInvalidAction is returned by ParseAction for values outside the
// action mask.
var ErrInvalidAction = errors.New("invalid action")

// Action is a set of driver inputs held for one tick. Combinations are
// allowed: Brake wins over Accelerate and Left with Right steers straight.
type Action uint8

const (
	Accelerate Action = 1 << iota
	Brake
	Left
	Right

	Noop Action = 0
)

const actionMask = Accelerate | Brake | Left | Right

// Discrete is the action table exposed to learning agents, indexed by the
// agent's action number.
var Discrete = [...]Action{
	Noop,
	Left,
	Right,
	Accelerate,
	Brake,
	Accelerate | Left,
	Accelerate | Right,
	Brake | Left,
	Brake | Right,
}

// DiscreteCount is the size of the Discrete table.
const DiscreteCount = len(Discrete)

// ParseAction converts a raw bit set. Unknown bits fail with
// ErrInvalidAction and yield Noop.
func ParseAction(v int) (Action, error) {
	if v < 0 || v&^int(actionMask) != 0 {
		return Noop, fmt.Errorf("action %#x: %w", v, ErrInvalidAction)
	}
	return Action(v), nil
}

// DiscreteAction looks up entry i of the Discrete table.
func DiscreteAction(i int) (Action, error) {
	if i < 0 || i >= DiscreteCount {
		return Noop, fmt.Errorf("discrete action %d out of range [0,%d): %w", i, DiscreteCount, ErrInvalidAction)
	}
	return Discrete[i], nil
}

// Valid reports whether only known bits are set.
func (a Action) Valid() bool {
	return a&^actionMask == 0
}

// Has reports whether every bit of b is set in a.
func (a Action) Has(b Action) bool {
	return a&b == b
}

// Controls resolves the action into pedal and steering input.
func (a Action) Controls() physics.Controls {
	var c physics.Controls
	c.Brake = a.Has(Brake)
	c.Throttle = a.Has(Accelerate) && !c.Brake
	if a.Has(Left) {
		c.Steer--
	}
	if a.Has(Right) {
		c.Steer++
	}
	return c
}

func (a Action) String() string {
	if a == Noop {
		return "noop"
	}
	if !a.Valid() {
		return fmt.Sprintf("invalid(%#x)", uint8(a))
	}
	var parts []string
	for _, b := range []struct {
		bit  Action
		name string
	}{
		{Accelerate, "accelerate"},
		{Brake, "brake"},
		{Left, "left"},
		{Right, "right"},
	} {
		if a.Has(b.bit) {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, "+")
}
