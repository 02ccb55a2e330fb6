package physics

import (
	"math"

	"enduro-clone/internal/road"
	"enduro-clone/internal/sim"
)

// Gears is the number of acceleration bands the speed range is split into.
const Gears = 4

// GearSeconds is the full-throttle time to cross each band.
var GearSeconds = [Gears]float64{4.0, 2.5, 3.25, 1.5}

const (
	BrakeSeconds         = 2.0  // full range, max to min
	CoastSeconds         = 8.0  // full range with no pedal input
	CrashStopSeconds     = 1.0  // full range while recovering from a crash
	SteerPixelsPerSecond = 60.0 // lateral steering speed
	DriftPixelsPerSecond = 40.0 // lateral drift at full curvature and max speed
	EdgeSpeedPenalty     = 0.02 // share of the speed range lost per tick on an edge
)

// Controls is one tick of driver input. Steer is -1 (left), 0 or 1 (right).
type Controls struct {
	Throttle bool
	Brake    bool
	Steer    int
}

// Car is the player vehicle. Offset is the lateral distance of the car
// center from the road center on the player's row, in pixels.
type Car struct {
	Offset     float64
	Speed      float64
	Steering   int     // steering input applied this tick
	Drift      float64 // lateral drift applied this tick
	CrashTicks int     // while > 0 input is ignored

	minSpeed, maxSpeed float64
	bandWidth          float64
	dt                 float64 // seconds per tick
}

// NewCar places a car at the road center at minimum speed.
func NewCar(cfg sim.Config) *Car {
	c := &Car{
		minSpeed:  cfg.MinSpeed,
		maxSpeed:  cfg.MaxSpeed,
		bandWidth: cfg.SpeedRange() / Gears,
		dt:        1 / float64(cfg.TickRate),
	}
	c.Reset()
	return c
}

// Reset restores the starting state.
func (c *Car) Reset() {
	c.Offset = 0
	c.Speed = c.minSpeed
	c.Steering = 0
	c.Drift = 0
	c.CrashTicks = 0
}

// Update advances the car by one tick.
// grip scales steering authority: 1 on a dry road, lower on snow.
func (c *Car) Update(seg road.Segment, in Controls, grip float64) {
	if c.CrashTicks > 0 {
		c.CrashTicks--
		c.Steering = 0
		c.Drift = 0
		c.decelerate(CrashStopSeconds)
		return
	}

	// 1. Pedals. Brake wins over throttle.
	switch {
	case in.Brake:
		c.decelerate(BrakeSeconds)
	case in.Throttle:
		c.accelerate(c.dt)
	default:
		c.decelerate(CoastSeconds)
	}

	// 2. Steering and drift. Curvature pushes the car toward the outside of
	// the bend; steering into the bend cancels that push.
	steer := clampSteer(in.Steer)
	c.Steering = steer

	frac := c.SpeedFraction()
	drift := -seg.Curvature * DriftPixelsPerSecond * c.dt * frac
	correction := 0.0
	if steer != 0 && seg.Curvature != 0 && (steer > 0) == (seg.Curvature > 0) {
		correction = grip
	}
	c.Drift = drift * (1 - correction)
	c.Offset += float64(steer)*SteerPixelsPerSecond*c.dt*grip + c.Drift
}

// Crash starts a recovery period of the given length in ticks.
func (c *Car) Crash(ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	c.CrashTicks = ticks
	c.Steering = 0
	c.Drift = 0
}

// Recovering reports whether input is currently ignored.
func (c *Car) Recovering() bool {
	return c.CrashTicks > 0
}

// ClampToRoad keeps the car within half pixels of the road center. It
// returns the side that was hit: -1 left, 1 right, 0 none. Hitting an edge
// costs speed.
func (c *Car) ClampToRoad(half float64) int {
	side := 0
	switch {
	case c.Offset > half:
		c.Offset = half
		side = 1
	case c.Offset < -half:
		c.Offset = -half
		side = -1
	}
	if side != 0 {
		c.Speed = math.Max(c.minSpeed, c.Speed-EdgeSpeedPenalty*(c.maxSpeed-c.minSpeed))
	}
	return side
}

// HoldOnRoad clamps the offset to half without any speed penalty. Used
// while recovering, when the road narrows under a car that cannot steer.
func (c *Car) HoldOnRoad(half float64) {
	c.Offset = max(-half, min(half, c.Offset))
}

// Gear is the current band, 1 through Gears.
func (c *Car) Gear() int {
	return c.gearIndex() + 1
}

// SpeedFraction maps speed into [0,1].
func (c *Car) SpeedFraction() float64 {
	r := c.maxSpeed - c.minSpeed
	if r <= 0 {
		return 1
	}
	return (c.Speed - c.minSpeed) / r
}

// accelerate spends dt seconds climbing through the bands. Time left over
// when a band boundary is reached carries into the next band, so the total
// time from min to max does not depend on the tick length.
func (c *Car) accelerate(dt float64) {
	for dt > 0 && c.Speed < c.maxSpeed {
		g := c.gearIndex()
		top := c.bound(g + 1)
		rate := c.bandWidth / GearSeconds[g]
		need := (top - c.Speed) / rate
		if need > dt {
			c.Speed += rate * dt
			break
		}
		c.Speed = top
		dt -= need
	}
	c.Speed = math.Min(c.Speed, c.maxSpeed)
}

func (c *Car) decelerate(fullRangeSeconds float64) {
	rate := (c.maxSpeed - c.minSpeed) / fullRangeSeconds
	c.Speed = math.Max(c.minSpeed, c.Speed-rate*c.dt)
}

// bound is the lower edge of band i; bound(Gears) is the top speed.
func (c *Car) bound(i int) float64 {
	if i >= Gears {
		return c.maxSpeed
	}
	return c.minSpeed + float64(i)*c.bandWidth
}

func (c *Car) gearIndex() int {
	for i := Gears - 1; i > 0; i-- {
		if c.Speed >= c.bound(i) {
			return i
		}
	}
	return 0
}

func clampSteer(s int) int {
	switch {
	case s > 0:
		return 1
	case s < 0:
		return -1
	}
	return 0
}
