package daycycle

// Phase is the weather / light condition within a day.
type Phase int

const (
	PhaseDay Phase = iota
	PhaseSnow
	PhaseDusk
	PhaseNight
	PhaseFog
	PhaseDawn
)

var phaseNames = [...]string{"day", "snow", "dusk", "night", "fog", "dawn"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// phaseEnds holds the elapsed-day fraction at which each phase ends.
var phaseEnds = [...]float64{0.35, 0.5, 0.6, 0.8, 0.9, 1.0}

// SnowGrip is the steering authority left on snow.
const SnowGrip = 0.5

// FogVisibility is the enemy progress below which cars are hidden in fog.
const FogVisibility = 0.5

// PhaseAt maps the elapsed share of a day to its phase.
func PhaseAt(fraction float64) Phase {
	for i, end := range phaseEnds {
		if fraction < end {
			return Phase(i)
		}
	}
	return PhaseDawn
}

// Grip is the steering multiplier for the phase.
func (p Phase) Grip() float64 {
	if p == PhaseSnow {
		return SnowGrip
	}
	return 1
}

// Visible reports whether an enemy at the given progress can be seen.
func (p Phase) Visible(progress float64) bool {
	return p != PhaseFog || progress >= FogVisibility
}
