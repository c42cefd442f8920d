package analysis

import "fmt"

// Stability classifies an equilibrium by the flow around it.
type Stability int

const (
	Stable Stability = iota
	Unstable
	SemiStable
)

var stabilityNames = [...]string{"stable", "unstable", "semi-stable"}

func (s Stability) String() string {
	if s < 0 || int(s) >= len(stabilityNames) {
		return fmt.Sprintf("Stability(%d)", int(s))
	}
	return stabilityNames[s]
}

func (s Stability) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stabilityNames) {
		return nil, fmt.Errorf("analysis: invalid stability %d", int(s))
	}
	return []byte(stabilityNames[s]), nil
}

func (s *Stability) UnmarshalText(text []byte) error {
	for i, name := range stabilityNames {
		if name == string(text) {
			*s = Stability(i)
			return nil
		}
	}
	return fmt.Errorf("analysis: unknown stability %q", text)
}

// Direction is the side from which flow approaches a semi-stable
// equilibrium. It is DirectionNone for stable and unstable points.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

var directionNames = [...]string{"none", "left", "right"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

func (d Direction) MarshalText() ([]byte, error) {
	if d < 0 || int(d) >= len(directionNames) {
		return nil, fmt.Errorf("analysis: invalid direction %d", int(d))
	}
	return []byte(directionNames[d]), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	for i, name := range directionNames {
		if name == string(text) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("analysis: unknown direction %q", text)
}

// classify applies the sign rule to probe values on each side of a root.
// Values within eps of zero count as absent flow.
func classify(left, right, eps float64) (Stability, Direction) {
	if abs(left) < eps {
		left = 0
	}
	if abs(right) < eps {
		right = 0
	}
	switch {
	case left > 0 && right < 0:
		return Stable, DirectionNone
	case left < 0 && right > 0:
		return Unstable, DirectionNone
	case left > 0:
		return SemiStable, DirectionLeft
	case right < 0:
		return SemiStable, DirectionRight
	}
	return SemiStable, DirectionNone
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
