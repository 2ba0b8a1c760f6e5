package models

// Direction defines which side of a card is used as the prompt
type Direction string

const (
	DirectionAToB Direction = "A_TO_B"
	DirectionBToA Direction = "B_TO_A"
)

// Directions lists both study directions in a stable order
var Directions = []Direction{DirectionAToB, DirectionBToA}

// IsValid reports whether d is one of the two study directions
func (d Direction) IsValid() bool {
	return d == DirectionAToB || d == DirectionBToA
}

// DirectionPolicy defines how directions are chosen when a study session starts
type DirectionPolicy string

const (
	PolicyAToB   DirectionPolicy = "A_TO_B"
	PolicyBToA   DirectionPolicy = "B_TO_A"
	PolicyRandom DirectionPolicy = "RANDOM"
)

// IsValid reports whether p is a known policy
func (p DirectionPolicy) IsValid() bool {
	return p == PolicyAToB || p == PolicyBToA || p == PolicyRandom
}

// Direction returns the fixed direction of the policy.
// The second value is false for PolicyRandom.
func (p DirectionPolicy) Direction() (Direction, bool) {
	switch p {
	case PolicyAToB:
		return DirectionAToB, true
	case PolicyBToA:
		return DirectionBToA, true
	default:
		return "", false
	}
}
