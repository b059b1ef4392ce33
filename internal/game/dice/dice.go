// Package dice provides the randomness abstraction for lifelines and boss
// movement.
package dice

import "math"

// Source is the randomness provider.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// angleSteps is the resolution of Angle.
const angleSteps = 3600

// Angle returns a random angle in [0, 2π) at a tenth-of-a-degree resolution.
//
// Precondition: src must be non-nil.
func Angle(src Source) float64 {
	return float64(src.Intn(angleSteps)) / angleSteps * 2 * math.Pi
}
