// Package phi provides the irrational slopes used as torus presets.
// Quadratic irrationals have eventually periodic continued fractions, which
// makes their coding sequences the cleanest Sturmian examples to look at.
package phi

import "math"

// Phi is the golden ratio.
const Phi = 1.6180339887498948

// Named irrationals offered as slope presets.
var (
	// Golden (Φ): continued fraction [1; 1, 1, ...], the "most irrational" slope.
	Golden = Phi

	// GoldenConjugate (Φ⁻¹): the reciprocal slope, same coding with symbols swapped.
	GoldenConjugate = 1 / Phi // 0.61803...

	// Silver (1+√2): continued fraction [2; 2, 2, ...].
	Silver = 1 + math.Sqrt2 // 2.41421...

	// Root2 (√2): continued fraction [1; 2, 2, ...].
	Root2 = math.Sqrt2

	// Root3 (√3): continued fraction [1; 1, 2, 1, 2, ...].
	Root3 = math.Sqrt(3)

	// Euler (e): not quadratic, but a familiar transcendental slope.
	Euler = math.E

	// Pi (π).
	Pi = math.Pi
)
