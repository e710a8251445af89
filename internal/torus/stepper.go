package torus

import "math"

// substepLimit caps the step rate handled by one substep so a wrap is not
// skipped at moderate speeds.
const substepLimit = 10

// frameScale converts the step rate into the macro time increment per tick.
const frameScale = 0.01

// Subdivisions returns the number of substeps per tick for a step rate.
func Subdivisions(stepRate float64) int {
	n := int(math.Ceil(stepRate / substepLimit))
	if n < 1 {
		return 1
	}
	return n
}

// MacroDt returns the time advance for one tick.
func MacroDt(stepRate float64) float64 {
	return stepRate * frameScale
}

// SubstepDt returns the time advance for one substep.
func SubstepDt(stepRate float64) float64 {
	return MacroDt(stepRate) / float64(Subdivisions(stepRate))
}

// AnglesAt computes the trajectory point at parameter t.
func AnglesAt(t, slope float64) Sample {
	return Sample{Theta1: t, Theta2: slope * t}
}
