package torus

import "math"

// GCD returns the greatest common divisor of round(|a|) and round(|b|).
// GCD(0, 0) is 0.
func GCD(a, b float64) int64 {
	x := int64(math.Round(math.Abs(a)))
	y := int64(math.Round(math.Abs(b)))
	for y != 0 {
		x, y = y, x%y
	}
	return x
}

// CycleDetector stops a rational-slope run after exactly one period.
type CycleDetector struct {
	enabled  bool
	expected float64
}

// NewCycleDetector builds the detector for a configuration. It is disabled in
// irrational mode and when the gcd is 0.
func NewCycleDetector(cfg Config) CycleDetector {
	if !cfg.UseRatio {
		return CycleDetector{}
	}
	g := GCD(float64(cfg.RatioP), float64(cfg.RatioQ))
	if g == 0 {
		return CycleDetector{}
	}
	return CycleDetector{
		enabled:  true,
		expected: TwoPi * float64(cfg.RatioQ) / float64(g),
	}
}

// Enabled reports whether the detector can fire.
func (d CycleDetector) Enabled() bool {
	return d.enabled
}

// Period returns the expected t at which the trajectory closes.
func (d CycleDetector) Period() float64 {
	return d.expected
}

// Check marks the cycle complete and clamps t once the period is reached.
// It returns true when the caller must stop.
func (d CycleDetector) Check(st *State) bool {
	if !d.enabled || !st.Initialized || st.CompletedCycle {
		return false
	}
	if st.T < d.expected {
		return false
	}
	st.CompletedCycle = true
	st.T = d.expected
	return true
}
