// Package torus implements the symbolic dynamics of a linear flow on the
// 2-torus: trajectory stepping, wrap detection and coding, period detection
// for rational slopes, and the bounded display trace.
//
// Everything here is a pure function of the values passed in; the owning
// simulation serialises access.
package torus

import (
	"fmt"
	"math"
)

// TwoPi is one full revolution.
const TwoPi = 2 * math.Pi

// Config holds the user-facing simulation parameters.
type Config struct {
	Tangent     float64 `json:"tangent" yaml:"tangent"`             // Slope in irrational mode
	RatioP      int     `json:"ratio_p" yaml:"ratio_p"`             // Numerator in rational mode
	RatioQ      int     `json:"ratio_q" yaml:"ratio_q"`             // Denominator in rational mode
	UseRatio    bool    `json:"use_ratio" yaml:"use_ratio"`         // Rational mode flag
	StepRate    float64 `json:"step_rate" yaml:"step_rate"`         // Advance speed
	ShowTrace   bool    `json:"show_trace" yaml:"show_trace"`       // Display only
	NWordLength int     `json:"n_word_length" yaml:"n_word_length"` // Factor window length
}

// DefaultConfig returns the startup configuration.
func DefaultConfig() Config {
	return Config{
		Tangent:     1.618,
		RatioP:      2,
		RatioQ:      5,
		UseRatio:    false,
		StepRate:    5,
		ShowTrace:   true,
		NWordLength: 2,
	}
}

// EffectiveSlope returns the major/minor angle rate for the active mode.
func (c Config) EffectiveSlope() float64 {
	if c.UseRatio {
		return float64(c.RatioP) / float64(c.RatioQ)
	}
	return c.Tangent
}

// RatioString formats the rational slope as "p/q = 0.400000".
func (c Config) RatioString() string {
	return fmt.Sprintf("%d/%d = %.6f", c.RatioP, c.RatioQ, float64(c.RatioP)/float64(c.RatioQ))
}

// Validate checks every field and returns the first violation.
func (c Config) Validate() error {
	if !ValidSlope(c.Tangent) {
		return fmt.Errorf("tangent %v: %w", c.Tangent, ErrInvalidSlope)
	}
	if !ValidRatio(c.RatioP, c.RatioQ) {
		return fmt.Errorf("ratio %d/%d: %w", c.RatioP, c.RatioQ, ErrInvalidRatio)
	}
	if !ValidSpeed(c.StepRate) {
		return fmt.Errorf("step rate %v: %w", c.StepRate, ErrInvalidSpeed)
	}
	if c.NWordLength < 1 {
		return fmt.Errorf("n-word length %d: %w", c.NWordLength, ErrInvalidWordLength)
	}
	return nil
}

// ValidSlope reports whether v can be used as a tangent.
func ValidSlope(v float64) bool {
	return positiveFinite(v)
}

// ValidRatio reports whether p/q can be used in rational mode.
func ValidRatio(p, q int) bool {
	return p > 0 && q > 0
}

// ValidSpeed reports whether v can be used as a step rate.
func ValidSpeed(v float64) bool {
	return positiveFinite(v)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
