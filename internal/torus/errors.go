package torus

import "errors"

// Configuration errors. Setters on the simulation reject these values
// silently; Validate reports them for config files.
var (
	ErrInvalidSlope      = errors.New("torus: tangent must be a positive finite number")
	ErrInvalidRatio      = errors.New("torus: ratio p and q must be positive integers")
	ErrInvalidSpeed      = errors.New("torus: step rate must be a positive finite number")
	ErrInvalidWordLength = errors.New("torus: n-word length must be at least 1")
)
