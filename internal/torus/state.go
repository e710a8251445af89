package torus

// State is the mutable trajectory state for one run.
type State struct {
	T              float64 `json:"t"`
	LastTheta1     float64 `json:"last_theta1"`
	LastTheta2     float64 `json:"last_theta2"`
	Initialized    bool    `json:"initialized"`
	CompletedCycle bool    `json:"completed_cycle"` // Sticky until reset
}

// Angles returns the current sample for the state's t.
func (s State) Angles(slope float64) Sample {
	return AnglesAt(s.T, slope)
}

// Sample is one point of the trajectory, (theta1, theta2) unwrapped.
type Sample struct {
	Theta1 float64 `json:"theta1"`
	Theta2 float64 `json:"theta2"`
}

// Symbol is one letter of the coding alphabet.
type Symbol byte

const (
	MinorCrossing Symbol = '1' // theta1 completed a revolution
	MajorCrossing Symbol = '0' // theta2 completed a revolution
)

// Sequence is the append-only coding sequence.
type Sequence struct {
	buf []byte
}

// Append adds a symbol to the end of the sequence.
func (s *Sequence) Append(sym Symbol) {
	s.buf = append(s.buf, byte(sym))
}

// Len returns the number of symbols.
func (s *Sequence) Len() int {
	return len(s.buf)
}

// Bytes returns the underlying symbols. Callers must not modify it.
func (s *Sequence) Bytes() []byte {
	return s.buf
}

// String returns a copy of the sequence as text.
func (s *Sequence) String() string {
	return string(s.buf)
}

// Reset clears the sequence.
func (s *Sequence) Reset() {
	s.buf = nil
}
