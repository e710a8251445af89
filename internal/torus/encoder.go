package torus

import "math"

// Wraps returns the number of completed revolutions at angle theta.
func Wraps(theta float64) int64 {
	return int64(math.Floor(theta / TwoPi))
}

// Encode compares the sample against the previous one and appends a symbol
// for each angle that wrapped. The first call only seeds the baseline.
// When both angles wrap in one substep the minor symbol goes first.
// It returns the number of symbols appended.
func Encode(st *State, s Sample, seq *Sequence) int {
	emitted := 0
	if st.Initialized {
		if Wraps(s.Theta1) > Wraps(st.LastTheta1) {
			seq.Append(MinorCrossing)
			emitted++
		}
		if Wraps(s.Theta2) > Wraps(st.LastTheta2) {
			seq.Append(MajorCrossing)
			emitted++
		}
	} else {
		st.Initialized = true
	}

	st.LastTheta1 = s.Theta1
	st.LastTheta2 = s.Theta2
	return emitted
}
