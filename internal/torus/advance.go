package torus

// StepResult summarises one tick.
type StepResult struct {
	Substeps  int  // Substeps executed
	Emitted   int  // Symbols appended
	Completed bool // Cycle detector fired this tick
}

// Advance runs one tick: subdivides the macro increment, detects the cycle
// end, encodes crossings and feeds the trace. The substep loop ends early
// when the cycle detector fires; that substep is not encoded or traced.
func Advance(cfg Config, st *State, seq *Sequence, trace *TraceBuffer) StepResult {
	var res StepResult

	slope := cfg.EffectiveSlope()
	subdivisions := Subdivisions(cfg.StepRate)
	subDt := SubstepDt(cfg.StepRate)
	detector := NewCycleDetector(cfg)

	for sub := 0; sub < subdivisions; sub++ {
		st.T += subDt
		res.Substeps++

		if detector.Check(st) {
			res.Completed = true
			break
		}

		s := AnglesAt(st.T, slope)
		res.Emitted += Encode(st, s, seq)
		trace.Offer(s, sub == subdivisions-1, cfg.StepRate)
	}

	return res
}
