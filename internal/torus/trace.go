package torus

import "math"

// Trace size limits.
const (
	TraceCap    = 5000 // Live entries before decimation
	TraceTarget = 2500 // Upper bound after decimation
)

// denseStepRate is the step rate below which every substep is traced.
const denseStepRate = 20

// TraceBuffer keeps a bounded, ordered history of samples for display.
type TraceBuffer struct {
	points []Sample
}

// Offer appends the sample if the append policy allows it: the last substep
// of a tick, any substep at low speed, or an empty buffer.
func (b *TraceBuffer) Offer(s Sample, final bool, stepRate float64) bool {
	if !final && stepRate >= denseStepRate && len(b.points) > 0 {
		return false
	}
	b.Append(s)
	return true
}

// Append adds a sample and decimates if the cap is exceeded.
func (b *TraceBuffer) Append(s Sample) {
	b.points = append(b.points, s)
	if len(b.points) > TraceCap {
		b.decimate()
	}
}

// decimate keeps every keepRatio-th entry by index, preserving order.
func (b *TraceBuffer) decimate() {
	keep := int(math.Ceil(float64(len(b.points)) / TraceTarget))
	kept := b.points[:0]
	for i, p := range b.points {
		if i%keep == 0 {
			kept = append(kept, p)
		}
	}
	b.points = kept
}

// Len returns the number of retained samples.
func (b *TraceBuffer) Len() int {
	return len(b.points)
}

// Points returns a copy of the retained samples.
func (b *TraceBuffer) Points() []Sample {
	out := make([]Sample, len(b.points))
	copy(out, b.points)
	return out
}

// Reset empties the buffer.
func (b *TraceBuffer) Reset() {
	b.points = nil
}
