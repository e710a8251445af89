package torus

import "testing"

func TestTraceOfferPolicy(t *testing.T) {
	var b TraceBuffer

	if !b.Offer(Sample{1, 1}, false, 50) {
		t.Fatal("empty buffer must accept a sample")
	}
	if b.Offer(Sample{2, 2}, false, 50) {
		t.Error("mid-tick sample accepted at high speed")
	}
	if !b.Offer(Sample{3, 3}, true, 50) {
		t.Error("final substep rejected")
	}
	if !b.Offer(Sample{4, 4}, false, 19.9) {
		t.Error("low speed sample rejected")
	}
	if b.Len() != 3 {
		t.Errorf("len = %d, want 3", b.Len())
	}
}

func TestTraceDecimation(t *testing.T) {
	var b TraceBuffer
	for i := 0; i < TraceCap; i++ {
		b.Append(Sample{Theta1: float64(i)})
	}
	if b.Len() != TraceCap {
		t.Fatalf("len = %d before overflow", b.Len())
	}

	b.Append(Sample{Theta1: TraceCap})
	// ceil(5001/2500) = 3 -> indices 0, 3, ..., 4998 and 5000 is not kept.
	if b.Len() != 1667 {
		t.Fatalf("len after decimation = %d, want 1667", b.Len())
	}
	if b.Len() > TraceTarget {
		t.Errorf("len %d exceeds target", b.Len())
	}

	pts := b.Points()
	for i, p := range pts {
		if p.Theta1 != float64(i*3) {
			t.Fatalf("point %d = %v, want %v", i, p.Theta1, i*3)
		}
	}
}

func TestTraceBoundedOverLongRun(t *testing.T) {
	cfg := DefaultConfig()
	var st State
	seq := &Sequence{}
	var b TraceBuffer
	for i := 0; i < 20000; i++ {
		Advance(cfg, &st, seq, &b)
		if b.Len() > TraceCap {
			t.Fatalf("tick %d: trace len %d", i, b.Len())
		}
	}
}

func TestTracePointsIsCopy(t *testing.T) {
	var b TraceBuffer
	b.Append(Sample{1, 2})
	pts := b.Points()
	pts[0].Theta1 = 99
	if b.Points()[0].Theta1 != 1 {
		t.Error("Points exposed internal storage")
	}
	b.Reset()
	if b.Len() != 0 {
		t.Error("Reset did not empty buffer")
	}
}
