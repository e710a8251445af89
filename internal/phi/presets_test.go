package phi

import "testing"

func TestLookup(t *testing.T) {
	p, ok := Lookup("  Golden ")
	if !ok || p.Value != Phi {
		t.Fatalf("Lookup(golden) = %+v, %v", p, ok)
	}
	if _, ok := Lookup("tau"); ok {
		t.Error("unknown preset should not resolve")
	}
}

func TestPresetsSortedAndIrrational(t *testing.T) {
	ps := Presets()
	if len(ps) != 7 {
		t.Fatalf("len = %d, want 7", len(ps))
	}
	for i, p := range ps {
		if p.Value <= 0 {
			t.Errorf("%s: non-positive slope %v", p.Name, p.Value)
		}
		if i > 0 && ps[i-1].Value > p.Value {
			t.Errorf("presets out of order at %s", p.Name)
		}
	}
	if ps[0].Name != "golden-conjugate" || ps[len(ps)-1].Name != "pi" {
		t.Errorf("order = %s .. %s", ps[0].Name, ps[len(ps)-1].Name)
	}
}
