package phi

import (
	"sort"
	"strings"
)

// Preset is a named slope the host can apply in irrational mode.
type Preset struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

var presets = map[string]Preset{
	"golden":           {Name: "golden", Label: "φ", Value: Golden},
	"golden-conjugate": {Name: "golden-conjugate", Label: "1/φ", Value: GoldenConjugate},
	"silver":           {Name: "silver", Label: "1+√2", Value: Silver},
	"sqrt2":            {Name: "sqrt2", Label: "√2", Value: Root2},
	"sqrt3":            {Name: "sqrt3", Label: "√3", Value: Root3},
	"e":                {Name: "e", Label: "e", Value: Euler},
	"pi":               {Name: "pi", Label: "π", Value: Pi},
}

// Lookup returns the preset with the given name (case-insensitive).
func Lookup(name string) (Preset, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Presets returns all presets ordered by value.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
