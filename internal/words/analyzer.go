// Package words tracks the distinct length-n factors ("n-words") of a growing
// symbol sequence and computes factor-complexity profiles.
package words

import (
	"maps"
	"slices"
)

// Analyzer maintains the set of distinct factors of one length. It extends
// incrementally as the sequence grows; the set always equals a full rescan.
type Analyzer struct {
	n    int
	set  map[string]struct{}
	next int // First start offset not yet scanned
}

// NewAnalyzer creates an analyzer for factors of length n (clamped to 1).
func NewAnalyzer(n int) *Analyzer {
	if n < 1 {
		n = 1
	}
	return &Analyzer{n: n, set: make(map[string]struct{})}
}

// Length returns the configured factor length.
func (a *Analyzer) Length() int {
	return a.n
}

// SetLength changes the factor length and clears the set. The next Extend
// rescans the whole sequence.
func (a *Analyzer) SetLength(n int) {
	if n < 1 {
		n = 1
	}
	a.n = n
	a.Reset()
}

// Reset clears the set without changing the length.
func (a *Analyzer) Reset() {
	clear(a.set)
	a.next = 0
}

// Extend adds every factor starting at an offset not yet scanned.
// seq must be an extension of the sequence seen by earlier calls.
// It returns the number of new distinct factors.
func (a *Analyzer) Extend(seq []byte) int {
	added := 0
	last := len(seq) - a.n
	for i := a.next; i <= last; i++ {
		w := string(seq[i : i+a.n])
		if _, ok := a.set[w]; !ok {
			a.set[w] = struct{}{}
			added++
		}
	}
	if last+1 > a.next {
		a.next = last + 1
	}
	return added
}

// Count returns the number of distinct factors.
func (a *Analyzer) Count() int {
	return len(a.set)
}

// Contains reports whether w is a known factor.
func (a *Analyzer) Contains(w string) bool {
	_, ok := a.set[w]
	return ok
}

// Sorted returns the factors in lexicographic order.
func (a *Analyzer) Sorted() []string {
	return slices.Sorted(maps.Keys(a.set))
}

// Factors returns the distinct length-n factors of seq by full scan, sorted.
func Factors(seq []byte, n int) []string {
	a := NewAnalyzer(n)
	a.Extend(seq)
	return a.Sorted()
}
