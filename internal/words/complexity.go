package words

// Profile returns p(n) for n = 1..maxN: the number of distinct factors of
// each length. Entry i holds p(i+1).
func Profile(seq []byte, maxN int) []int {
	if maxN < 1 {
		return nil
	}
	out := make([]int, maxN)
	for n := 1; n <= maxN; n++ {
		a := NewAnalyzer(n)
		a.Extend(seq)
		out[n-1] = a.Count()
	}
	return out
}

// IsSturmian reports whether the profile matches p(n) = n+1 at every length.
// A finite prefix only approximates this: lengths longer than the prefix
// supports are reported as mismatches.
func IsSturmian(profile []int) bool {
	if len(profile) == 0 {
		return false
	}
	for i, c := range profile {
		if c != i+2 {
			return false
		}
	}
	return true
}

// Mismatches returns the lengths n at which p(n) != n+1.
func Mismatches(profile []int) []int {
	var out []int
	for i, c := range profile {
		if c != i+2 {
			out = append(out, i+1)
		}
	}
	return out
}
