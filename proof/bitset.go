package proof

import "math/bits"

// varSet is a growable set of non-negative variable ids, represented as a
// dense bitset rather than a map[int]struct{}: variable ids are small and
// dense, so a bitset avoids per-element allocation in the removed and
// re-removed variable sets every resolvent carries.
type varSet struct {
	words []uint64
}

func newVarSet() varSet {
	return varSet{}
}

func (s varSet) has(v int) bool {
	w := v / 64
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<uint(v%64)) != 0
}

// withAdded returns a new set containing s plus v, without mutating s.
func (s varSet) withAdded(v int) varSet {
	w := v / 64
	out := make([]uint64, max(w+1, len(s.words)))
	copy(out, s.words)
	out[w] |= 1 << uint(v%64)
	return varSet{words: out}
}

// union returns a new set containing every variable in s or in other.
func (s varSet) union(other varSet) varSet {
	n := max(len(s.words), len(other.words))
	out := make([]uint64, n)
	for i := range out {
		var a, b uint64
		if i < len(s.words) {
			a = s.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		out[i] = a | b
	}
	return varSet{words: out}
}

// len returns the number of variables in the set.
func (s varSet) len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// vars returns the sorted list of variables in the set.
func (s varSet) vars() []int {
	var out []int
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &= w - 1
		}
	}
	return out
}
