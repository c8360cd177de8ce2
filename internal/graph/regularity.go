package graph

import "github.com/johanlindblad/resolution-graph-tool/proof"

// VerifyRegularity independently recomputes the regularity-violation total
// for the refutation rooted at empty, by DFS over the proof tree rather
// than trusting Clause's incrementally-accumulated counters. It mirrors
// the original tool's stack-based path verifier: a pivot variable counted
// twice or more along a single root-to-leaf path is a violation.
//
// It returns the independently-computed total and, if it disagrees with
// empty.RegularityViolations(), ErrRegularityMismatch.
func VerifyRegularity(empty *proof.Clause) (uint64, error) {
	timesUsed := map[int]int{}
	var total uint64

	type status int
	const (
		unhandled status = iota
		usedFirst
		usedBoth
	)
	type frame struct {
		clause *proof.Clause
		status status
	}

	stack := []frame{{empty, unhandled}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.clause.IsAxiom() {
			for _, n := range timesUsed {
				if n > 1 {
					total += uint64(n - 1)
				}
			}
			continue
		}

		switch top.status {
		case unhandled:
			pivot := top.clause.Pivot()
			timesUsed[pivot]++
			left, _ := top.clause.Parents()
			stack = append(stack, frame{top.clause, usedFirst}, frame{left, unhandled})
		case usedFirst:
			_, right := top.clause.Parents()
			stack = append(stack, frame{top.clause, usedBoth}, frame{right, unhandled})
		case usedBoth:
			pivot := top.clause.Pivot()
			timesUsed[pivot]--
		}
	}

	if total != empty.RegularityViolations() {
		return total, ErrRegularityMismatch
	}
	return total, nil
}
