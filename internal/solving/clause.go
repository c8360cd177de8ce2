package solving

import "github.com/johanlindblad/resolution-graph-tool/proof"

// clause is the solver-internal representation of a constraint or learnt
// clause: a watched-literal pair plus the full literal list. cref is the
// identifier this clause is known by on the emitted trace.
type clause struct {
	cref     int
	literals []proof.Literal
	learnt   bool
	activity float64
}

// litIndex maps a literal to its position in the solver's per-literal
// arrays (watchers, assigns): 2*varID for the positive literal, 2*varID+1
// for the negative one.
func litIndex(l proof.Literal) int {
	if l.Negated() {
		return l.VarID()*2 + 1
	}
	return l.VarID() * 2
}

// newClause builds a clause from literals already known to be live
// (neither satisfied nor falsified) at the root level; the caller is
// responsible for any root-level simplification. It registers the two
// watches and returns false if the clause collapsed to empty (a contract
// violation the caller must treat as UNSAT).
func newClause(s *Solver, literals []proof.Literal, learnt bool, cref int) (*clause, bool) {
	if len(literals) == 0 {
		return nil, false
	}
	c := &clause{
		cref:     cref,
		literals: append([]proof.Literal(nil), literals...),
		learnt:   learnt,
	}
	if len(c.literals) == 1 {
		return c, true
	}

	if learnt {
		// Keep the asserting literal at position 0 and move the
		// highest-level remaining literal to position 1, so the second
		// watch re-triggers as soon as possible on backtrack.
		maxLevel, at := -1, 1
		for i := 1; i < len(c.literals); i++ {
			if lvl := s.level[c.literals[i].VarID()]; lvl > maxLevel {
				maxLevel, at = lvl, i
			}
		}
		c.literals[1], c.literals[at] = c.literals[at], c.literals[1]
	}

	s.watch(c, litIndex(c.literals[0].Opposite()), c.literals[1])
	s.watch(c, litIndex(c.literals[1].Opposite()), c.literals[0])
	return c, true
}

func (c *clause) locked(s *Solver) bool {
	return s.reason[c.literals[0].VarID()] == c
}

func (c *clause) remove(s *Solver) {
	s.unwatch(c, litIndex(c.literals[0].Opposite()))
	s.unwatch(c, litIndex(c.literals[1].Opposite()))
}

// propagate runs the two-watched-literals update triggered by l becoming
// true; it returns false if the clause is now conflicting.
func (c *clause) propagate(s *Solver, l proof.Literal) bool {
	opp := l.Opposite()
	if c.literals[0] == opp {
		c.literals[0], c.literals[1] = c.literals[1], c.literals[0]
	}

	if s.litValue(c.literals[0]) == lTrue {
		s.watch(c, litIndex(l), c.literals[0])
		return true
	}

	for i := 2; i < len(c.literals); i++ {
		if s.litValue(c.literals[i]) != lFalse {
			c.literals[1], c.literals[i] = c.literals[i], c.literals[1]
			s.watch(c, litIndex(c.literals[1].Opposite()), c.literals[0])
			return true
		}
	}

	s.watch(c, litIndex(l), c.literals[0])
	return s.enqueue(c.literals[0], c)
}

// explainAssign returns the clause's other literals, negated, as the
// antecedent of its having forced literals[0] true. Consulting a learnt
// clause during analysis bumps its activity, same as a propagation through
// it would.
func (c *clause) explainAssign(s *Solver) []proof.Literal {
	out := make([]proof.Literal, 0, len(c.literals)-1)
	for _, l := range c.literals[1:] {
		out = append(out, l.Opposite())
	}
	if c.learnt {
		s.bumpClause(c)
	}
	return out
}

// explainFailure returns every literal of a conflicting clause, negated.
// Consulting a learnt clause during analysis bumps its activity.
func (c *clause) explainFailure(s *Solver) []proof.Literal {
	out := make([]proof.Literal, 0, len(c.literals))
	for _, l := range c.literals {
		out = append(out, l.Opposite())
	}
	if c.learnt {
		s.bumpClause(c)
	}
	return out
}
