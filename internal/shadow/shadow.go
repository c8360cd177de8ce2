// Package shadow implements SolverShadow: an append-only mirror of a CDCL
// solver's clause database and assignment trail, built by replaying trace
// commands. It is the state GraphBuilder (package graph) walks to
// reconstruct a resolution refutation.
package shadow

import (
	"fmt"
	"io"
	"sort"

	"github.com/johanlindblad/resolution-graph-tool/proof"
)

// Mode selects how the shadow handles literals the solver skipped during
// conflict analysis (level-0 literals resolved away implicitly via their
// unit reasons).
type Mode uint8

const (
	// ModeNone disallows skips: every literal the trace names as skipped
	// is assumed already absent from the clause.
	ModeNone Mode = iota
	// ModeLearn materializes and memoizes an intermediate clause per
	// skipped literal, threading forward.
	ModeLearn
	// ModeResolveUnit produces a single fresh resolvent against all
	// skipped literals' units, without memoization.
	ModeResolveUnit
)

// trailItem mirrors the trace's trail: a decision level, the assigned
// literal, and the reason clause's index/reference (reasonIndex == -1
// marks a decision).
type trailItem struct {
	level       int
	lit         proof.Literal
	reasonIndex int
	reason      *proof.Clause
}

// skipStep is the structural memoization key for skip() in ModeLearn: the
// clause produced by dropping variable from the clause at fromIndex, keyed
// as a chain of (fromIndex, variable) pairs rather than a concatenated
// string — the parent of {x, [1,2,3]} is exactly the result for
// {x, [1,2]}, by construction.
type skipStep struct {
	fromIndex int
	variable  int
}

// Shadow is an append-only mirror of the solver's clause database and
// assignment trail. All mutation goes through its methods, which are not
// reentrant: callers must drive it single-threaded and strictly
// sequentially.
type Shadow struct {
	mode Mode

	// clauses is the sole owner of every clause's lifetime. It never
	// shrinks: remove_clause only forgets the cref mapping (see
	// DESIGN.md Open Question 2).
	clauses []*proof.Clause

	crefMap map[int]int
	unitMap map[int]int
	memo    map[skipStep]int

	index             []int
	decisionLevel     int
	trail             []trailItem
	firstLearnedIndex int
}

// New returns an empty Shadow configured with the given ignore mode.
func New(mode Mode) *Shadow {
	return &Shadow{
		mode:              mode,
		crefMap:           map[int]int{},
		unitMap:           map[int]int{},
		memo:              map[skipStep]int{},
		firstLearnedIndex: -1,
	}
}

// Mode returns the shadow's configured ignore mode.
func (s *Shadow) Mode() Mode { return s.mode }

// NumVars grows the variable index to cover n variables. It never shrinks.
func (s *Shadow) NumVars(n int) {
	for len(s.index) < n {
		s.index = append(s.index, -1)
	}
}

// NumVarsDeclared returns the number of variables declared so far.
func (s *Shadow) NumVarsDeclared() int { return len(s.index) }

// AddClause appends c and maps cref to its position. If c is the first
// learned clause seen, its index is remembered as firstLearnedIndex.
func (s *Shadow) AddClause(c *proof.Clause, cref int) {
	idx := len(s.clauses)
	s.clauses = append(s.clauses, c)
	s.crefMap[cref] = idx

	if c.IsLearned() && s.firstLearnedIndex == -1 {
		s.firstLearnedIndex = idx
	}
}

// AddUnit appends the unit clause c and registers it for its one literal's
// variable. c must be a unit clause.
func (s *Shadow) AddUnit(c *proof.Clause) {
	if !c.Unit() {
		panic("shadow: AddUnit called with a non-unit clause")
	}
	s.AddUnitFor(c, c.FirstLiteral())
}

// AddUnitFor appends c and registers it as the unit for l's variable. The
// two-argument form is needed when mode != ModeNone: the shadow may not
// have skipped level-0 literals the solver did, so the clause it stores is
// wider than a literal unit clause but must still be looked up by l's
// variable. A prior registration for the same variable is never
// overwritten, though the clause is still appended (preserving arena
// growth/index parity).
func (s *Shadow) AddUnitFor(c *proof.Clause, l proof.Literal) {
	idx := len(s.clauses)
	s.clauses = append(s.clauses, c)
	if _, exists := s.unitMap[l.VarID()]; !exists {
		s.unitMap[l.VarID()] = idx
	}
}

// Decide records a decision literal at a new decision level.
func (s *Shadow) Decide(l proof.Literal) {
	s.decisionLevel++
	s.setIndex(l.VarID(), len(s.trail))
	s.trail = append(s.trail, trailItem{level: s.decisionLevel, lit: l, reasonIndex: -1})
}

// Propagate records literal l as propagated via the clause at cref. At
// decision level 0 under a skip-enabled mode, it additionally synthesizes
// and registers a derived learned unit for l — capturing that a level-0
// propagation is equivalent to a learned unit once the implicitly skipped
// literals are accounted for. When the reason is itself a unit clause, that
// clause is registered as l's unit unchanged.
func (s *Shadow) Propagate(l proof.Literal, cref int) error {
	idx, ok := s.crefMap[cref]
	if !ok {
		return fmt.Errorf("%w: cref %d", ErrUnknownCref, cref)
	}
	via := s.clauses[idx]

	if s.decisionLevel == 0 && s.mode != ModeNone {
		chain := []*proof.Clause{via}
		for _, lit := range via.Literals() {
			if lit == l {
				continue
			}
			unit, err := s.UnitClause(lit.VarID())
			if err != nil {
				return err
			}
			chain = append(chain, unit)
		}
		resolved, err := proof.ResolveChain(chain)
		if err != nil {
			return err
		}
		if resolved.IsResolvent() {
			resolved = proof.MarkLearned(resolved)
		}
		s.AddUnitFor(resolved, l)
	}

	s.setIndex(l.VarID(), len(s.trail))
	s.trail = append(s.trail, trailItem{level: s.decisionLevel, lit: l, reasonIndex: idx, reason: via})
	return nil
}

// PropagateUnit records literal l as propagated via its registered learned
// unit (the trace's "PU" command).
func (s *Shadow) PropagateUnit(l proof.Literal) error {
	idx, ok := s.unitMap[l.VarID()]
	if !ok {
		return fmt.Errorf("%w: variable %d", ErrUnknownUnit, l.VarID())
	}
	s.setIndex(l.VarID(), len(s.trail))
	s.trail = append(s.trail, trailItem{level: s.decisionLevel, lit: l, reasonIndex: idx, reason: s.clauses[idx]})
	return nil
}

// Backtrack pops trail items whose level exceeds toLevel, resetting the
// index of each popped variable to -1.
func (s *Shadow) Backtrack(toLevel int) {
	for len(s.trail) > 0 {
		top := s.trail[len(s.trail)-1]
		if top.level <= toLevel {
			break
		}
		s.trail = s.trail[:len(s.trail)-1]
		s.setIndex(top.lit.VarID(), -1)
	}
	s.decisionLevel = toLevel
}

// Restart backtracks to decision level 0.
func (s *Shadow) Restart() {
	s.Backtrack(0)
}

// Skip returns the clause at cref with the given level-0 literals removed,
// per the shadow's ignore mode. literals is sorted in place by ascending
// trail index (stable canonicalization of the memoization key).
func (s *Shadow) Skip(cref int, literals []proof.Literal) (*proof.Clause, error) {
	idx, ok := s.crefMap[cref]
	if !ok {
		return nil, fmt.Errorf("%w: cref %d", ErrUnknownCref, cref)
	}
	clause := s.clauses[idx]
	if s.mode == ModeNone {
		return clause, nil
	}

	sort.Slice(literals, func(i, j int) bool {
		return s.index[literals[i].VarID()] < s.index[literals[j].VarID()]
	})

	if s.mode == ModeResolveUnit {
		chain := []*proof.Clause{clause}
		for _, l := range literals {
			unit, err := s.UnitClause(l.VarID())
			if err != nil {
				return nil, err
			}
			chain = append(chain, unit)
		}
		return proof.ResolveChain(chain)
	}

	// ModeLearn: thread forward through the memoization chain.
	from := idx
	for _, l := range literals {
		step := skipStep{fromIndex: from, variable: l.VarID()}
		if reuse, ok := s.memo[step]; ok {
			from = reuse
			continue
		}
		unitIdx, ok := s.unitMap[l.VarID()]
		if !ok {
			return nil, fmt.Errorf("%w: variable %d", ErrUnknownUnit, l.VarID())
		}
		withIgnored, err := proof.Resolve(s.clauses[from], s.clauses[unitIdx])
		if err != nil {
			return nil, err
		}
		newIdx := len(s.clauses)
		s.clauses = append(s.clauses, withIgnored)
		s.memo[step] = newIdx
		from = newIdx
	}
	return s.clauses[from], nil
}

// RemoveClause forgets the cref -> index mapping. It does not touch the
// clause arena: because every live resolvent retains strong references to
// its parents, the clause stays reachable from the DAG for analysis even
// after the solver has "deleted" it (DESIGN.md Open Question 2).
func (s *Shadow) RemoveClause(cref int) error {
	if _, ok := s.crefMap[cref]; !ok {
		return fmt.Errorf("%w: cref %d", ErrUnknownCref, cref)
	}
	delete(s.crefMap, cref)
	return nil
}

// Relocate atomically remaps cref -> index per (from, to) pairs: the
// clause that was reachable at "from" becomes reachable at "to".
func (s *Shadow) Relocate(moves [][2]int) error {
	next := make(map[int]int, len(s.crefMap))
	for k, v := range s.crefMap {
		next[k] = v
	}

	for _, mv := range moves {
		from, to := mv[0], mv[1]
		idx, ok := s.crefMap[from]
		if !ok {
			return fmt.Errorf("%w: cref %d", ErrUnknownCref, from)
		}
		next[to] = idx
		if got, ok := next[from]; ok && got == idx {
			delete(next, from)
		}
	}

	s.crefMap = next
	return nil
}

// Minimize performs the "simple"/subset minimization: literals in
// toRemove are dropped by resolving initial, in descending trail-index
// order, with each literal's reason clause.
func (s *Shadow) Minimize(initial *proof.Clause, toRemove []proof.Literal) (*proof.Clause, error) {
	ordered := append([]proof.Literal(nil), toRemove...)
	sort.Slice(ordered, func(i, j int) bool {
		return s.index[ordered[i].VarID()] > s.index[ordered[j].VarID()]
	})

	remaining := initial
	for _, l := range ordered {
		reason, err := s.reasonFor(l)
		if err != nil {
			return nil, err
		}
		remaining, err = proof.Resolve(remaining, reason)
		if err != nil {
			return nil, err
		}
	}
	return remaining, nil
}

// MinimizeFull performs the transitive ("recursive") minimization:
// resolving away toRemove can introduce new temporary literals, which are
// in turn resolved away until only initial's own variables remain.
func (s *Shadow) MinimizeFull(initial *proof.Clause, toRemove []proof.Literal) (*proof.Clause, error) {
	initialVars := map[int]bool{}
	for _, l := range initial.Literals() {
		initialVars[l.VarID()] = true
	}
	handled := map[int]bool{}

	remaining := initial
	pending := append([]proof.Literal(nil), toRemove...)

	for len(pending) > 0 {
		maxI, maxIdx := 0, s.index[pending[0].VarID()]
		for i, l := range pending[1:] {
			if v := s.index[l.VarID()]; v > maxIdx {
				maxI, maxIdx = i+1, v
			}
		}
		remove := pending[maxI]
		pending = append(pending[:maxI], pending[maxI+1:]...)

		reason, err := s.reasonFor(remove)
		if err != nil {
			return nil, err
		}

		for _, l := range reason.Literals() {
			v := l.VarID()
			if initialVars[v] || handled[v] || v == remove.VarID() {
				continue
			}
			pending = append(pending, l)
			handled[v] = true
		}

		remaining, err = proof.Resolve(remaining, reason)
		if err != nil {
			return nil, err
		}
	}
	return remaining, nil
}

func (s *Shadow) reasonFor(l proof.Literal) (*proof.Clause, error) {
	pos := s.index[l.VarID()]
	if pos < 0 {
		return nil, fmt.Errorf("%w: variable %d is not on the trail", ErrUnknownUnit, l.VarID())
	}
	reason := s.trail[pos].reason
	if reason == nil {
		return nil, fmt.Errorf("%w: variable %d was a decision, has no reason", ErrUnknownUnit, l.VarID())
	}
	return reason, nil
}

// ClauseByCref looks up the clause currently mapped to cref.
func (s *Shadow) ClauseByCref(cref int) (*proof.Clause, error) {
	idx, ok := s.crefMap[cref]
	if !ok {
		return nil, fmt.Errorf("%w: cref %d", ErrUnknownCref, cref)
	}
	return s.clauses[idx], nil
}

// UnitClause looks up the registered learned unit for variable v.
func (s *Shadow) UnitClause(v int) (*proof.Clause, error) {
	idx, ok := s.unitMap[v]
	if !ok {
		return nil, fmt.Errorf("%w: variable %d", ErrUnknownUnit, v)
	}
	return s.clauses[idx], nil
}

// Index returns the trail position of v's current assignment, or -1 if v
// is unassigned.
func (s *Shadow) Index(v int) int {
	if v < 0 || v >= len(s.index) {
		return -1
	}
	return s.index[v]
}

// TrailLen returns the number of items on the trail.
func (s *Shadow) TrailLen() int { return len(s.trail) }

// TrailLiteralAt returns the literal assigned at trail position pos.
func (s *Shadow) TrailLiteralAt(pos int) proof.Literal { return s.trail[pos].lit }

// TrailReasonAt returns the reason clause (nil for a decision) assigned at
// trail position pos.
func (s *Shadow) TrailReasonAt(pos int) *proof.Clause { return s.trail[pos].reason }

// Clauses returns the shadow's clause arena. Callers must not mutate the
// returned slice; it is shared, not copied, for performance.
func (s *Shadow) Clauses() []*proof.Clause { return s.clauses }

// FirstLearnedIndex returns the index of the first learned clause added,
// or -1 if none has been added yet.
func (s *Shadow) FirstLearnedIndex() int { return s.firstLearnedIndex }

// DecisionLevel returns the current decision level.
func (s *Shadow) DecisionLevel() int { return s.decisionLevel }

func (s *Shadow) setIndex(v, pos int) {
	for len(s.index) <= v {
		s.index = append(s.index, -1)
	}
	s.index[v] = pos
}

// DumpTrail writes a human-readable rendering of the trail to w, one item
// per line, e.g. "1: ~3 via 1 ~3".
func (s *Shadow) DumpTrail(w io.Writer) {
	for _, item := range s.trail {
		if item.reason != nil {
			fmt.Fprintf(w, "%d: %v via %v\n", item.level, item.lit, item.reason)
		} else {
			fmt.Fprintf(w, "%d: %v\n", item.level, item.lit)
		}
	}
}
