// Package solving instruments a CDCL SAT solver so that, as it searches,
// it emits the same trace protocol internal/trace consumes. It exists for
// the "gentrace" subcommand: a way to produce realistic, genuinely
// solver-derived traces instead of hand-written ones.
package solving

import (
	"fmt"
	"io"
	"sort"

	"github.com/johanlindblad/resolution-graph-tool/internal/shadow"
	"github.com/johanlindblad/resolution-graph-tool/proof"
)

// watcher is a clause attached to one literal's watch list.
type watcher struct {
	clause *clause
	guard  proof.Literal
}

// Options configures the instrumented solver's search and trace-emission
// policy.
type Options struct {
	ClauseDecay      float64
	VarDecay         float64
	Mode             shadow.Mode // the ignore mode this solver's trace assumes on replay
	RestartInterval  int64       // conflicts between restarts; <= 0 disables restarts
	ReduceDBInterval int64       // conflicts between learnt-clause cleanups; <= 0 disables cleanup
	MaxConflicts     int64       // <= 0 means unlimited
}

// DefaultOptions holds reasonable CDCL tuning constants.
var DefaultOptions = Options{
	ClauseDecay:      0.999,
	VarDecay:         0.95,
	Mode:             shadow.ModeLearn,
	RestartInterval:  100,
	ReduceDBInterval: 512,
	MaxConflicts:     -1,
}

// Solver is a 2-watched-literal CDCL solver that emits a trace of its own
// execution instead of (or in addition to) deciding satisfiability.
type Solver struct {
	opts    Options
	emitter *emitter

	constraints []*clause
	learnts     []*clause
	nextCref    int

	clauseInc float64

	watchers    [][]watcher
	tmpWatchers []watcher // scratch copy reused by propagate to avoid mutating a list while scanning it
	propQueue   *ringQueue[proof.Literal]

	assigns []lbool
	trail   []proof.Literal

	trailLim []int
	reason   []*clause
	level    []int

	order *varOrder

	// unitByVar holds every conflict-derived learned unit clause, keyed by
	// variable, so a later re-assertion (e.g. after a restart clears the
	// trail) can be announced with "PU" rather than re-deriving it.
	unitByVar map[int]*clause

	seen map[int]bool // scratch set reused by analyze

	unsat bool

	totalConflicts        int64
	conflictsSinceRestart int64
	conflictsSinceReduce  int64
}

// New returns a solver for a problem over numVars variables (1..numVars),
// immediately emitting the trace's "NV" preamble line to w.
func New(numVars int, opts Options, w io.Writer) *Solver {
	s := &Solver{
		opts:      opts,
		emitter:   newEmitter(w),
		clauseInc: 1,
		propQueue: newRingQueue[proof.Literal](128),
		order:     newVarOrder(opts.VarDecay),
		unitByVar: map[int]*clause{},
		seen:      map[int]bool{},
	}
	s.emitter.numVars(numVars)

	// Variables are numbered 1..numVars to match the wire protocol; index 0
	// is allocated but never assigned.
	for v := 0; v <= numVars; v++ {
		s.watchers = append(s.watchers, nil, nil)
		s.reason = append(s.reason, nil)
		s.level = append(s.level, -1)
		s.assigns = append(s.assigns, lUnknown, lUnknown)
		s.order.addVar()
	}
	return s
}

func (s *Solver) numVars() int        { return len(s.level) - 1 } // index 0 is a dummy
func (s *Solver) decisionLevel() int  { return len(s.trailLim) }
func (s *Solver) varValue(v int) lbool { return s.assigns[v*2] }

func (s *Solver) litValue(l proof.Literal) lbool {
	v := s.varValue(l.VarID())
	if l.Negated() {
		return v.opposite()
	}
	return v
}

func (s *Solver) watch(c *clause, idx int, guard proof.Literal) {
	s.watchers[idx] = append(s.watchers[idx], watcher{clause: c, guard: guard})
}

func (s *Solver) unwatch(c *clause, idx int) {
	kept := s.watchers[idx][:0]
	for _, w := range s.watchers[idx] {
		if w.clause != c {
			kept = append(kept, w)
		}
	}
	s.watchers[idx] = kept
}

func (s *Solver) allocCref() int {
	c := s.nextCref
	s.nextCref++
	return c
}

// AddClause registers a root-level (axiom) clause and emits its "I" line.
// It must only be called before Solve (i.e. at decision level 0, before
// any search has taken place).
func (s *Solver) AddClause(lits []proof.Literal) error {
	if s.decisionLevel() != 0 {
		return fmt.Errorf("solving: AddClause called mid-search")
	}
	if len(lits) == 0 {
		s.unsat = true
		return nil
	}

	cref := s.allocCref()
	s.emitter.axiom(cref, lits)

	c := &clause{cref: cref, literals: append([]proof.Literal(nil), lits...)}
	s.constraints = append(s.constraints, c)

	if len(lits) == 1 {
		l := lits[0]
		switch s.litValue(l) {
		case lFalse:
			s.unsat = true
		case lUnknown:
			s.enqueue(l, c)
			s.emitter.propagate(l, cref)
		}
		return nil
	}

	s.watch(c, litIndex(c.literals[0].Opposite()), c.literals[1])
	s.watch(c, litIndex(c.literals[1].Opposite()), c.literals[0])
	return nil
}

// enqueue records l as assigned true, without any trace emission; the
// caller picks the right emission (D, P, or PU) for its own reason.
func (s *Solver) enqueue(l proof.Literal, from *clause) bool {
	switch s.litValue(l) {
	case lFalse:
		return false
	case lTrue:
		return true
	default:
		v := l.VarID()
		val := lTrue
		if l.Negated() {
			val = lFalse
		}
		s.assigns[v*2] = val
		s.level[v] = s.decisionLevel()
		s.reason[v] = from
		s.trail = append(s.trail, l)
		s.propQueue.push(l)
		return true
	}
}

func (s *Solver) assume(l proof.Literal) bool {
	s.trailLim = append(s.trailLim, len(s.trail))
	s.emitter.decide(l)
	return s.enqueue(l, nil)
}

// propagate runs unit propagation to a fixpoint, returning the clause that
// conflicted, or nil if a fixpoint with no conflict was reached. Every new
// assignment it derives is announced with a "P" line.
func (s *Solver) propagate() *clause {
	for s.propQueue.size() > 0 {
		l := s.propQueue.pop()
		idx := litIndex(l)

		s.tmpWatchers = s.tmpWatchers[:0]
		s.tmpWatchers = append(s.tmpWatchers, s.watchers[idx]...)
		s.watchers[idx] = s.watchers[idx][:0]

		for i, w := range s.tmpWatchers {
			if s.litValue(w.guard) == lTrue {
				s.watchers[idx] = append(s.watchers[idx], w)
				continue
			}

			before := len(s.trail)
			if w.clause.propagate(s, l) {
				if len(s.trail) > before {
					s.emitter.propagate(s.trail[len(s.trail)-1], w.clause.cref)
				}
				continue
			}

			s.watchers[idx] = append(s.watchers[idx], s.tmpWatchers[i+1:]...)
			s.propQueue.clear()
			return s.tmpWatchers[i].clause
		}
	}
	return nil
}

// conflictStep is one "U [S]" line pair recorded while walking the
// conflict graph back to the first unique implication point.
type conflictStep struct {
	cref    int
	skipped []proof.Literal
}

// analyze implements first-UIP conflict analysis, additionally recording,
// for every reason clause it consults, the trace steps (the consulted
// cref and any of its literals already fixed at decision level 0 — which
// the dispatcher's ignore modes can reconstruct via "S" rather than
// resolving explicitly).
func (s *Solver) analyze(confl *clause) ([]proof.Literal, int, []conflictStep) {
	nImplicationPoints := 0
	learnt := []proof.Literal{{}} // placeholder for the FUIP, filled in below
	var steps []conflictStep

	for k := range s.seen {
		delete(s.seen, k)
	}

	nextTrail := len(s.trail) - 1
	backtrackLevel := 0
	var l proof.Literal
	first := true

	for {
		var lits []proof.Literal
		var cref int
		if first {
			lits = confl.explainFailure(s)
			cref = confl.cref
			first = false
		} else {
			lits = confl.explainAssign(s)
			cref = confl.cref
		}

		var skipped []proof.Literal
		for _, q := range lits {
			v := q.VarID()
			if s.seen[v] {
				continue
			}
			s.seen[v] = true
			s.order.bump(v)

			if s.level[v] == 0 {
				skipped = append(skipped, q)
				continue
			}
			if s.level[v] == s.decisionLevel() {
				nImplicationPoints++
				continue
			}

			learnt = append(learnt, q.Opposite())
			if s.level[v] > backtrackLevel {
				backtrackLevel = s.level[v]
			}
		}
		steps = append(steps, conflictStep{cref: cref, skipped: skipped})

		for {
			l = s.trail[nextTrail]
			nextTrail--
			v := l.VarID()
			confl = s.reason[v]
			if s.seen[v] {
				break
			}
		}
		nImplicationPoints--
		if nImplicationPoints <= 0 {
			break
		}
	}

	learnt[0] = l.Opposite()
	return learnt, backtrackLevel, steps
}

// record emits the finalizing trace lines for a just-derived learnt
// clause and installs it in the solver's clause database.
func (s *Solver) record(learnt []proof.Literal, steps []conflictStep) {
	for _, step := range steps {
		s.emitter.use(step.cref)
		s.emitter.skip(step.skipped)
	}

	if len(learnt) == 1 {
		l := learnt[0]
		s.emitter.learnUnit(l)
		c := &clause{literals: learnt, learnt: true, cref: -1}
		s.unitByVar[l.VarID()] = c
		s.enqueue(l, c)
		s.emitter.propagateUnit(l)
		return
	}

	cref := s.allocCref()
	s.emitter.learn(cref, learnt)

	c, ok := newClause(s, learnt, true, cref)
	if ok && c != nil {
		s.learnts = append(s.learnts, c)
		s.enqueue(learnt[0], c)
		s.emitter.propagate(learnt[0], cref)
	}
}

func (s *Solver) bumpClause(c *clause) {
	c.activity += s.clauseInc
	if c.activity > 1e100 {
		s.clauseInc *= 1e-100
		for _, l := range s.learnts {
			l.activity *= 1e-100
		}
	}
}

func (s *Solver) decayActivities() {
	s.clauseInc /= s.opts.ClauseDecay
	s.order.decayActivity()
}

func (s *Solver) undoOne() {
	l := s.trail[len(s.trail)-1]
	v := l.VarID()
	s.order.reinsert(v)
	s.assigns[v*2] = lUnknown
	s.reason[v] = nil
	s.level[v] = -1
	s.trail = s.trail[:len(s.trail)-1]
}

func (s *Solver) cancelUntil(level int) {
	for s.decisionLevel() > level {
		c := len(s.trail) - s.trailLim[len(s.trailLim)-1]
		for ; c > 0; c-- {
			s.undoOne()
		}
		s.trailLim = s.trailLim[:len(s.trailLim)-1]
	}
}

// backtrackTo cancels to level and emits the corresponding "B" line.
func (s *Solver) backtrackTo(level int) {
	if s.decisionLevel() <= level {
		return
	}
	s.cancelUntil(level)
	s.emitter.backtrack(level)
}

// restart cancels all the way to level 0 and re-asserts via "PU" every
// known unit fact that is not still assigned: a restart never needs to
// re-derive a unit, only re-announce it.
func (s *Solver) restart() {
	s.cancelUntil(0)
	s.emitter.restart()

	vars := make([]int, 0, len(s.unitByVar))
	for v := range s.unitByVar {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	for _, v := range vars {
		c := s.unitByVar[v]
		l := c.literals[0]
		if s.litValue(l) == lUnknown {
			s.enqueue(l, c)
			s.emitter.propagateUnit(l)
		}
	}
}

// simplify removes constraints and learnt clauses already satisfied at
// decision level 0, announcing each removal with "R".
func (s *Solver) simplify() {
	s.constraints = s.simplifySlice(s.constraints)
	s.learnts = s.simplifySlice(s.learnts)
}

func (s *Solver) simplifySlice(clauses []*clause) []*clause {
	kept := clauses[:0]
	for _, c := range clauses {
		satisfied := false
		for _, l := range c.literals {
			if s.litValue(l) == lTrue {
				satisfied = true
				break
			}
		}
		if satisfied && len(c.literals) >= 2 {
			c.remove(s)
			s.emitter.removeClause(c.cref)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// reduceLearnts discards the unlocked clauses among the least active half
// of the learnt clauses and renumbers the survivors to fresh crefs,
// announcing drops with "R" and the renumbering with "M"/"RD".
func (s *Solver) reduceLearnts() {
	sort.Slice(s.learnts, func(i, j int) bool {
		return s.learnts[i].activity < s.learnts[j].activity
	})

	kept := s.learnts[:0]
	var moves [][2]int
	for i, c := range s.learnts {
		if !c.locked(s) && i < len(s.learnts)/2 {
			c.remove(s)
			s.emitter.removeClause(c.cref)
			continue
		}
		newCref := s.allocCref()
		if newCref != c.cref {
			moves = append(moves, [2]int{c.cref, newCref})
			c.cref = newCref
		}
		kept = append(kept, c)
	}
	s.learnts = kept
	if len(moves) > 0 {
		s.emitter.relocate(moves)
	}
}

// Solve runs CDCL search to completion (or until MaxConflicts is hit) and
// returns true if the problem is unsatisfiable, emitting the terminating
// "C" line in that case. Satisfiable and unknown outcomes emit no "C"
// line, since there is no refutation to analyze.
func (s *Solver) Solve() (unsat bool, err error) {
	defer s.emitter.flush()

	if s.unsat {
		s.emitter.conflict(0)
		return true, nil
	}

	for {
		conflict := s.propagate()
		if conflict == nil {
			if s.decisionLevel() == 0 {
				s.simplify()
			}
			if s.numAssigned() == s.numVars() {
				s.cancelUntil(0)
				return false, nil
			}

			l, ok := s.order.next(s)
			if !ok {
				s.cancelUntil(0)
				return false, nil
			}
			s.assume(l)
			continue
		}

		s.totalConflicts++
		s.conflictsSinceRestart++
		s.conflictsSinceReduce++

		if s.decisionLevel() == 0 {
			s.emitter.conflict(conflict.cref)
			return true, nil
		}

		learnt, backtrackLevel, steps := s.analyze(conflict)
		s.backtrackTo(backtrackLevel)
		s.record(learnt, steps)
		s.decayActivities()

		if s.opts.MaxConflicts > 0 && s.totalConflicts >= s.opts.MaxConflicts {
			s.cancelUntil(0)
			return false, nil
		}
		if s.opts.RestartInterval > 0 && s.conflictsSinceRestart >= s.opts.RestartInterval {
			s.conflictsSinceRestart = 0
			s.restart()
		}
		if s.opts.ReduceDBInterval > 0 && s.conflictsSinceReduce >= s.opts.ReduceDBInterval && len(s.learnts) > 2 {
			s.conflictsSinceReduce = 0
			s.reduceLearnts()
		}
	}
}

func (s *Solver) numAssigned() int { return len(s.trail) }
