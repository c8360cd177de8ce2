package proof

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Kind tags a clause as an axiom (no parents), an intermediate resolvent
// (a non-learned result of resolving two clauses), or a clause the solver
// persisted as the output of conflict analysis.
type Kind uint8

const (
	Axiom Kind = iota
	Intermediate
	Learned
)

func (k Kind) String() string {
	switch k {
	case Axiom:
		return "axiom"
	case Intermediate:
		return "intermediate"
	case Learned:
		return "learned"
	default:
		return "unknown"
	}
}

// ErrNoPivot is returned by Resolve when the two clauses share no
// opposite-polarity variable to eliminate. The trace is expected to
// guarantee this never happens; when it does, the trace is malformed.
var ErrNoPivot = errors.New("proof: resolution has no pivot")

// Clause is an immutable, structurally sorted sequence of literals, keyed
// by ascending variable (at most one literal per variable). It is a node
// of the shared resolution DAG: every resolvent keeps strong references to
// its two parents, so a live clause keeps its whole subproof alive.
type Clause struct {
	literals []Literal // sorted by VarID, ascending; no duplicate variable

	kind Kind

	left, right *Clause // parents; nil iff kind == Axiom
	pivot       int     // variable eliminated by this resolution; valid iff kind != Axiom

	removedSet   varSet // union of both parents' removedSet, plus pivot
	reremovedSet varSet // removedSet entries that were already removed once

	violatedRegularity bool // pivot was already in a parent's removedSet
	regularityTotal    uint64

	copyCost *big.Int
}

// NewAxiom builds an axiom (input) clause from literals. Literals are
// copied and sorted by variable; duplicates are not expected in axiom
// clauses from a well-formed trace and are left as-is (the caller is the
// trace dispatcher, which is responsible for a sane input clause).
func NewAxiom(literals []Literal) *Clause {
	lits := append([]Literal(nil), literals...)
	sort.Slice(lits, func(i, j int) bool { return lits[i].VarID() < lits[j].VarID() })
	return &Clause{
		literals: lits,
		kind:     Axiom,
		copyCost: big.NewInt(1),
	}
}

// MarkLearned returns a clause identical to c but tagged as learned. c
// must be a resolvent: axioms are never learned.
func MarkLearned(c *Clause) *Clause {
	if c.kind == Axiom {
		panic("proof: MarkLearned called on an axiom clause")
	}
	learned := *c
	learned.kind = Learned
	return &learned
}

// Resolve resolves two clauses on their single opposite-polarity common
// variable (the pivot). Literals present in only one operand are kept;
// literals present in both with the same polarity are kept once; the
// pivot variable (present with opposite polarity in both) is dropped.
//
// Resolve panics if more than one opposite-polarity pair is found: a
// well-formed trace never asks for an ambiguous resolution, so this is a
// caller bug, not a condition to report as an error. It returns
// ErrNoPivot if no such pair exists.
func Resolve(a, b *Clause) (*Clause, error) {
	lits, pivot, err := mergeResolve(a.literals, b.literals)
	if err != nil {
		return nil, err
	}

	violated := a.removedSet.has(pivot) || b.removedSet.has(pivot)
	removed := a.removedSet.union(b.removedSet).withAdded(pivot)
	reremoved := a.reremovedSet.union(b.reremovedSet)
	if violated {
		reremoved = reremoved.withAdded(pivot)
	}

	regularity := a.regularityTotal + b.regularityTotal
	if violated {
		regularity++
	}

	cost := new(big.Int).Add(a.copyCost, b.copyCost)
	cost.Add(cost, big.NewInt(1))

	return &Clause{
		literals:           lits,
		kind:               Intermediate,
		left:               a,
		right:              b,
		pivot:              pivot,
		removedSet:         removed,
		reremovedSet:       reremoved,
		violatedRegularity: violated,
		regularityTotal:    regularity,
		copyCost:           cost,
	}, nil
}

// ResolveChain left-folds Resolve over clauses: resolve(resolve(c0, c1),
// c2), ... It requires at least one clause.
func ResolveChain(clauses []*Clause) (*Clause, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("proof: ResolveChain requires at least one clause")
	}
	acc := clauses[0]
	for _, c := range clauses[1:] {
		var err error
		acc, err = Resolve(acc, c)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// mergeResolve walks both sorted literal sequences by variable, merging
// them and identifying the single pivot (the variable present with
// opposite polarity on both sides).
func mergeResolve(a, b []Literal) ([]Literal, int, error) {
	out := make([]Literal, 0, len(a)+len(b))
	pivot := -1
	foundPivot := false

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		la, lb := a[i], b[j]
		switch {
		case la.VarID() < lb.VarID():
			out = append(out, la)
			i++
		case la.VarID() > lb.VarID():
			out = append(out, lb)
			j++
		default: // same variable
			if la.Negated() == lb.Negated() {
				out = append(out, la)
			} else {
				if foundPivot {
					panic(fmt.Sprintf("proof: resolution of two clauses found more than one pivot (variable %d and %d)", pivot, la.VarID()))
				}
				foundPivot = true
				pivot = la.VarID()
			}
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)

	if !foundPivot {
		return nil, -1, ErrNoPivot
	}

	return out, pivot, nil
}

// Literals returns the clause's literals, sorted by variable. The caller
// must not mutate the returned slice.
func (c *Clause) Literals() []Literal { return c.literals }

// Width returns the number of literals in the clause.
func (c *Clause) Width() int { return len(c.literals) }

// Empty reports whether the clause has no literals.
func (c *Clause) Empty() bool { return len(c.literals) == 0 }

// Unit reports whether the clause has exactly one literal.
func (c *Clause) Unit() bool { return len(c.literals) == 1 }

// FirstLiteral returns the clause's first (and, for a unit clause, only)
// literal. It panics if the clause is empty.
func (c *Clause) FirstLiteral() Literal {
	return c.literals[0]
}

// Kind returns the clause's kind.
func (c *Clause) Kind() Kind { return c.kind }

// IsAxiom, IsIntermediate and IsLearned are convenience predicates over Kind.
func (c *Clause) IsAxiom() bool        { return c.kind == Axiom }
func (c *Clause) IsIntermediate() bool { return c.kind == Intermediate }
func (c *Clause) IsLearned() bool      { return c.kind == Learned }

// IsResolvent reports whether the clause has parents (i.e. is not an axiom).
func (c *Clause) IsResolvent() bool { return c.kind != Axiom }

// Parents returns the two clauses this clause was resolved from. It
// panics if the clause is an axiom.
func (c *Clause) Parents() (left, right *Clause) {
	if c.kind == Axiom {
		panic("proof: Parents called on an axiom clause")
	}
	return c.left, c.right
}

// Pivot returns the variable eliminated by this resolution. It panics if
// the clause is an axiom.
func (c *Clause) Pivot() int {
	if c.kind == Axiom {
		panic("proof: Pivot called on an axiom clause")
	}
	return c.pivot
}

// RegularityViolations returns the total number of regularity violations
// accumulated over this clause's entire subproof.
func (c *Clause) RegularityViolations() uint64 { return c.regularityTotal }

// ViolatedRegularity reports whether constructing this specific node
// broke regularity (its pivot was already eliminated in a parent).
func (c *Clause) ViolatedRegularity() bool { return c.violatedRegularity }

// RegularityViolationVariables returns the distinct variables that are
// responsible for at least one regularity violation in this clause's
// subproof.
func (c *Clause) RegularityViolationVariables() []int {
	return c.reremovedSet.vars()
}

// CopyCost returns the size of this clause's tree-form expansion: 1 for
// an axiom, 1 + left.CopyCost() + right.CopyCost() for a resolvent. It is
// an arbitrary-precision integer because a DAG shared through reuse can
// expand to a tree exponentially larger in depth.
func (c *Clause) CopyCost() *big.Int {
	return new(big.Int).Set(c.copyCost)
}

// Equal compares two clauses structurally, by literal sequence only,
// ignoring parents and kind.
func (c *Clause) Equal(other *Clause) bool {
	if len(c.literals) != len(other.literals) {
		return false
	}
	for i, l := range c.literals {
		if l != other.literals[i] {
			return false
		}
	}
	return true
}

// String renders the clause as a space-separated list of literals, e.g.
// "1 ~2 3". An empty clause renders as "".
func (c *Clause) String() string {
	parts := make([]string, len(c.literals))
	for i, l := range c.literals {
		parts[i] = l.String()
	}
	return strings.Join(parts, " ")
}
