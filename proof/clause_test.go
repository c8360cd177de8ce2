package proof

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lits(vs ...int) []Literal {
	out := make([]Literal, len(vs))
	for i, v := range vs {
		if v < 0 {
			out[i] = Negative(-v)
		} else {
			out[i] = Positive(v)
		}
	}
	return out
}

func TestNewAxiom_SortsAndTagsKind(t *testing.T) {
	c := NewAxiom(lits(2, -1))

	want := lits(-1, 2)
	if diff := cmp.Diff(want, c.Literals(), cmp.AllowUnexported(Literal{})); diff != "" {
		t.Errorf("literals mismatch (-want +got):\n%s", diff)
	}
	if c.Kind() != Axiom {
		t.Errorf("Kind() = %v, want Axiom", c.Kind())
	}
	if c.CopyCost().Cmp(big.NewInt(1)) != 0 {
		t.Errorf("CopyCost() = %v, want 1", c.CopyCost())
	}
	if c.IsResolvent() {
		t.Errorf("IsResolvent() = true for an axiom")
	}
}

func TestResolve_SingleResolution(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, 3))

	r, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if diff := cmp.Diff(lits(2, 3), r.Literals(), cmp.AllowUnexported(Literal{})); diff != "" {
		t.Errorf("literals mismatch (-want +got):\n%s", diff)
	}
	if r.Pivot() != 1 {
		t.Errorf("Pivot() = %d, want 1", r.Pivot())
	}
	if r.CopyCost().Cmp(big.NewInt(3)) != 0 {
		t.Errorf("CopyCost() = %v, want 3", r.CopyCost())
	}
	if r.RegularityViolations() != 0 {
		t.Errorf("RegularityViolations() = %d, want 0", r.RegularityViolations())
	}
	if got := removedVars(r); !cmp.Equal(got, []int{1}) {
		t.Errorf("removed set = %v, want [1]", got)
	}
}

func TestResolve_Commutative(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, 3))

	ab, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("Resolve(a, b): %v", err)
	}
	ba, err := Resolve(b, a)
	if err != nil {
		t.Fatalf("Resolve(b, a): %v", err)
	}

	if !ab.Equal(ba) {
		t.Errorf("Resolve(a, b) = %v, Resolve(b, a) = %v, want equal literal sequences", ab, ba)
	}
}

func TestResolve_NoPivot(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(3, 4))

	if _, err := Resolve(a, b); err != ErrNoPivot {
		t.Errorf("Resolve() error = %v, want ErrNoPivot", err)
	}
}

func TestResolve_MultiplePivotsPanics(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, -2))

	defer func() {
		if recover() == nil {
			t.Errorf("Resolve() did not panic on two opposite-polarity pairs")
		}
	}()
	Resolve(a, b)
}

func TestRegularityViolation(t *testing.T) {
	// Resolving on variable 1 twice along the same chain: a,b -> (2 3),
	// then with d on pivot 3 -> (1 2), then with b again on pivot 1.
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, 3))
	d := NewAxiom(lits(1, -3))

	r1, err := Resolve(a, b) // (2 3), pivot 1
	if err != nil {
		t.Fatalf("resolve a,b: %v", err)
	}
	r2, err := Resolve(r1, d) // (1 2), pivot 3
	if err != nil {
		t.Fatalf("resolve r1,d: %v", err)
	}
	r3, err := Resolve(r2, b) // (2 3), pivot 1 again: regularity violation
	if err != nil {
		t.Fatalf("resolve r2,b: %v", err)
	}

	if r3.RegularityViolations() != 1 {
		t.Errorf("RegularityViolations() = %d, want 1", r3.RegularityViolations())
	}
	if !r3.ViolatedRegularity() {
		t.Errorf("ViolatedRegularity() = false, want true")
	}
	vars := r3.RegularityViolationVariables()
	found := false
	for _, v := range vars {
		if v == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("RegularityViolationVariables() = %v, want to contain 1", vars)
	}
}

func TestClause_EmptyUnitWidth(t *testing.T) {
	empty := NewAxiom(nil)
	if !empty.Empty() || empty.Unit() || empty.Width() != 0 {
		t.Errorf("empty clause: Empty()=%v Unit()=%v Width()=%d", empty.Empty(), empty.Unit(), empty.Width())
	}

	unit := NewAxiom(lits(4))
	if unit.Empty() || !unit.Unit() || unit.Width() != 1 {
		t.Errorf("unit clause: Empty()=%v Unit()=%v Width()=%d", unit.Empty(), unit.Unit(), unit.Width())
	}
	if unit.FirstLiteral() != Positive(4) {
		t.Errorf("FirstLiteral() = %v, want 4", unit.FirstLiteral())
	}
}

func TestClause_Equal_IgnoresParents(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, 3))
	c := NewAxiom(lits(-1, 4))

	r1, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// r1 is (2 3); an axiom with the same literals is a distinct node but
	// Equal only inspects the formula, not identity or provenance.
	same := NewAxiom(lits(2, 3))
	if !r1.Equal(same) {
		t.Errorf("Equal() = false for clauses with identical literals")
	}

	r2, err := Resolve(a, c)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if r1.Equal(r2) {
		t.Errorf("Equal() = true for clauses with different literals")
	}
}

func TestMarkLearned(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, 3))
	r, err := Resolve(a, b)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	l := MarkLearned(r)
	if !l.IsLearned() {
		t.Errorf("IsLearned() = false after MarkLearned")
	}
	if !l.Equal(r) {
		t.Errorf("MarkLearned changed the clause's formula")
	}
}

func TestMarkLearned_PanicsOnAxiom(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("MarkLearned(axiom) did not panic")
		}
	}()
	MarkLearned(NewAxiom(lits(1)))
}

func TestResolveChain(t *testing.T) {
	a := NewAxiom(lits(1, 2))
	b := NewAxiom(lits(-1, 2))
	c := NewAxiom(lits(-2))

	r, err := ResolveChain([]*Clause{a, b, c})
	if err != nil {
		t.Fatalf("ResolveChain: %v", err)
	}
	if !r.Empty() {
		t.Errorf("ResolveChain(a,b,c) = %v, want empty clause", r)
	}
}

func removedVars(c *Clause) []int {
	// reads the private removedSet directly (same package).
	return c.removedSet.vars()
}
