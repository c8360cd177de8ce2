package graph

import (
	"testing"

	"github.com/johanlindblad/resolution-graph-tool/internal/shadow"
	"github.com/johanlindblad/resolution-graph-tool/proof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func axiom(vs ...int) *proof.Clause {
	lits := make([]proof.Literal, len(vs))
	for i, v := range vs {
		if v < 0 {
			lits[i] = proof.Negative(-v)
		} else {
			lits[i] = proof.Positive(v)
		}
	}
	return proof.NewAxiom(lits)
}

// A refutation that reuses one learned clause (learned1) as the parent of
// two distinct resolution steps (X and Y), each resolving away a different
// one of learned1's two variables and then funneling through a helper
// variable (99) so the two branches recombine into a single empty clause.
// This exercises a learned clause with in-degree 2 in the refutation DAG.
func buildReusedLearnedRefutation(t *testing.T) *proof.Clause {
	t.Helper()

	a := axiom(1, 2)
	bAxiom := axiom(-1, 3)
	learned1 := proof.MarkLearned(mustResolve(t, a, bAxiom)) // (2 3), pivot 1

	c := axiom(-2)
	x := mustResolve(t, learned1, c) // (3), pivot 2 — first use of learned1
	dx := axiom(-3, 99)
	x2 := mustResolve(t, x, dx) // (99), pivot 3

	g := axiom(-3)
	y := mustResolve(t, learned1, g) // (2), pivot 3 — second use of learned1
	dy := axiom(-2, -99)
	y2 := mustResolve(t, y, dy) // (-99), pivot 2

	root := mustResolve(t, x2, y2) // (), pivot 99
	require.True(t, root.Empty())
	return root
}

func mustResolve(t *testing.T, a, b *proof.Clause) *proof.Clause {
	t.Helper()
	r, err := proof.Resolve(a, b)
	require.NoError(t, err)
	return r
}

func TestBuilder_GraphStatistics(t *testing.T) {
	root := buildReusedLearnedRefutation(t)

	s := shadow.New(shadow.ModeNone)
	s.AddClause(root, 99)

	b, err := New(s, 99, true)
	require.NoError(t, err)

	stats := b.Statistics()
	assert.Equal(t, 1, stats.TreeEdgeViolations, "learned1's second use must count one re-entry edge")
	assert.Equal(t, 1, stats.TreeVertexViolations, "exactly one learned clause (learned1) is reused")
	assert.Equal(t, 1, stats.UsedLearned, "learned1 is visited once despite being reused twice")
	assert.Equal(t, 5, stats.UsedIntermediate, "root, x2, y2, x, y")
	assert.Equal(t, 6, stats.UsedAxioms, "a, bAxiom, c, dx, g, dy")
}

func TestBuilder_RemoveUnused(t *testing.T) {
	a := axiom(1)
	bAxiom := axiom(-1)
	empty := mustResolve(t, a, bAxiom)

	s := shadow.New(shadow.ModeNone)
	s.AddClause(empty, 99)

	b, err := New(s, 99, true)
	require.NoError(t, err)
	require.Len(t, b.Nodes(), 3)

	b.RemoveUnused()
	assert.Len(t, b.Nodes(), 3, "all three nodes were reached; none are unused")
}

func TestVerifyRegularity_Agrees(t *testing.T) {
	a := axiom(1, 2)
	bAxiom := axiom(-1, 3)
	c := axiom(-2, -3)
	d := axiom(1, -3)

	r1 := mustResolve(t, a, bAxiom) // (2 3), pivot 1
	r2 := mustResolve(t, r1, d)     // (1 2), pivot 3
	r3 := mustResolve(t, r2, bAxiom) // (2 3), pivot 1 again: violation
	_ = c

	total, err := VerifyRegularity(r3)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, r3.RegularityViolations(), total)
}

func TestVerifyRegularity_NoViolation(t *testing.T) {
	a := axiom(1, 2)
	bAxiom := axiom(-1, 3)
	r1 := mustResolve(t, a, bAxiom)

	total, err := VerifyRegularity(r1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestWriteDOT_StylesAxiomAndLearned(t *testing.T) {
	root := buildReusedLearnedRefutation(t)

	s := shadow.New(shadow.ModeNone)
	s.AddClause(root, 99)

	b, err := New(s, 99, true)
	require.NoError(t, err)

	out := b.WriteDOT()
	assert.Contains(t, out, "turquoise1")
	assert.Contains(t, out, "digraph")
}
