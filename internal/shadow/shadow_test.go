package shadow

import (
	"testing"

	"github.com/johanlindblad/resolution-graph-tool/proof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumVars_NeverShrinks(t *testing.T) {
	s := New(ModeNone)
	s.NumVars(5)
	require.Equal(t, 5, s.NumVarsDeclared())
	s.NumVars(2)
	assert.Equal(t, 5, s.NumVarsDeclared(), "NumVars(m < n) must not shrink the index")
}

func TestBacktrack_ResetsIndexAndLevel(t *testing.T) {
	s := New(ModeNone)
	s.NumVars(3)

	s.Decide(proof.Positive(0))
	s.Decide(proof.Positive(1))

	require.Equal(t, 2, s.DecisionLevel())
	require.Equal(t, 0, s.Index(0))
	require.Equal(t, 1, s.Index(1))

	s.Backtrack(1)

	assert.Equal(t, 1, s.DecisionLevel())
	assert.Equal(t, 0, s.Index(0), "level-1 assignment must survive backtracking to level 1")
	assert.Equal(t, -1, s.Index(1), "level-2 assignment must be undone")
}

func TestRestart_BacktracksToZero(t *testing.T) {
	s := New(ModeNone)
	s.NumVars(2)
	s.Decide(proof.Positive(0))
	s.Decide(proof.Positive(1))

	s.Restart()

	assert.Equal(t, 0, s.DecisionLevel())
	assert.Equal(t, -1, s.Index(0))
	assert.Equal(t, -1, s.Index(1))
}

func TestRemoveClause_ThenClauseByCrefFails(t *testing.T) {
	s := New(ModeNone)
	c := proof.NewAxiom([]proof.Literal{proof.Positive(0)})
	s.AddClause(c, 7)

	got, err := s.ClauseByCref(7)
	require.NoError(t, err)
	require.Same(t, c, got)

	require.NoError(t, s.RemoveClause(7))

	_, err = s.ClauseByCref(7)
	assert.ErrorIs(t, err, ErrUnknownCref)
}

func TestRelocate(t *testing.T) {
	s := New(ModeNone)
	a := proof.NewAxiom([]proof.Literal{proof.Positive(0)})
	b := proof.NewAxiom([]proof.Literal{proof.Positive(1)})
	s.AddClause(a, 1)
	s.AddClause(b, 2)

	require.NoError(t, s.Relocate([][2]int{{1, 100}}))

	got, err := s.ClauseByCref(100)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = s.ClauseByCref(1)
	assert.ErrorIs(t, err, ErrUnknownCref)

	gotB, err := s.ClauseByCref(2)
	require.NoError(t, err)
	assert.Same(t, b, gotB)
}

// A unit (~1) is registered; skipping literal 1 from clause (1 2 3)
// produces a memoized clause (2 3), and a later identical skip reuses
// that exact clause rather than building a fresh one.
func TestSkip_LearnMode_Memoizes(t *testing.T) {
	s := New(ModeLearn)
	s.NumVars(4)
	s.AddUnit(proof.NewAxiom([]proof.Literal{proof.Negative(1)}))
	s.AddClause(proof.NewAxiom([]proof.Literal{proof.Positive(1), proof.Positive(2), proof.Positive(3)}), 10)

	first, err := s.Skip(10, []proof.Literal{proof.Positive(1)})
	require.NoError(t, err)
	assert.Equal(t, "2 3", first.String())

	second, err := s.Skip(10, []proof.Literal{proof.Positive(1)})
	require.NoError(t, err)
	assert.Same(t, first, second, "repeated skip with the same prefix must reuse the memoized clause")
}

func TestSkip_ResolveUnitMode_DoesNotMemoize(t *testing.T) {
	s := New(ModeResolveUnit)
	s.NumVars(4)
	s.AddUnit(proof.NewAxiom([]proof.Literal{proof.Negative(1)}))
	s.AddClause(proof.NewAxiom([]proof.Literal{proof.Positive(1), proof.Positive(2), proof.Positive(3)}), 10)

	first, err := s.Skip(10, []proof.Literal{proof.Positive(1)})
	require.NoError(t, err)
	assert.Equal(t, "2 3", first.String())

	second, err := s.Skip(10, []proof.Literal{proof.Positive(1)})
	require.NoError(t, err)
	assert.Equal(t, "2 3", second.String())
	assert.NotSame(t, first, second, "resolve_unit mode must not memoize: each skip is a fresh resolvent")
}

func TestSkip_NoneMode_ReturnsClauseUnchanged(t *testing.T) {
	s := New(ModeNone)
	s.NumVars(4)
	c := proof.NewAxiom([]proof.Literal{proof.Positive(1), proof.Positive(2), proof.Positive(3)})
	s.AddClause(c, 10)

	got, err := s.Skip(10, []proof.Literal{proof.Positive(1)})
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestMinimize_Simple(t *testing.T) {
	s := New(ModeNone)
	s.NumVars(2)

	s.Decide(proof.Positive(0))
	s.AddClause(proof.NewAxiom([]proof.Literal{proof.Negative(0), proof.Positive(1)}), 99)
	require.NoError(t, s.Propagate(proof.Positive(1), 99))

	initial := proof.NewAxiom([]proof.Literal{proof.Negative(0), proof.Negative(1)})

	got, err := s.Minimize(initial, []proof.Literal{proof.Positive(1)})
	require.NoError(t, err)
	assert.Equal(t, "~0", got.String())
}

// A learned clause contains the negation of each trail-assigned literal
// it depends on. Removing r transitively pulls in and resolves away the
// temporarily introduced x, leaving only the decisions' negations.
func TestMinimizeFull(t *testing.T) {
	s := New(ModeNone)
	s.NumVars(4) // 0=p, 1=q, 2=x, 3=r

	s.Decide(proof.Positive(0)) // p
	s.Decide(proof.Positive(1)) // q

	s.AddClause(proof.NewAxiom([]proof.Literal{proof.Negative(0), proof.Positive(2)}), 100) // ~p v x
	require.NoError(t, s.Propagate(proof.Positive(2), 100))                                 // x, via (~p v x)

	s.AddClause(proof.NewAxiom([]proof.Literal{proof.Negative(2), proof.Positive(3)}), 200) // ~x v r
	require.NoError(t, s.Propagate(proof.Positive(3), 200))                                 // r, via (~x v r)

	initial := proof.NewAxiom([]proof.Literal{proof.Negative(0), proof.Negative(1), proof.Negative(3)})

	got, err := s.MinimizeFull(initial, []proof.Literal{proof.Positive(3)})
	require.NoError(t, err)
	assert.Equal(t, "~0 ~1", got.String())
}
