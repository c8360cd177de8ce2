// Package graph reconstructs the resolution refutation DAG for a reported
// conflict and walks it to produce structural statistics and, optionally,
// a materialized graph for DOT emission.
package graph

import (
	"fmt"
	"math/big"

	"github.com/johanlindblad/resolution-graph-tool/internal/shadow"
	"github.com/johanlindblad/resolution-graph-tool/proof"
)

// Node is one vertex of a materialized resolution graph: a clause plus
// whether it was reached from the empty clause (used) or only discovered
// while sweeping the unused learned clauses.
type Node struct {
	Clause   *proof.Clause
	Used     bool
	Children []int // indices of the two parents' nodes (resolvent order), or nil for an axiom
}

// Statistics is the accumulated per-proof tally emitted as a JSON
// statistics line.
type Statistics struct {
	UsedAxioms         int `json:"used_axioms"`
	UnusedAxioms       int `json:"unused_axioms"`
	UsedIntermediate   int `json:"used_intermediate"`
	UnusedIntermediate int `json:"unused_intermediate"`
	UsedLearned        int `json:"used_learned"`
	UnusedLearned      int `json:"unused_learned"`

	TreeEdgeViolations   int `json:"tree_edge_violations"`
	TreeVertexViolations int `json:"tree_vertex_violations"`

	TreeCopyCost                 *big.Int `json:"tree_copy_cost"`
	RegularityViolationsTotal    uint64   `json:"regularity_violations_total"`
	RegularityViolationVariables []int    `json:"regularity_violation_variables"`
	MaxWidth                     int      `json:"max_width"`
}

// Builder reconstructs the refutation for one conflict and optionally
// materializes it as a Node graph.
type Builder struct {
	buildGraph bool

	nodes        []Node
	learnedIndex map[*proof.Clause]int
	violating    map[*proof.Clause]bool

	stats       Statistics
	emptyClause *proof.Clause

	plainNodeCount int // used when !buildGraph, in lieu of len(nodes)
}

// New resolves the conflict at cref down to the empty clause and walks the
// resulting refutation DAG, producing statistics and — if buildGraph is
// true — a materialized Node graph suitable for DOT emission.
func New(s *shadow.Shadow, cref int, buildGraph bool) (*Builder, error) {
	b := &Builder{
		buildGraph:   buildGraph,
		learnedIndex: map[*proof.Clause]int{},
		violating:    map[*proof.Clause]bool{},
	}

	empty, err := resolveConflict(s, cref)
	if err != nil {
		return nil, err
	}
	if !empty.Empty() {
		return nil, ErrNotEmpty
	}
	b.emptyClause = empty

	b.buildUsedGraph(empty)
	b.addUnused(s)

	b.stats.RegularityViolationsTotal = empty.RegularityViolations()
	b.stats.RegularityViolationVariables = empty.RegularityViolationVariables()
	b.stats.TreeCopyCost = empty.CopyCost()

	return b, nil
}

// resolveConflict walks the conflict clause back to the empty clause:
// repeatedly resolve the current clause with the reason of its most
// recently assigned variable, until nothing remains.
func resolveConflict(s *shadow.Shadow, cref int) (*proof.Clause, error) {
	remaining, err := s.ClauseByCref(cref)
	if err != nil {
		return nil, err
	}

	for !remaining.Empty() {
		lits := remaining.Literals()
		last := lits[0]
		for _, l := range lits[1:] {
			if s.Index(l.VarID()) > s.Index(last.VarID()) {
				last = l
			}
		}

		pos := s.Index(last.VarID())
		if pos < 0 {
			return nil, fmt.Errorf("graph: variable %d in conflict chain is not on the trail", last.VarID())
		}
		reason := s.TrailReasonAt(pos)
		if reason == nil {
			return nil, fmt.Errorf("graph: variable %d's trail entry is a decision, has no reason", last.VarID())
		}

		remaining, err = proof.Resolve(remaining, reason)
		if err != nil {
			return nil, err
		}
	}
	return remaining, nil
}

// buildUsedGraph implements Phase 2: BFS from the empty clause over the
// parents relation, assigning fresh node indices except where a learned
// clause has already been visited (tree-likeness violation).
func (b *Builder) buildUsedGraph(empty *proof.Clause) {
	type item struct {
		clause *proof.Clause
		index  int
	}
	queue := []item{{empty, b.nextIndex()}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if b.buildGraph {
			b.nodes[cur.index].Clause = cur.clause
			b.nodes[cur.index].Used = true
		}
		b.tallyUsed(cur.clause)

		if !cur.clause.IsResolvent() {
			continue
		}
		left, right := cur.clause.Parents()

		for _, parent := range []*proof.Clause{left, right} {
			var subIndex int
			if !parent.IsLearned() {
				subIndex = b.nextIndex()
				queue = append(queue, item{parent, subIndex})
			} else if idx, seen := b.learnedIndex[parent]; seen {
				subIndex = idx
				b.stats.TreeEdgeViolations++
				b.violating[parent] = true
			} else {
				subIndex = b.nextIndex()
				b.learnedIndex[parent] = subIndex
				queue = append(queue, item{parent, subIndex})
			}
			if b.buildGraph {
				b.nodes[cur.index].Children = append(b.nodes[cur.index].Children, subIndex)
			}
		}
	}

	b.stats.TreeVertexViolations = len(b.violating)
}

// addUnused implements Phase 3: seed a fresh BFS from every learned clause
// still live past the shadow's first learned index that was never reached
// by Phase 2, walking its unreached parents too.
func (b *Builder) addUnused(s *shadow.Shadow) {
	first := s.FirstLearnedIndex()
	if first == -1 {
		return
	}

	type item struct {
		clause *proof.Clause
		index  int
	}
	var queue []item

	clauses := s.Clauses()
	for i := first; i < len(clauses); i++ {
		c := clauses[i]
		if c == nil || !c.IsLearned() {
			continue
		}
		if _, seen := b.learnedIndex[c]; seen {
			continue
		}
		idx := b.nextIndex()
		b.learnedIndex[c] = idx
		queue = append(queue, item{c, idx})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if b.buildGraph {
			b.nodes[cur.index].Clause = cur.clause
			b.nodes[cur.index].Used = false
		}
		b.tallyUnused(cur.clause)

		if !cur.clause.IsResolvent() {
			continue
		}
		left, right := cur.clause.Parents()

		for _, parent := range []*proof.Clause{left, right} {
			var subIndex int
			if idx, seen := b.learnedIndex[parent]; parent.IsLearned() && seen {
				subIndex = idx
			} else {
				subIndex = b.nextIndex()
				if parent.IsLearned() {
					b.learnedIndex[parent] = subIndex
				}
				queue = append(queue, item{parent, subIndex})
			}
			if b.buildGraph {
				b.nodes[cur.index].Children = append(b.nodes[cur.index].Children, subIndex)
			}
		}
	}
}

func (b *Builder) tallyUsed(c *proof.Clause) {
	switch {
	case c.IsAxiom():
		b.stats.UsedAxioms++
	case c.IsLearned():
		b.stats.UsedLearned++
	default:
		b.stats.UsedIntermediate++
	}
	if w := c.Width(); w > b.stats.MaxWidth {
		b.stats.MaxWidth = w
	}
}

func (b *Builder) tallyUnused(c *proof.Clause) {
	switch {
	case c.IsAxiom():
		b.stats.UnusedAxioms++
	case c.IsLearned():
		b.stats.UnusedLearned++
	default:
		b.stats.UnusedIntermediate++
	}
	if w := c.Width(); w > b.stats.MaxWidth {
		b.stats.MaxWidth = w
	}
}

func (b *Builder) nextIndex() int {
	if b.buildGraph {
		idx := len(b.nodes)
		b.nodes = append(b.nodes, Node{})
		return idx
	}
	idx := b.plainNodeCount
	b.plainNodeCount++
	return idx
}

// Statistics returns the accumulated statistics record.
func (b *Builder) Statistics() Statistics { return b.stats }

// EmptyClause returns the refutation's root (the empty clause reached by
// Phase 1).
func (b *Builder) EmptyClause() *proof.Clause { return b.emptyClause }

// Nodes returns the materialized graph's nodes. Empty if the builder was
// constructed with buildGraph = false.
func (b *Builder) Nodes() []Node { return b.nodes }

// RemoveUnused discards nodes tagged Used = false from the materialized
// graph. The CLI calls this before DOT emission exactly when
// --include-unused is absent.
func (b *Builder) RemoveUnused() {
	kept := make([]Node, 0, len(b.nodes))
	remap := make(map[int]int, len(b.nodes))
	for i, n := range b.nodes {
		if !n.Used {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, n)
	}
	for i := range kept {
		children := kept[i].Children[:0]
		for _, c := range kept[i].Children {
			if j, ok := remap[c]; ok {
				children = append(children, j)
			}
		}
		kept[i].Children = children
	}
	b.nodes = kept
}
