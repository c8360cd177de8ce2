package graph

import (
	"strconv"

	"github.com/emicklei/dot"
)

// WriteDOT renders the materialized graph (see RemoveUnused to prune
// unused nodes first) as a DOT digraph: axioms filled, learned clauses
// filled turquoise, unused nodes shrunk, and edges labeled by the
// eliminating clause's pivot variable.
func (b *Builder) WriteDOT() string {
	g := dot.NewGraph(dot.Directed)

	dotNodes := make([]dot.Node, len(b.nodes))
	for i, n := range b.nodes {
		node := g.Node(strconv.Itoa(i)).Label(n.Clause.String())

		switch {
		case n.Clause.IsAxiom():
			node = node.Attr("style", "filled")
		case n.Clause.IsLearned():
			node = node.Attr("style", "filled").Attr("fillcolor", "turquoise1")
		}
		if !n.Used {
			node = node.Attr("fontsize", "6").Attr("width", "0.25").Attr("height", "0.25")
		}
		dotNodes[i] = node
	}

	// Edges run from each resolvent to its two parents, labeled by the
	// pivot the resolvent itself eliminated.
	for i, n := range b.nodes {
		if len(n.Children) == 0 {
			continue
		}
		label := strconv.Itoa(n.Clause.Pivot())
		for _, childIdx := range n.Children {
			g.Edge(dotNodes[i], dotNodes[childIdx]).Label(label)
		}
	}

	return g.String()
}
