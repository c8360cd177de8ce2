package solving

import (
	"bufio"
	"fmt"
	"io"

	"github.com/johanlindblad/resolution-graph-tool/proof"
)

// emitter writes trace lines as the solver runs. It is the "gentrace"
// counterpart of internal/trace's dispatcher: where dispatcher reads this
// exact syntax, emitter produces it.
type emitter struct {
	w *bufio.Writer
}

func newEmitter(w io.Writer) *emitter {
	return &emitter{w: bufio.NewWriter(w)}
}

func (e *emitter) numVars(n int) { fmt.Fprintf(e.w, "NV %d\n", n) }

func (e *emitter) axiom(cref int, lits []proof.Literal) {
	fmt.Fprintf(e.w, "I %d %d%s\n", cref, len(lits), litSuffix(lits))
}

func (e *emitter) decide(l proof.Literal) { fmt.Fprintf(e.w, "D %s\n", l) }

func (e *emitter) propagate(l proof.Literal, cref int) {
	fmt.Fprintf(e.w, "P %s %d\n", l, cref)
}

func (e *emitter) propagateUnit(l proof.Literal) { fmt.Fprintf(e.w, "PU %s\n", l) }

func (e *emitter) use(cref int) { fmt.Fprintf(e.w, "U %d\n", cref) }

func (e *emitter) skip(lits []proof.Literal) {
	if len(lits) == 0 {
		return
	}
	fmt.Fprintf(e.w, "S %d%s\n", len(lits), litSuffix(lits))
}

func (e *emitter) learnUnit(l proof.Literal) { fmt.Fprintf(e.w, "LU %s\n", l) }

func (e *emitter) learn(cref int, lits []proof.Literal) {
	fmt.Fprintf(e.w, "L %d %d%s\n", cref, len(lits), litSuffix(lits))
}

func (e *emitter) backtrack(level int) { fmt.Fprintf(e.w, "B %d\n", level) }

func (e *emitter) restart() { fmt.Fprintln(e.w, "RS") }

func (e *emitter) removeClause(cref int) { fmt.Fprintf(e.w, "R %d\n", cref) }

func (e *emitter) relocate(moves [][2]int) {
	for _, mv := range moves {
		fmt.Fprintf(e.w, "M %d %d\n", mv[0], mv[1])
	}
	fmt.Fprintln(e.w, "RD")
}

func (e *emitter) conflict(cref int) { fmt.Fprintf(e.w, "C %d\n", cref) }

func (e *emitter) flush() error { return e.w.Flush() }

func litSuffix(lits []proof.Literal) string {
	s := ""
	for _, l := range lits {
		s += " " + l.String()
	}
	return s
}
