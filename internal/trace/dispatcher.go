// Package trace implements a line-oriented command dispatcher: it reads
// one whitespace-delimited command per line, drives a SolverShadow
// accordingly, and on the terminal "C" command builds the resolution
// graph and produces either a statistics record or a DOT rendering.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/johanlindblad/resolution-graph-tool/internal/graph"
	"github.com/johanlindblad/resolution-graph-tool/internal/shadow"
	"github.com/johanlindblad/resolution-graph-tool/proof"
)

// Config selects the dispatcher's ignore mode and the "C" command's
// output shape.
type Config struct {
	Mode          shadow.Mode
	PrintGraph    bool // emit DOT instead of statistics
	IncludeUnused bool // keep unused learned nodes in the DOT output

	// DumpTrailTo, if non-nil, receives a rendering of the shadow's
	// assignment trail right before the terminal "C" command builds the
	// refutation graph — a debug affordance, off by default.
	DumpTrailTo io.Writer
}

// Result is what a trace run produces once its "C" command is processed.
// Exactly one of Statistics or DOT is populated, per cfg.PrintGraph.
type Result struct {
	Statistics *graph.Statistics
	DOT        string
}

// Run reads commands from r until a "C" command is processed — which
// builds the resolution graph and emits statistics or DOT, then
// terminates — or the input is exhausted. It returns an error wrapping
// the offending line for any malformed-trace condition; these are always
// fatal, never recovered.
func Run(r io.Reader, cfg Config) (*Result, error) {
	d := &dispatcher{
		shadow: shadow.New(cfg.Mode),
		cfg:    cfg,
		src:    newLineSource(r),
	}

	for {
		fields, lineNo, ok := d.src.next()
		if !ok {
			break
		}
		if len(fields) == 0 {
			continue
		}
		if err := d.dispatch(fields); err != nil {
			return nil, errors.Wrapf(err, "trace line %d", lineNo)
		}
		if d.done {
			return d.result, nil
		}
	}
	return d.result, nil
}

type dispatcher struct {
	shadow *shadow.Shadow
	cfg    Config
	src    *lineSource

	done   bool
	result *Result
}

func (d *dispatcher) dispatch(fields []string) error {
	switch fields[0] {
	case "NV":
		n, err := atoi(fields, 1)
		if err != nil {
			return err
		}
		d.shadow.NumVars(n)

	case "I":
		cref, err := atoi(fields, 1)
		if err != nil {
			return err
		}
		k, err := atoi(fields, 2)
		if err != nil {
			return err
		}
		lits, err := parseLiterals(fields[3:], k)
		if err != nil {
			return err
		}
		d.shadow.AddClause(proof.NewAxiom(lits), cref)

	case "D":
		l, err := literalAt(fields, 1)
		if err != nil {
			return err
		}
		d.shadow.Decide(l)

	case "P":
		l, err := literalAt(fields, 1)
		if err != nil {
			return err
		}
		cref, err := atoi(fields, 2)
		if err != nil {
			return err
		}
		return d.shadow.Propagate(l, cref)

	case "PU":
		l, err := literalAt(fields, 1)
		if err != nil {
			return err
		}
		return d.shadow.PropagateUnit(l)

	case "U":
		return d.handleUBlock(fields)

	case "B":
		level, err := atoi(fields, 1)
		if err != nil {
			return err
		}
		d.shadow.Backtrack(level)

	case "RS":
		d.shadow.Restart()

	case "R":
		cref, err := atoi(fields, 1)
		if err != nil {
			return err
		}
		return d.shadow.RemoveClause(cref)

	case "M":
		return d.handleRelocateBlock(fields)

	case "RD":
		// A bare RD outside an M block is a no-op, matching main.cpp.

	case "C":
		cref, err := atoi(fields, 1)
		if err != nil {
			return err
		}
		return d.handleConflict(cref)
	}
	return nil
}

// handleUBlock implements the conflict-analysis resolution chain: a "U"
// line (possibly followed by "S" skip lines) resolves another clause into
// the running chain; this can repeat via further "U" lines, be
// interleaved with "MNM"/"MNM2"/"B", and is finalized by "LU" or "L".
func (d *dispatcher) handleUBlock(fields []string) error {
	var remaining *proof.Clause

	for {
		switch fields[0] {
		case "U":
			cref, err := atoi(fields, 1)
			if err != nil {
				return err
			}

			var toSkip []proof.Literal
			for {
				next, _, ok := d.src.next()
				if !ok {
					return errors.New("unexpected end of input inside a U block")
				}
				if len(next) > 0 && next[0] == "S" {
					k, err := atoi(next, 1)
					if err != nil {
						return err
					}
					lits, err := parseLiterals(next[2:], k)
					if err != nil {
						return err
					}
					toSkip = append(toSkip, lits...)
					continue
				}
				fields = next
				break
			}

			c, err := d.shadow.ClauseByCref(cref)
			if err != nil {
				return err
			}
			if len(toSkip) > 0 {
				c, err = d.shadow.Skip(cref, toSkip)
				if err != nil {
					return err
				}
			}
			if remaining == nil {
				remaining = c
			} else {
				remaining, err = proof.Resolve(remaining, c)
				if err != nil {
					return err
				}
			}
			continue

		case "LU":
			l, err := literalAt(fields, 1)
			if err != nil {
				return err
			}
			if d.shadow.Mode() == shadow.ModeNone {
				if !remaining.Unit() || remaining.FirstLiteral() != l {
					return shadow.ErrLearnedMismatch
				}
			}
			d.shadow.AddUnitFor(proof.MarkLearned(remaining), l)
			return nil

		case "L":
			cref, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			k, err := atoi(fields, 2)
			if err != nil {
				return err
			}
			lits, err := parseLiterals(fields[3:], k)
			if err != nil {
				return err
			}
			if d.shadow.Mode() == shadow.ModeNone {
				if !remaining.Equal(proof.NewAxiom(lits)) {
					return shadow.ErrLearnedMismatch
				}
			}
			d.shadow.AddClause(proof.MarkLearned(remaining), cref)
			return nil

		case "MNM":
			k, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			removed, err := parseLiterals(fields[2:], k)
			if err != nil {
				return err
			}
			remaining, err = d.shadow.Minimize(remaining, removed)
			if err != nil {
				return err
			}

		case "MNM2":
			k, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			removed, err := parseLiterals(fields[2:], k)
			if err != nil {
				return err
			}
			remaining, err = d.shadow.MinimizeFull(remaining, removed)
			if err != nil {
				return err
			}

		case "B":
			level, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			d.shadow.Backtrack(level)

		default:
			// Not a recognized U-block continuation: hand the line back to
			// the top-level dispatcher.
			d.src.pushBack(fields)
			return nil
		}

		next, _, ok := d.src.next()
		if !ok {
			return errors.New("unexpected end of input inside a U block")
		}
		fields = next
	}
}

// handleRelocateBlock accumulates (from, to) pairs across successive "M"
// lines until "RD", then applies them atomically.
func (d *dispatcher) handleRelocateBlock(fields []string) error {
	var moves [][2]int

	for {
		if fields[0] == "M" {
			from, err := atoi(fields, 1)
			if err != nil {
				return err
			}
			to, err := atoi(fields, 2)
			if err != nil {
				return err
			}
			moves = append(moves, [2]int{from, to})
		} else if fields[0] == "RD" {
			break
		}

		next, _, ok := d.src.next()
		if !ok {
			break
		}
		fields = next
	}

	return d.shadow.Relocate(moves)
}

func (d *dispatcher) handleConflict(cref int) error {
	if d.cfg.DumpTrailTo != nil {
		d.shadow.DumpTrail(d.cfg.DumpTrailTo)
	}

	b, err := graph.New(d.shadow, cref, d.cfg.PrintGraph)
	if err != nil {
		return err
	}

	d.done = true
	if !d.cfg.PrintGraph {
		stats := b.Statistics()
		d.result = &Result{Statistics: &stats}
		return nil
	}

	if !d.cfg.IncludeUnused {
		b.RemoveUnused()
	}
	d.result = &Result{DOT: b.WriteDOT()}
	return nil
}

func atoi(fields []string, i int) (int, error) {
	if i >= len(fields) {
		return 0, fmt.Errorf("missing argument at position %d", i)
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, errors.Wrapf(err, "argument %q is not an integer", fields[i])
	}
	return n, nil
}

func literalAt(fields []string, i int) (proof.Literal, error) {
	if i >= len(fields) {
		return proof.Literal{}, fmt.Errorf("missing literal argument at position %d", i)
	}
	return proof.ParseLiteral(fields[i])
}

func parseLiterals(fields []string, k int) ([]proof.Literal, error) {
	if len(fields) < k {
		return nil, fmt.Errorf("expected %d literals, got %d", k, len(fields))
	}
	out := make([]proof.Literal, k)
	for i := 0; i < k; i++ {
		l, err := proof.ParseLiteral(fields[i])
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

// lineSource reads whitespace-delimited fields one line at a time, with a
// one-line pushback buffer (needed because the U-block's "S" lookahead
// consumes the line that ends up being the block's next instruction).
type lineSource struct {
	sc      *bufio.Scanner
	lineNo  int
	pending []string
	pendLn  int
	hasPend bool
}

func newLineSource(r io.Reader) *lineSource {
	return &lineSource{sc: bufio.NewScanner(r)}
}

func (ls *lineSource) next() ([]string, int, bool) {
	if ls.hasPend {
		ls.hasPend = false
		return ls.pending, ls.pendLn, true
	}
	if !ls.sc.Scan() {
		return nil, 0, false
	}
	ls.lineNo++
	return strings.Fields(ls.sc.Text()), ls.lineNo, true
}

func (ls *lineSource) pushBack(fields []string) {
	ls.pending = fields
	ls.pendLn = ls.lineNo
	ls.hasPend = true
}
