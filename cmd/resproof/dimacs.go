package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rhartert/dimacs"

	"github.com/johanlindblad/resolution-graph-tool/proof"
)

// loadDIMACS reads a (optionally gzip-compressed) DIMACS CNF file and
// returns its variable count and clauses as proof.Literal slices, ready
// to feed into internal/solving.
func loadDIMACS(filename string) (numVars int, clauses [][]proof.Literal, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, nil, fmt.Errorf("opening instance file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, nil, fmt.Errorf("opening gzipped instance file: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	b := &cnfBuilder{}
	if err := dimacs.ReadBuilder(r, b); err != nil {
		return 0, nil, fmt.Errorf("parsing DIMACS instance: %w", err)
	}
	return b.numVars, b.clauses, nil
}

// cnfBuilder implements dimacs.Builder. DIMACS numbers variables 1..n,
// which already matches the wire protocol's variable numbering, so
// literals carry straight across with no offset.
type cnfBuilder struct {
	numVars int
	clauses [][]proof.Literal
}

func (b *cnfBuilder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("instance of type %q is not supported", problem)
	}
	b.numVars = nVars
	b.clauses = make([][]proof.Literal, 0, nClauses)
	return nil
}

func (b *cnfBuilder) Clause(tmp []int) error {
	lits := make([]proof.Literal, len(tmp))
	for i, v := range tmp {
		if v < 0 {
			lits[i] = proof.Negative(-v)
		} else {
			lits[i] = proof.Positive(v)
		}
	}
	b.clauses = append(b.clauses, lits)
	return nil
}

func (b *cnfBuilder) Comment(_ string) error { return nil }
