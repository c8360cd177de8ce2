// Package proof implements the immutable nodes of a resolution refutation
// DAG: literals and clauses, plus the resolution operation that derives one
// clause from two others.
package proof

import (
	"fmt"
	"strconv"
	"strings"
)

// Literal is a (variable, negated) pair. Literals are value objects,
// compared structurally.
type Literal struct {
	variable int
	negated  bool
}

// Positive returns the positive literal of variable v.
func Positive(v int) Literal {
	return Literal{variable: v}
}

// Negative returns the negative literal of variable v.
func Negative(v int) Literal {
	return Literal{variable: v, negated: true}
}

// VarID returns the ID of the literal's variable.
func (l Literal) VarID() int {
	return l.variable
}

// Negated returns true if and only if the literal represents the negation
// of its variable.
func (l Literal) Negated() bool {
	return l.negated
}

// Opposite returns the literal with the same variable and opposite sign.
func (l Literal) Opposite() Literal {
	return Literal{variable: l.variable, negated: !l.negated}
}

// String renders the literal the way the trace protocol does: a decimal
// variable number, prefixed with "~" for negated literals.
func (l Literal) String() string {
	if l.negated {
		return "~" + strconv.Itoa(l.variable)
	}
	return strconv.Itoa(l.variable)
}

// ParseLiteral parses a literal in trace-protocol form ("3", "~3"). It
// rejects malformed input rather than guessing at intent.
func ParseLiteral(s string) (Literal, error) {
	if s == "" {
		return Literal{}, fmt.Errorf("proof: empty literal")
	}
	negated := false
	rest := s
	if strings.HasPrefix(s, "~") {
		negated = true
		rest = s[1:]
	}
	v, err := strconv.Atoi(rest)
	if err != nil {
		return Literal{}, fmt.Errorf("proof: malformed literal %q: %w", s, err)
	}
	if v < 0 {
		return Literal{}, fmt.Errorf("proof: negative variable id in literal %q", s)
	}
	return Literal{variable: v, negated: negated}, nil
}
