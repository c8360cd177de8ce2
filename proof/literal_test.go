package proof

import (
	"fmt"
	"testing"
)

func ExampleLiteral_String() {
	fmt.Println(Positive(3))
	fmt.Println(Negative(3))

	// Output:
	// 3
	// ~3
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Literal
		wantErr bool
	}{
		{name: "positive", in: "3", want: Positive(3)},
		{name: "negative", in: "~3", want: Negative(3)},
		{name: "zero", in: "0", want: Positive(0)},
		{name: "empty", in: "", wantErr: true},
		{name: "not a number", in: "~x", wantErr: true},
		{name: "negative variable id", in: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLiteral(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLiteral(%q) returned unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLiteral(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLiteral_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "~1", "42", "~42"} {
		l, err := ParseLiteral(s)
		if err != nil {
			t.Fatalf("ParseLiteral(%q) failed: %v", s, err)
		}
		if got := l.String(); got != s {
			t.Errorf("round-trip %q: got %q", s, got)
		}
	}
}

func TestLiteral_Opposite(t *testing.T) {
	l := Positive(5)
	opp := l.Opposite()

	if opp.VarID() != 5 || !opp.Negated() {
		t.Errorf("Opposite() = %v, want negative literal of variable 5", opp)
	}
	if opp.Opposite() != l {
		t.Errorf("Opposite().Opposite() = %v, want %v", opp.Opposite(), l)
	}
}

func TestLiteral_VarIDAndNegated(t *testing.T) {
	pos := Positive(7)
	neg := Negative(7)

	if pos.VarID() != 7 || pos.Negated() {
		t.Errorf("Positive(7) = %+v, want variable 7, not negated", pos)
	}
	if neg.VarID() != 7 || !neg.Negated() {
		t.Errorf("Negative(7) = %+v, want variable 7, negated", neg)
	}
}
