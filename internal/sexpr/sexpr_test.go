package sexpr

import (
	"errors"
	"testing"
)

func TestParseAndPrint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x", "x"},
		{"(+ v0 1)", "(+ v0 1)"},
		{"  ( -   (sqrt (+ v0 1))\n (sqrt v0) ) ", "(- (sqrt (+ v0 1)) (sqrt v0))"},
		{"()", "()"},
		{`(herbie-test (v0) "cmd" (+ v0 1))`, `(herbie-test (v0) "cmd" (+ v0 1))`},
		{`(a "with \"escaped\" quote" b)`, `(a "with \"escaped\" quote" b)`},
		{"(FPCore (x) :name \"cmd\" (/ 1 2))", "(FPCore (x) :name \"cmd\" (/ 1 2))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got := n.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"(",
		"(+ v0 1",
		")",
		"(+ v0 1))",
		"(a) (b)",
		`(a "unterminated)`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", in)
			}
			var synErr *SyntaxError
			if !errors.As(err, &synErr) {
				t.Errorf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	nodes, err := ParseAll("Output: (a (b)) c ()")
	if err != nil {
		t.Fatalf("ParseAll error: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}
	if nodes[0].Atom != "Output:" || nodes[2].Atom != "c" || !nodes[3].IsList {
		t.Errorf("unexpected nodes: %v", nodes)
	}
}

func TestLists(t *testing.T) {
	n, err := Parse("(dummy (cmd (/ 1 (+ (sqrt (+ v0 1)) (sqrt v0)))))")
	if err != nil {
		t.Fatal(err)
	}

	lists := n.Lists()
	want := []string{
		"(dummy (cmd (/ 1 (+ (sqrt (+ v0 1)) (sqrt v0)))))",
		"(cmd (/ 1 (+ (sqrt (+ v0 1)) (sqrt v0))))",
		"(/ 1 (+ (sqrt (+ v0 1)) (sqrt v0)))",
		"(+ (sqrt (+ v0 1)) (sqrt v0))",
	}
	for i, w := range want {
		if got := lists[i].String(); got != w {
			t.Errorf("lists[%d] = %q, want %q", i, got, w)
		}
	}

	if len(A("x").Lists()) != 0 {
		t.Error("an atom contains no lists")
	}
}

func TestHeadAndString(t *testing.T) {
	n := L(A("sqrt"), A("v0"))
	if head, ok := n.Head(); !ok || head != "sqrt" {
		t.Errorf("Head() = %q, %v", head, ok)
	}
	if _, ok := L().Head(); ok {
		t.Error("empty list has no head")
	}
	if !A(`"cmd"`).IsString() || A("cmd").IsString() {
		t.Error("IsString mismatch")
	}
	if L().String() != "()" {
		t.Errorf("empty list printed as %q", L().String())
	}
}
