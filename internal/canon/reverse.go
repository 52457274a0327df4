package canon

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fpstab/internal/expr"
	"fpstab/internal/sexpr"
)

// ParseError reports canonical text that cannot be turned back into a host
// expression.
type ParseError struct {
	Text string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("canonical form %q: %s: %v", e.Text, e.Msg, e.Err)
	}
	return fmt.Sprintf("canonical form %q: %s", e.Text, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// reverseOps maps a solver operator spelling to the host operator for each
// arity it accepts.
var reverseOps = func() map[string]map[int]expr.Op {
	m := make(map[string]map[int]expr.Op)
	add := func(name string, op expr.Op) {
		if m[name] == nil {
			m[name] = make(map[int]expr.Op)
		}
		m[name][op.Arity()] = op
	}
	for _, op := range expr.Ops() {
		add(SolverName(op), op)
	}
	add("neg", expr.OpNeg)
	return m
}()

// FromCanonical parses canonical text and substitutes the host variables
// from vm. Solver-only spellings are mapped onto the host vocabulary:
// pow becomes **, fabs becomes abs, sqr and cube become powers, and n-ary
// sums and products fold to the left.
//
// Every placeholder must be bound in vm and every operator must be known;
// otherwise a *ParseError is returned.
func FromCanonical(text string, vm VarMap) (expr.Expr, error) {
	n, err := sexpr.Parse(text)
	if err != nil {
		return nil, &ParseError{Text: text, Msg: "malformed expression", Err: err}
	}
	e, err := fromNode(n, vm)
	if err != nil {
		return nil, &ParseError{Text: text, Msg: err.Error()}
	}
	return e, nil
}

func fromNode(n sexpr.Node, vm VarMap) (expr.Expr, error) {
	if !n.IsList {
		return fromAtom(n, vm)
	}
	head, ok := n.Head()
	if !ok {
		return nil, fmt.Errorf("list without operator: %s", n)
	}

	args := make([]expr.Expr, 0, len(n.List)-1)
	for _, item := range n.List[1:] {
		arg, err := fromNode(item, vm)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	switch head {
	case "sqr":
		if len(args) == 1 {
			return expr.Pow(args[0], expr.N(2)), nil
		}
	case "cube":
		if len(args) == 1 {
			return expr.Pow(args[0], expr.N(3)), nil
		}
	case "+", "*":
		if len(args) > 2 {
			op := expr.OpAdd
			if head == "*" {
				op = expr.OpMul
			}
			acc := expr.Call(op, args[0], args[1])
			for _, arg := range args[2:] {
				acc = expr.Call(op, acc, arg)
			}
			return acc, nil
		}
	}

	byArity, ok := reverseOps[head]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", head)
	}
	op, ok := byArity[len(args)]
	if !ok {
		return nil, fmt.Errorf("operator %q does not take %d arguments", head, len(args))
	}
	return expr.Call(op, args...), nil
}

func fromAtom(n sexpr.Node, vm VarMap) (expr.Expr, error) {
	tok := n.Atom
	if n.IsString() {
		return nil, fmt.Errorf("unexpected string %s", tok)
	}
	if orig, ok := vm.Original(tok); ok {
		return expr.V(orig), nil
	}
	switch tok {
	case "PI":
		return expr.Pi(), nil
	case "E":
		return expr.E(), nil
	case "INFINITY":
		return expr.N(math.Inf(1)), nil
	case "-INFINITY":
		return expr.N(math.Inf(-1)), nil
	case "NAN":
		return expr.N(math.NaN()), nil
	}
	if v, ok := parseNumber(tok); ok {
		return expr.N(v), nil
	}
	if isPlaceholder(tok) {
		return nil, fmt.Errorf("placeholder %q is not bound", tok)
	}
	return nil, fmt.Errorf("unrecognized token %q", tok)
}

// parseNumber accepts decimal and scientific literals and rationals p/q.
// Spellings such as "inf" or "nan" that strconv would accept are rejected;
// the solver writes those as INFINITY and NAN.
func parseNumber(tok string) (float64, bool) {
	if tok == "" || !strings.ContainsAny(tok[:1], "0123456789+-.") {
		return 0, false
	}
	if num, den, ok := strings.Cut(tok, "/"); ok {
		p, err1 := strconv.ParseFloat(num, 64)
		q, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || q == 0 {
			return 0, false
		}
		return p / q, true
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		// "+inf" and friends
		return 0, false
	}
	return v, true
}

func isPlaceholder(tok string) bool {
	if len(tok) < 2 || tok[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(tok[1:])
	return err == nil
}
