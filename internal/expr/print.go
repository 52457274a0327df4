package expr

import (
	"math"
	"strconv"
	"strings"
)

type precedence int

const (
	addPrecedence precedence = iota
	mulPrecedence
	negPrecedence
	powPrecedence
	atomicPrecedence
)

func (Var) precedence() precedence   { return atomicPrecedence }
func (Const) precedence() precedence { return atomicPrecedence }

func (n Num) precedence() precedence {
	if math.Signbit(n.Value) && !math.IsNaN(n.Value) {
		return negPrecedence
	}
	return atomicPrecedence
}

func (a Apply) precedence() precedence {
	switch a.Op {
	case OpAdd, OpSub:
		return addPrecedence
	case OpMul, OpDiv:
		return mulPrecedence
	case OpNeg:
		return negPrecedence
	case OpPow:
		return powPrecedence
	}
	return atomicPrecedence
}

func (v Var) String() string   { return v.Name }
func (c Const) String() string { return c.Name }

func (n Num) String() string {
	switch {
	case math.IsNaN(n.Value):
		return "nan"
	case math.IsInf(n.Value, 1):
		return "inf"
	case math.IsInf(n.Value, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (a Apply) String() string {
	if !a.Op.Infix() {
		parts := make([]string, len(a.Args))
		for i, arg := range a.Args {
			parts[i] = arg.String()
		}
		return a.Op.String() + "(" + strings.Join(parts, ", ") + ")"
	}

	p := a.precedence()
	if a.Op == OpNeg {
		return "-" + wrap(a.Args[0], a.Args[0].precedence() <= p)
	}

	left, right := a.Args[0], a.Args[1]
	var leftParens, rightParens bool
	if a.Op == OpPow {
		// right-associative
		leftParens = left.precedence() <= p
		rightParens = right.precedence() < p
	} else {
		leftParens = left.precedence() < p
		rightParens = right.precedence() <= p
	}
	return wrap(left, leftParens) + " " + a.Op.String() + " " + wrap(right, rightParens)
}

func wrap(e Expr, parens bool) string {
	if parens {
		return "(" + e.String() + ")"
	}
	return e.String()
}
