// Package expr models the numeric expressions handed to the stabilizer by a
// host program.
//
// An expression is an immutable tree. Leaves are free variables, numeric
// literals and the named constants pi and e. Interior nodes apply one operator
// from a closed set to a fixed number of arguments.
package expr

import (
	"fmt"
	"math"
)

// Op identifies an operator of the host vocabulary.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpNeg
	OpSqrt
	OpCbrt
	OpExp
	OpExpm1
	OpLog
	OpLog1p
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpAsinh
	OpAcosh
	OpAtanh
	OpAbs
	OpAtan2
	OpHypot
	OpFma

	numOps
)

type opInfo struct {
	name  string
	arity int
	infix bool
}

var opTable = [numOps]opInfo{
	OpAdd:   {"+", 2, true},
	OpSub:   {"-", 2, true},
	OpMul:   {"*", 2, true},
	OpDiv:   {"/", 2, true},
	OpPow:   {"**", 2, true},
	OpNeg:   {"-", 1, true},
	OpSqrt:  {"sqrt", 1, false},
	OpCbrt:  {"cbrt", 1, false},
	OpExp:   {"exp", 1, false},
	OpExpm1: {"expm1", 1, false},
	OpLog:   {"log", 1, false},
	OpLog1p: {"log1p", 1, false},
	OpSin:   {"sin", 1, false},
	OpCos:   {"cos", 1, false},
	OpTan:   {"tan", 1, false},
	OpAsin:  {"asin", 1, false},
	OpAcos:  {"acos", 1, false},
	OpAtan:  {"atan", 1, false},
	OpSinh:  {"sinh", 1, false},
	OpCosh:  {"cosh", 1, false},
	OpTanh:  {"tanh", 1, false},
	OpAsinh: {"asinh", 1, false},
	OpAcosh: {"acosh", 1, false},
	OpAtanh: {"atanh", 1, false},
	OpAbs:   {"abs", 1, false},
	OpAtan2: {"atan2", 2, false},
	OpHypot: {"hypot", 2, false},
	OpFma:   {"fma", 3, false},
}

var funcsByName = func() map[string]Op {
	m := make(map[string]Op)
	for op := Op(0); op < numOps; op++ {
		if !opTable[op].infix {
			m[opTable[op].name] = op
		}
	}
	return m
}()

// String returns the host spelling of the operator.
func (o Op) String() string {
	if o < 0 || o >= numOps {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opTable[o].name
}

// Arity is the exact number of arguments the operator takes.
func (o Op) Arity() int {
	if o < 0 || o >= numOps {
		return 0
	}
	return opTable[o].arity
}

// Infix reports whether the host writes the operator between or before its
// operands rather than as a function call.
func (o Op) Infix() bool {
	return o >= 0 && o < numOps && opTable[o].infix
}

// Ops returns every operator in declaration order.
func Ops() []Op {
	out := make([]Op, 0, numOps)
	for op := Op(0); op < numOps; op++ {
		out = append(out, op)
	}
	return out
}

// LookupFunc resolves a named function such as "sqrt" or "atan2".
func LookupFunc(name string) (Op, bool) {
	op, ok := funcsByName[name]
	return op, ok
}

// Expr is a node of an expression tree.
type Expr interface {
	// String renders the expression in host infix syntax.
	String() string
	precedence() precedence
	isExpr()
}

// Var is a free variable.
type Var struct {
	Name string
}

// Num is a numeric literal.
type Num struct {
	Value float64
}

// Const is a named mathematical constant, "pi" or "e".
type Const struct {
	Name string
}

// Apply applies Op to Args. len(Args) always equals Op.Arity().
type Apply struct {
	Op   Op
	Args []Expr
}

func (Var) isExpr()   {}
func (Num) isExpr()   {}
func (Const) isExpr() {}
func (Apply) isExpr() {}

const (
	ConstPi = "pi"
	ConstE  = "e"
)

// V returns the variable name.
func V(name string) Expr { return Var{Name: name} }

// N returns the literal v.
func N(v float64) Expr { return Num{Value: v} }

// Pi returns the constant pi.
func Pi() Expr { return Const{Name: ConstPi} }

// E returns Euler's number.
func E() Expr { return Const{Name: ConstE} }

// Call applies op to args and panics when the argument count is wrong.
func Call(op Op, args ...Expr) Expr {
	if len(args) != op.Arity() {
		panic(fmt.Sprintf("expr: %s takes %d arguments, got %d", op, op.Arity(), len(args)))
	}
	cp := make([]Expr, len(args))
	copy(cp, args)
	return Apply{Op: op, Args: cp}
}

func Add(a, b Expr) Expr  { return Call(OpAdd, a, b) }
func Sub(a, b Expr) Expr  { return Call(OpSub, a, b) }
func Mul(a, b Expr) Expr  { return Call(OpMul, a, b) }
func Div(a, b Expr) Expr  { return Call(OpDiv, a, b) }
func Pow(a, b Expr) Expr  { return Call(OpPow, a, b) }
func Neg(a Expr) Expr     { return Call(OpNeg, a) }
func Sqrt(a Expr) Expr    { return Call(OpSqrt, a) }
func Fn(name string, args ...Expr) Expr {
	op, ok := LookupFunc(name)
	if !ok {
		panic("expr: unknown function " + name)
	}
	return Call(op, args...)
}

// Equal reports whether a and b are structurally identical. NaN literals are
// equal to each other.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case Var:
		y, ok := b.(Var)
		return ok && x.Name == y.Name
	case Num:
		y, ok := b.(Num)
		if !ok {
			return false
		}
		if math.IsNaN(x.Value) || math.IsNaN(y.Value) {
			return math.IsNaN(x.Value) && math.IsNaN(y.Value)
		}
		return x.Value == y.Value
	case Const:
		y, ok := b.(Const)
		return ok && x.Name == y.Name
	case Apply:
		y, ok := b.(Apply)
		if !ok || x.Op != y.Op || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Walk visits e and its descendants in pre-order, left to right. Children of
// a node are skipped when fn returns false for it.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	if app, ok := e.(Apply); ok {
		for _, arg := range app.Args {
			Walk(arg, fn)
		}
	}
}

// Vars lists the distinct free variables of e in first-occurrence order.
func Vars(e Expr) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		if v, ok := n.(Var); ok && !seen[v.Name] {
			seen[v.Name] = true
			out = append(out, v.Name)
		}
		return true
	})
	return out
}

// Size counts the nodes of e.
func Size(e Expr) int {
	n := 0
	Walk(e, func(Expr) bool {
		n++
		return true
	})
	return n
}
