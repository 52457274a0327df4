// Package canon translates host expression trees to and from the canonical
// prefix text used as the cache key and as solver input.
//
// Canonical text renames every variable to a positional placeholder (v0, v1,
// ...) in first-occurrence order, so two expressions with the same shape and
// the same variable occurrence pattern produce byte-identical text.
package canon

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"fpstab/internal/expr"
)

// Form is the canonical rendering of an expression.
type Form struct {
	Text string
	Vars VarMap
}

// Digest is a short, stable fingerprint of Text for log lines.
func (f Form) Digest() string {
	return Digest(f.Text)
}

// Digest fingerprints canonical text with BLAKE2b, truncated to 8 bytes.
func Digest(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}

// solverNames spells each host operator the way the solver expects it.
var solverNames = map[expr.Op]string{
	expr.OpAdd: "+",
	expr.OpSub: "-",
	expr.OpMul: "*",
	expr.OpDiv: "/",
	expr.OpPow: "pow",
	expr.OpNeg: "-",
	expr.OpAbs: "fabs",
}

// SolverName returns the solver spelling of op.
func SolverName(op expr.Op) string {
	if name, ok := solverNames[op]; ok {
		return name
	}
	return op.String()
}

// ToCanonical renders e as canonical prefix text. It never fails.
func ToCanonical(e expr.Expr) Form {
	var vm VarMap
	var b strings.Builder
	writeCanonical(&b, e, &vm)
	return Form{Text: b.String(), Vars: vm}
}

func writeCanonical(b *strings.Builder, e expr.Expr, vm *VarMap) {
	switch n := e.(type) {
	case expr.Var:
		b.WriteString(vm.bind(n.Name))
	case expr.Num:
		b.WriteString(FormatNumber(n.Value))
	case expr.Const:
		if name, ok := constantNames[n.Name]; ok {
			b.WriteString(name)
		} else {
			// Bar-quoted so no two names share a key and none reads as a
			// placeholder.
			b.WriteString("|" + n.Name + "|")
		}
	case expr.Apply:
		b.WriteByte('(')
		b.WriteString(SolverName(n.Op))
		for _, arg := range n.Args {
			b.WriteByte(' ')
			writeCanonical(b, arg, vm)
		}
		b.WriteByte(')')
	}
}

var constantNames = map[string]string{
	expr.ConstPi: "PI",
	expr.ConstE:  "E",
}

// FormatNumber renders a literal in the shortest form that parses back to
// the same float64.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INFINITY"
	case math.IsInf(v, -1):
		return "-INFINITY"
	}
	return strings.Replace(strconv.FormatFloat(v, 'g', -1, 64), "e+", "e", 1)
}
