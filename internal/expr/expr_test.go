package expr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Expr
	}{
		{"x", V("x")},
		{"2.5", N(2.5)},
		{"1e-3", N(0.001)},
		{"pi", Pi()},
		{"x + 1", Add(V("x"), N(1))},
		{"a - b - c", Sub(Sub(V("a"), V("b")), V("c"))},
		{"a - (b - c)", Sub(V("a"), Sub(V("b"), V("c")))},
		{"a + b * c", Add(V("a"), Mul(V("b"), V("c")))},
		{"(a + b) * c", Mul(Add(V("a"), V("b")), V("c"))},
		{"x ** 2", Pow(V("x"), N(2))},
		{"x ^ 2", Pow(V("x"), N(2))},
		{"a ** b ** c", Pow(V("a"), Pow(V("b"), V("c")))},
		{"-x ** 2", Neg(Pow(V("x"), N(2)))},
		{"(-x) ** 2", Pow(Neg(V("x")), N(2))},
		{"sqrt(x + 1) - sqrt(x)", Sub(Sqrt(Add(V("x"), N(1))), Sqrt(V("x")))},
		{"atan2(y, x)", Fn("atan2", V("y"), V("x"))},
		{"fma(a, b, c)", Fn("fma", V("a"), V("b"), V("c"))},
		{"x' * 2", Mul(V("x'"), N(2))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "Parse(%q) = %s, want %s", tt.input, got, tt.want)
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"x +",
		"(x + 1",
		"x + 1)",
		"sqrt(x, y)",
		"frobnicate(x)",
		"x $ y",
		"2x",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			var synErr *SyntaxError
			assert.ErrorAs(t, err, &synErr)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	exprs := []Expr{
		Sub(Sqrt(Add(V("x"), N(1))), Sqrt(V("x"))),
		Div(N(1), Add(Sqrt(Add(V("x"), N(1))), Sqrt(V("x")))),
		Sub(V("a"), Sub(V("b"), V("c"))),
		Div(V("a"), Mul(V("b"), V("c"))),
		Pow(Pow(V("a"), V("b")), V("c")),
		Pow(V("a"), Neg(V("b"))),
		Neg(Mul(V("a"), V("b"))),
		Fn("hypot", Fn("expm1", V("x")), E()),
	}

	for _, e := range exprs {
		t.Run(e.String(), func(t *testing.T) {
			back, err := Parse(e.String())
			require.NoError(t, err)
			assert.True(t, Equal(e, back), "round trip of %s gave %s", e, back)
		})
	}
}

func TestString(t *testing.T) {
	e := Div(N(1), Add(Sqrt(Add(V("x"), N(1))), Sqrt(V("x"))))
	assert.Equal(t, "1 / (sqrt(x + 1) + sqrt(x))", e.String())
	assert.Equal(t, "(-x) ** 2", Pow(Neg(V("x")), N(2)).String())
	assert.Equal(t, "x * -2", Mul(V("x"), N(-2)).String())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(N(math.NaN()), N(math.NaN())))
	assert.False(t, Equal(N(1), V("x")))
	assert.False(t, Equal(Add(V("x"), V("y")), Add(V("y"), V("x"))))
	assert.False(t, Equal(Sub(V("x"), V("y")), Add(V("x"), V("y"))))
}

func TestVars(t *testing.T) {
	e := MustParse("y * x + sqrt(y) - z")
	assert.Equal(t, []string{"y", "x", "z"}, Vars(e))
	assert.Empty(t, Vars(MustParse("1 + pi")))
}

func TestCallArityPanics(t *testing.T) {
	assert.Panics(t, func() { Call(OpSqrt, V("x"), V("y")) })
	assert.Panics(t, func() { Fn("nope", V("x")) })
}

func TestOps(t *testing.T) {
	for _, op := range Ops() {
		assert.Greater(t, op.Arity(), 0, "op %s", op)
		if !op.Infix() {
			got, ok := LookupFunc(op.String())
			assert.True(t, ok)
			assert.Equal(t, op, got)
		}
	}
	assert.Equal(t, 6, Size(MustParse("sqrt(x + 1) - y")))
}
