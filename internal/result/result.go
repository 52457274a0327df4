// Package result defines the records shared by every stage of the
// stabilization pipeline: the solver verdict and its call-site provenance.
package result

import "math"

// StabilizerResult is one solver verdict. CmdIn and CmdOut are canonical text
// while the record travels through the solver and the cache, and host
// expressions once the pipeline has reverse-translated them.
//
// ErrIn and ErrOut are bits of accuracy lost before and after the rewrite.
// ErrOut may exceed ErrIn when the solver regresses, and both are NaN when the
// solver failed.
type StabilizerResult[T any] struct {
	CmdIn  T       `json:"cmdin" yaml:"cmdin"`
	CmdOut T       `json:"cmdout" yaml:"cmdout"`
	ErrIn  float64 `json:"errin" yaml:"errin"`
	ErrOut float64 `json:"errout" yaml:"errout"`
}

// Fallback returns the "no change, unknown error" result for input.
func Fallback[T any](input T) StabilizerResult[T] {
	return StabilizerResult[T]{
		CmdIn:  input,
		CmdOut: input,
		ErrIn:  math.NaN(),
		ErrOut: math.NaN(),
	}
}

// Unknown reports whether either error metric is the NaN failure sentinel.
func (r StabilizerResult[T]) Unknown() bool {
	return math.IsNaN(r.ErrIn) || math.IsNaN(r.ErrOut)
}

// Improved reports whether the solver claims the rewrite loses fewer bits.
func (r StabilizerResult[T]) Improved() bool {
	return !r.Unknown() && r.ErrOut < r.ErrIn
}

// Gain is ErrIn - ErrOut, or NaN when the metrics are unknown.
func (r StabilizerResult[T]) Gain() float64 {
	if r.Unknown() {
		return math.NaN()
	}
	return r.ErrIn - r.ErrOut
}

// DbgInfo records where in the host program a result was requested.
type DbgInfo struct {
	Comments     string `json:"comments,omitempty" yaml:"comments,omitempty" toml:"comments"`
	ModuleName   string `json:"moduleName,omitempty" yaml:"moduleName,omitempty" toml:"module"`
	FunctionName string `json:"functionName,omitempty" yaml:"functionName,omitempty" toml:"function"`
	FunctionType string `json:"functionType,omitempty" yaml:"functionType,omitempty" toml:"type"`
}
