package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fpstab/internal/expr"
	"fpstab/internal/output"
	"fpstab/internal/result"
)

var (
	stabilizeModule   string
	stabilizeFunction string
	stabilizeType     string
	stabilizeComment  string
)

var stabilizeCmd = &cobra.Command{
	Use:   "stabilize <expression>",
	Short: "Rewrite an expression into a numerically stable form",
	Long: `Look up the expression in the cache, consulting the solver on a miss, and
print the rewrite with its error before and after (bits of accuracy lost).

The call site given by --module, --function and --type is recorded against
the cached result.

Examples:
  fpstab stabilize 'sqrt(x + 1) - sqrt(x)'
  fpstab stabilize --module Geometry --function dist 'sqrt(x*x + y*y)'
  fpstab stabilize --format json '(a + b) / 2'`,
	Args: cobra.ExactArgs(1),
	RunE: runStabilize,
}

func init() {
	stabilizeCmd.Flags().StringVar(&stabilizeModule, "module", "", "Module the expression comes from")
	stabilizeCmd.Flags().StringVar(&stabilizeFunction, "function", "", "Function the expression comes from")
	stabilizeCmd.Flags().StringVar(&stabilizeType, "type", "", "Type of that function")
	stabilizeCmd.Flags().StringVar(&stabilizeComment, "comment", "", "Free-form note stored with the call site")
	rootCmd.AddCommand(stabilizeCmd)
}

// StabilizeResponse is the output of stabilize and cache lookup
type StabilizeResponse struct {
	Input    string       `json:"input" yaml:"input"`
	Output   string       `json:"output" yaml:"output"`
	ErrIn    *output.Bits `json:"errin" yaml:"errin"`
	ErrOut   *output.Bits `json:"errout" yaml:"errout"`
	Improved bool         `json:"improved" yaml:"improved"`
	Cached   *bool        `json:"cached,omitempty" yaml:"cached,omitempty"`
}

func newStabilizeResponse(r result.StabilizerResult[expr.Expr]) *StabilizeResponse {
	return &StabilizeResponse{
		Input:    r.CmdIn.String(),
		Output:   r.CmdOut.String(),
		ErrIn:    output.Metric(r.ErrIn),
		ErrOut:   output.Metric(r.ErrOut),
		Improved: r.Improved(),
	}
}

// RenderText prints the rewrite and its error metrics.
func (r *StabilizeResponse) RenderText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "input:  %s\n", r.Input)
	if r.Cached != nil && !*r.Cached {
		b.WriteString("not cached\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "output: %s\n", r.Output)
	fmt.Fprintf(&b, "error:  %s -> %s bits", formatMetric(r.ErrIn), formatMetric(r.ErrOut))
	if r.Improved {
		b.WriteString(" (improved)")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func formatMetric(m *output.Bits) string {
	if m == nil {
		return "unknown"
	}
	return m.String()
}

func runStabilize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	dbg := result.DbgInfo{
		Comments:     stabilizeComment,
		ModuleName:   stabilizeModule,
		FunctionName: stabilizeFunction,
		FunctionType: stabilizeType,
	}
	r, err := a.stab.StabilizeSource(cmd.Context(), args[0], dbg)
	if err != nil {
		return err
	}

	return output.Write(cmd.OutOrStdout(), format, newStabilizeResponse(r))
}
