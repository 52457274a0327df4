package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fpstab/internal/canon"
	fperrors "fpstab/internal/errors"
	"fpstab/internal/expr"
	"fpstab/internal/output"
	"fpstab/internal/solver"
)

var canonCmd = &cobra.Command{
	Use:   "canon <expression>",
	Short: "Show the canonical form used as the cache key",
	Long: `Print the canonical prefix text of an expression, its placeholder
bindings, the cache-key digest and the exact line sent to the solver.

Neither the cache nor the solver is touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runCanon,
}

func init() {
	rootCmd.AddCommand(canonCmd)
}

// CanonResponse is the output of canon
type CanonResponse struct {
	Input    string          `json:"input" yaml:"input"`
	Text     string          `json:"text" yaml:"text"`
	Digest   string          `json:"digest" yaml:"digest"`
	Bindings []canon.Binding `json:"bindings" yaml:"bindings"`
	Request  string          `json:"request" yaml:"request"`
}

// RenderText prints the canonical text followed by its bindings.
func (r *CanonResponse) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "input:\t%s\n", r.Input)
	fmt.Fprintf(tw, "canonical:\t%s\n", r.Text)
	fmt.Fprintf(tw, "digest:\t%s\n", r.Digest)
	for _, b := range r.Bindings {
		fmt.Fprintf(tw, "  %s\t= %s\n", b.Placeholder, b.Original)
	}
	fmt.Fprintf(tw, "request:\t%s", r.Request)
	return tw.Flush()
}

func newCanonResponse(e expr.Expr) *CanonResponse {
	form := canon.ToCanonical(e)
	return &CanonResponse{
		Input:    e.String(),
		Text:     form.Text,
		Digest:   form.Digest(),
		Bindings: form.Vars.Bindings(),
		Request:  solver.BuildRequest(form),
	}
}

func runCanon(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	e, err := expr.Parse(args[0])
	if err != nil {
		return fperrors.New(fperrors.ParseFailure, "cannot parse expression", err)
	}

	return output.Write(cmd.OutOrStdout(), format, newCanonResponse(e))
}
