package main

import (
	"github.com/spf13/cobra"

	"fpstab/internal/batch"
	fperrors "fpstab/internal/errors"
	"fpstab/internal/output"
)

var batchParallelism int

var batchCmd = &cobra.Command{
	Use:   "batch <jobs.toml>",
	Short: "Stabilize every expression in a job file",
	Long: `Run each [[job]] of a TOML job file through the stabilizer with bounded
parallelism and print an ordered report.

Job file format:
  [defaults]
  module = "Geometry"

  [[job]]
  expr = "sqrt(x + 1) - sqrt(x)"
  function = "step"
  type = "Double -> Double"`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchParallelism, "parallelism", "p", 0,
		"Concurrent solver calls (default: batch.parallelism from config)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	jobs, err := batch.LoadFile(args[0])
	if err != nil {
		return fperrors.New(fperrors.ParseFailure, "Invalid job file", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	parallelism := a.cfg.Batch.Parallelism
	if batchParallelism > 0 {
		parallelism = batchParallelism
	}

	runner := batch.NewRunner(a.stab, parallelism, a.logger)
	report, runErr := runner.Run(cmd.Context(), a.runID, jobs)
	if report != nil {
		if err := output.Write(cmd.OutOrStdout(), format, report); err != nil {
			return err
		}
	}
	return runErr
}
