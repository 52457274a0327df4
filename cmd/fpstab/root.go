package main

import (
	"github.com/spf13/cobra"

	"fpstab/internal/output"
	"fpstab/internal/version"
)

var (
	// rootFlag is the CLI --root flag value
	rootFlag       string
	verbosityFlag  int
	quietFlag      bool
	formatFlag     string
	metricsOutFlag string
)

var rootCmd = &cobra.Command{
	Use:   "fpstab",
	Short: "fpstab - floating-point expression stabilizer",
	Long: `fpstab rewrites floating-point expressions into numerically stable
equivalents by consulting an external solver (Herbie), caching every verdict
in a local SQLite database keyed by the expression's canonical form.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("fpstab version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "",
		"fpstab root directory (default: $FPSTAB_HOME or ~/.fpstab)")
	rootCmd.PersistentFlags().CountVarP(&verbosityFlag, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress all console logging")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(output.FormatText),
		"Output format (text, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsOutFlag, "metrics-out", "",
		"Write Prometheus metrics to this textfile when the command finishes")
}

// outputFormat validates the --format flag.
func outputFormat() (output.Format, error) {
	return output.ParseFormat(formatFlag)
}
