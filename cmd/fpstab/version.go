package main

import (
	"io"

	"github.com/spf13/cobra"

	"fpstab/internal/output"
	"fpstab/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// VersionResponse is the output of version
type VersionResponse struct {
	version.Build `yaml:",inline"`
}

// RenderText prints the multi-line version banner.
func (r *VersionResponse) RenderText(w io.Writer) error {
	_, err := io.WriteString(w, version.Full()+"\n")
	return err
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, &VersionResponse{Build: version.Current()})
}
