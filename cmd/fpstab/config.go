package main

import (
	"fmt"
	"io"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"fpstab/internal/config"
	fperrors "fpstab/internal/errors"
	"fpstab/internal/output"
	"fpstab/internal/paths"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fpstab configuration",
	Long:  "View and manage fpstab configuration stored in <root>/config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.toml",
	Long: `Create <root>/config.toml with default settings. An existing file is left
alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults and FPSTAB_* environment
overrides are applied.

Examples:
  fpstab config show
  fpstab config show --format json
  FPSTAB_SOLVER_BINARY=/opt/herbie/bin/herbie-inout fpstab config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config.toml")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := paths.ResolveRoot(rootFlag)
	if err != nil {
		return fperrors.New(fperrors.InternalError, "Failed to resolve fpstab root", err)
	}

	configPath := paths.ConfigPath(root)
	if _, statErr := os.Stat(configPath); statErr == nil && !configInitForce {
		// Already initialized is success
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at %s\n", configPath)
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'fpstab config init --force' to overwrite it.")
		return nil
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return fperrors.New(fperrors.InternalError, "Failed to write config file", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", configPath)
	return nil
}

// ConfigShowResponse is the output of config show
type ConfigShowResponse struct {
	ConfigPath   string         `json:"configPath" yaml:"configPath"`
	UsedDefaults bool           `json:"usedDefaults" yaml:"usedDefaults"`
	Config       *config.Config `json:"config" yaml:"config"`
}

// RenderText prints the config as TOML under a header naming its source.
func (r *ConfigShowResponse) RenderText(w io.Writer) error {
	if r.UsedDefaults {
		fmt.Fprintf(w, "# %s not found, showing defaults\n", r.ConfigPath)
	} else {
		fmt.Fprintf(w, "# %s\n", r.ConfigPath)
	}
	data, err := toml.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	root, err := paths.ResolveRoot(rootFlag)
	if err != nil {
		return fperrors.New(fperrors.InternalError, "Failed to resolve fpstab root", err)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return fperrors.New(fperrors.ConfigInvalid, "Failed to load config", err)
	}

	configPath := paths.ConfigPath(root)
	_, statErr := os.Stat(configPath)
	resp := &ConfigShowResponse{
		ConfigPath:   configPath,
		UsedDefaults: statErr != nil,
		Config:       cfg,
	}
	if err := output.Write(cmd.OutOrStdout(), format, resp); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fperrors.New(fperrors.ConfigInvalid, "Invalid configuration", err)
	}
	return nil
}
