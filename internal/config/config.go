package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"fpstab/internal/paths"
	"fpstab/internal/slogutil"
	"fpstab/internal/solver"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. FPSTAB_SOLVER_BINARY.
const EnvPrefix = "FPSTAB"

// Config represents the complete fpstab configuration
type Config struct {
	Version int `json:"version" yaml:"version" mapstructure:"version" toml:"version"`
	// CacheRoot is the directory holding the cache database. Empty means the
	// fpstab root directory.
	CacheRoot string `json:"cacheRoot" yaml:"cacheRoot" mapstructure:"cacheRoot" toml:"cacheRoot"`

	Solver  SolverConfig  `json:"solver" yaml:"solver" mapstructure:"solver" toml:"solver"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch" toml:"batch"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging" toml:"logging"`
}

// SolverConfig contains external solver settings
type SolverConfig struct {
	Binary    string   `json:"binary" yaml:"binary" mapstructure:"binary" toml:"binary"`
	Seed      []int64  `json:"seed" yaml:"seed" mapstructure:"seed" toml:"seed"`
	TimeoutMs int      `json:"timeoutMs" yaml:"timeoutMs" mapstructure:"timeoutMs" toml:"timeoutMs"`
	ExtraArgs []string `json:"extraArgs" yaml:"extraArgs" mapstructure:"extraArgs" toml:"extraArgs"`
}

// BatchConfig contains batch mode settings
type BatchConfig struct {
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism" toml:"parallelism"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level" toml:"level"`
	// File is relative to <root>/logs unless absolute. Empty disables the
	// log file.
	File       string `json:"file" yaml:"file" mapstructure:"file" toml:"file"`
	MaxSize    string `json:"maxSize" yaml:"maxSize" mapstructure:"maxSize" toml:"maxSize"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups" mapstructure:"maxBackups" toml:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	seed := make([]int64, len(solver.DefaultSeed))
	copy(seed, solver.DefaultSeed)

	return &Config{
		Version: CurrentVersion,
		Solver: SolverConfig{
			Binary:    solver.DefaultBinary,
			Seed:      seed,
			TimeoutMs: 0,
			ExtraArgs: []string{},
		},
		Batch: BatchConfig{
			Parallelism: 4,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			File:       "fpstab.log",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("cacheRoot", d.CacheRoot)
	v.SetDefault("solver.binary", d.Solver.Binary)
	v.SetDefault("solver.seed", d.Solver.Seed)
	v.SetDefault("solver.timeoutMs", d.Solver.TimeoutMs)
	v.SetDefault("solver.extraArgs", d.Solver.ExtraArgs)
	v.SetDefault("batch.parallelism", d.Batch.Parallelism)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// LoadConfig loads configuration from <root>/config.toml, applying
// FPSTAB_* environment overrides. A missing file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(root)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to <root>/config.toml
func (c *Config) Save(root string) error {
	if err := paths.EnsureDir(root); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(paths.ConfigPath(root), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if strings.TrimSpace(c.Solver.Binary) == "" {
		return &ConfigError{Field: "solver.binary", Message: "must not be empty"}
	}
	if len(c.Solver.Seed) != 6 {
		return &ConfigError{Field: "solver.seed", Message: fmt.Sprintf("must hold exactly 6 integers, got %d", len(c.Solver.Seed))}
	}
	if c.Solver.TimeoutMs < 0 {
		return &ConfigError{Field: "solver.timeoutMs", Message: "must not be negative"}
	}
	if c.Batch.Parallelism < 1 {
		return &ConfigError{Field: "batch.parallelism", Message: "must be at least 1"}
	}
	if _, ok := slogutil.ParseLevel(c.Logging.Level); !ok {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ResolveCacheRoot returns the directory holding the cache database.
func (c *Config) ResolveCacheRoot(root string) (string, error) {
	if c.CacheRoot == "" {
		return root, nil
	}
	dir, err := paths.ExpandHome(c.CacheRoot)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
