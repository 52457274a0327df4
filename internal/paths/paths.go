// Package paths resolves where fpstab keeps its configuration, logs and
// cache database.
//
// Layout under the root directory (default ~/.fpstab):
//
//	config.toml
//	logs/fpstab.log
//	stabilizer.db        (unless cacheRoot points elsewhere)
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RootEnv overrides the default root directory.
	RootEnv = "FPSTAB_HOME"

	defaultDirName = ".fpstab"
	configFileName = "config.toml"
	databaseName   = "stabilizer.db"
	logsDirName    = "logs"
)

// DefaultRoot returns ~/.fpstab.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultDirName), nil
}

// ResolveRoot picks the root directory.
// Precedence: explicit value > FPSTAB_HOME > ~/.fpstab
func ResolveRoot(explicit string) (string, error) {
	if explicit != "" {
		return ExpandHome(explicit)
	}
	if env := os.Getenv(RootEnv); env != "" {
		return ExpandHome(env)
	}
	return DefaultRoot()
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return filepath.Clean(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// ConfigPath returns <root>/config.toml.
func ConfigPath(root string) string {
	return filepath.Join(root, configFileName)
}

// DatabasePath returns <cacheRoot>/stabilizer.db.
func DatabasePath(cacheRoot string) string {
	return filepath.Join(cacheRoot, databaseName)
}

// LogsDir returns <root>/logs.
func LogsDir(root string) string {
	return filepath.Join(root, logsDirName)
}

// LogPath resolves a configured log file name. Relative names live under
// <root>/logs, absolute paths are used as given.
func LogPath(root, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(LogsDir(root), file)
}

// EnsureDir creates dir and any parents if absent.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
