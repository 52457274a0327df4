package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveRoot(t *testing.T) {
	// Explicit value wins over the environment
	t.Setenv(RootEnv, "/from/env")

	root, err := ResolveRoot("/explicit/root")
	if err != nil {
		t.Fatalf("ResolveRoot failed: %v", err)
	}
	if root != "/explicit/root" {
		t.Errorf("Expected /explicit/root, got %s", root)
	}

	// Environment variable
	root, err = ResolveRoot("")
	if err != nil {
		t.Fatalf("ResolveRoot failed: %v", err)
	}
	if root != "/from/env" {
		t.Errorf("Expected /from/env, got %s", root)
	}

	// Default
	t.Setenv(RootEnv, "")
	root, err = ResolveRoot("")
	if err != nil {
		t.Fatalf("ResolveRoot failed: %v", err)
	}
	if !strings.HasSuffix(root, defaultDirName) {
		t.Errorf("Expected path to end with %s, got %s", defaultDirName, root)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/cache", filepath.Join(home, "cache")},
		{"/abs/path/", "/abs/path"},
		{"relative/./dir", "relative/dir"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExpandHome(tt.input)
			if err != nil {
				t.Fatalf("ExpandHome(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ExpandHome(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	root := filepath.Join("tmp", "fpstab")

	if got := ConfigPath(root); got != filepath.Join(root, "config.toml") {
		t.Errorf("ConfigPath = %s", got)
	}
	if got := DatabasePath(root); got != filepath.Join(root, "stabilizer.db") {
		t.Errorf("DatabasePath = %s", got)
	}
	if got := LogsDir(root); got != filepath.Join(root, "logs") {
		t.Errorf("LogsDir = %s", got)
	}
	if got := LogPath(root, "fpstab.log"); got != filepath.Join(root, "logs", "fpstab.log") {
		t.Errorf("LogPath relative = %s", got)
	}

	abs := filepath.Join(t.TempDir(), "custom.log")
	if got := LogPath(root, abs); got != abs {
		t.Errorf("LogPath absolute = %s, want %s", got, abs)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("Expected directory at %s", dir)
	}

	// Idempotent
	if err := EnsureDir(dir); err != nil {
		t.Errorf("second EnsureDir failed: %v", err)
	}

	// A file in the way is an error
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(filepath.Join(file, "sub")); err == nil {
		t.Error("Expected error when a file blocks the path")
	}
}
