package version

import (
	"strings"
	"testing"
)

// setBuild overrides the ldflags variables for one test.
func setBuild(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = v, c, d })
	Version, Commit, BuildDate = version, commit, date
}

func TestInfo(t *testing.T) {
	tests := []struct {
		commit string
		want   string
	}{
		{"unknown", "0.9.1"},
		{"abc", "0.9.1"},
		{"1234567", "0.9.1"},
		{"12345678", "0.9.1 (1234567)"},
		{"9f8e7d6c5b4a", "0.9.1 (9f8e7d6)"},
	}

	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			setBuild(t, "0.9.1", tt.commit, "unknown")
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	setBuild(t, "1.2.3", "abcdef123456", "2026-03-01")

	lines := strings.Split(Full(), "\n")
	if len(lines) != 4 {
		t.Fatalf("Full() has %d lines, want 4:\n%s", len(lines), Full())
	}
	wantPrefix := []string{"fpstab version 1.2.3", "Commit: abcdef123456", "Built: 2026-03-01", "Go: "}
	for i, p := range wantPrefix {
		if !strings.HasPrefix(lines[i], p) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], p)
		}
	}
}

func TestCurrent(t *testing.T) {
	setBuild(t, "2.0.0", "deadbeef", "2026-03-01")

	b := Current()
	if b.Version != "2.0.0" || b.Commit != "deadbeef" || b.BuildDate != "2026-03-01" {
		t.Errorf("Current() = %+v, want package variables", b)
	}
	if b.GoVersion == "" {
		t.Error("GoVersion should be set")
	}
	if os, arch, ok := strings.Cut(b.Platform, "/"); !ok || os == "" || arch == "" {
		t.Errorf("Platform = %q, want os/arch", b.Platform)
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q is not MAJOR.MINOR.PATCH", Version)
	}
}
