package slogutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"invalid", 0},
		{"-5MB", 0},
		{"MB", 0},
		{"100", 100},
		{"100b", 100},
		{"1KB", 1 << 10},
		{" 10 mb ", 10 << 20},
		{"1GB", 1 << 30},
		{"1.5MB", 3 << 19},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRotatingFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "fpstab.log")

	rf, err := OpenRotatingFile(path, 0, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	if _, err := rf.Write([]byte("line\n")); err != nil {
		t.Fatal(err)
	}
	if err := rf.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rf.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	if got := readFile(t, path); got != "line\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRotatingFile_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpstab.log")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rf, err := OpenRotatingFile(path, 1<<20, 1)
	if err != nil {
		t.Fatal(err)
	}
	rf.Write([]byte("new\n"))
	rf.Close()

	if got := readFile(t, path); got != "old\nnew\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRotatingFile_ShiftsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpstab.log")

	rf, err := OpenRotatingFile(path, 10, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}
	for _, rec := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		if _, err := rf.Write([]byte(rec)); err != nil {
			t.Fatalf("Write %q failed: %v", rec, err)
		}
	}
	rf.Close()

	want := map[string]string{
		path:        "dddddddd\n",
		path + ".1": "cccccccc\n",
		path + ".2": "bbbbbbbb\n",
	}
	for p, content := range want {
		if got := readFile(t, p); got != content {
			t.Errorf("%s = %q, want %q", filepath.Base(p), got, content)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("backup .3 should have been pruned")
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpstab.log")

	rf, err := OpenRotatingFile(path, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	rf.Write([]byte("first....\n"))
	rf.Write([]byte("second...\n"))
	rf.Close()

	if got := readFile(t, path); got != "second...\n" {
		t.Errorf("content = %q", got)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should be kept")
	}
}

func TestRotatingFile_OversizedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fpstab.log")

	rf, err := OpenRotatingFile(path, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("x", 32) + "\n"
	if _, err := rf.Write([]byte(long)); err != nil {
		t.Fatal(err)
	}
	rf.Close()

	if got := readFile(t, path); got != long {
		t.Errorf("oversized record should land in the empty file, got %q", got)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("an empty file should not be rotated")
	}
}
