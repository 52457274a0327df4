// Package export moves cache contents in and out of portable YAML archives,
// optionally zstd-compressed.
package export

import (
	"time"

	"fpstab/internal/result"
)

// ArchiveVersion is written into every archive
const ArchiveVersion = 1

// Archive is a snapshot of the result cache
type Archive struct {
	Version    int       `yaml:"version"`
	ExportedAt time.Time `yaml:"exportedAt"`
	Results    []Entry   `yaml:"results"`
}

// Entry is one cached result with the call sites that requested it
type Entry struct {
	CmdIn  string           `yaml:"cmdin"`
	CmdOut string           `yaml:"cmdout"`
	ErrIn  float64          `yaml:"errin"`
	ErrOut float64          `yaml:"errout"`
	Debug  []result.DbgInfo `yaml:"debug,omitempty"`
}

// Result returns the entry as a canonical-text result
func (e Entry) Result() result.StabilizerResult[string] {
	return result.StabilizerResult[string]{CmdIn: e.CmdIn, CmdOut: e.CmdOut, ErrIn: e.ErrIn, ErrOut: e.ErrOut}
}

// ImportStats counts what Import handed to the store
type ImportStats struct {
	Results      int `json:"results" yaml:"results"`
	DebugRecords int `json:"debugRecords" yaml:"debugRecords"`
	Skipped      int `json:"skipped" yaml:"skipped"`
}
