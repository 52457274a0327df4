// Package batch runs a file of expressions through the stabilizer.
//
// A job file is TOML:
//
//	[defaults]
//	module = "Geometry"
//
//	[[job]]
//	expr = "sqrt(x + 1) - sqrt(x)"
//	function = "dist"
//	type = "Double -> Double"
//	comments = "hot loop"
package batch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"fpstab/internal/result"
)

// File is a parsed job file
type File struct {
	// Defaults fill provenance fields that a job leaves empty
	Defaults result.DbgInfo `toml:"defaults"`
	Jobs     []Job          `toml:"job"`
}

// Job is one expression and where it came from
type Job struct {
	Expr     string `toml:"expr"`
	Module   string `toml:"module"`
	Function string `toml:"function"`
	Type     string `toml:"type"`
	Comments string `toml:"comments"`
}

// DbgInfo returns the job's provenance with defaults applied.
func (j Job) DbgInfo(defaults result.DbgInfo) result.DbgInfo {
	return result.DbgInfo{
		Comments:     firstNonEmpty(j.Comments, defaults.Comments),
		ModuleName:   firstNonEmpty(j.Module, defaults.ModuleName),
		FunctionName: firstNonEmpty(j.Function, defaults.FunctionName),
		FunctionType: firstNonEmpty(j.Type, defaults.FunctionType),
	}
}

// LoadFile reads and validates a job file. Unknown keys are rejected so that
// a typo does not silently drop provenance.
func LoadFile(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in job file: %s", strings.Join(keys, ", "))
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every job has an expression
func (f *File) Validate() error {
	if len(f.Jobs) == 0 {
		return fmt.Errorf("job file has no [[job]] entries")
	}
	for i, j := range f.Jobs {
		if strings.TrimSpace(j.Expr) == "" {
			return fmt.Errorf("job %d: expr is empty", i+1)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
