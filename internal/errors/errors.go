// Package errors defines the stable error codes fpstab reports to users.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseFailure indicates an expression or solver reply could not be read
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// SolverProtocolFailure indicates the solver could not run or replied
	// outside the expected protocol
	SolverProtocolFailure ErrorCode = "SOLVER_PROTOCOL_FAILURE"
	// StoreUnavailable indicates the cache database could not be opened
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ConfigInvalid indicates a malformed or invalid config file
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// InstallMethod represents methods for installing tools
type InstallMethod string

const (
	// Raco installation via Racket's package manager
	Raco InstallMethod = "raco"
	// Brew installation via Homebrew
	Brew InstallMethod = "brew"
	// Manual installation
	Manual InstallMethod = "manual"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType   `json:"type" yaml:"type"`
	Command     string          `json:"command,omitempty" yaml:"command,omitempty"`
	Safe        bool            `json:"safe,omitempty" yaml:"safe,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string          `json:"url,omitempty" yaml:"url,omitempty"`
	Tool        string          `json:"tool,omitempty" yaml:"tool,omitempty"`
	Methods     []InstallMethod `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// Error is an fpstab error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates an Error carrying the default fixes for code.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Wrap is New with a formatted message.
func Wrap(code ErrorCode, cause error, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), cause)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SolverProtocolFailure: {
		{
			Type:        InstallTool,
			Tool:        "herbie",
			Description: "Install Herbie and make herbie-inout available on PATH",
			URL:         "https://herbie.uwplse.org/doc/latest/installing.html",
			Methods:     []InstallMethod{Raco, Manual},
		},
		{
			Type:        RunCommand,
			Command:     "fpstab config show",
			Safe:        true,
			Description: "Check solver.binary and solver.timeoutMs",
		},
	},
	StoreUnavailable: {
		{
			Type:        RunCommand,
			Command:     "fpstab cache stats",
			Safe:        true,
			Description: "Check that the cache directory exists and is writable",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "fpstab config init --force",
			Safe:        false,
			Description: "Rewrite config.toml with defaults",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
