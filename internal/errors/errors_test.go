package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("exec: \"herbie-inout\": executable file not found in $PATH")

	err := New(SolverProtocolFailure, "solver did not start", cause)

	if err.Code != SolverProtocolFailure {
		t.Errorf("Code = %v, want %v", err.Code, SolverProtocolFailure)
	}
	if err.Message != "solver did not start" {
		t.Errorf("Message = %q, want %q", err.Message, "solver did not start")
	}
	if len(err.SuggestedFixes) != 2 {
		t.Errorf("len(SuggestedFixes) = %d, want 2", len(err.SuggestedFixes))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      StoreUnavailable,
			message:   "cannot open cache",
			cause:     errors.New("permission denied"),
			wantParts: []string{"STORE_UNAVAILABLE", "cannot open cache", "permission denied"},
		},
		{
			name:      "without cause",
			code:      ParseFailure,
			message:   "unexpected ')' at 4",
			cause:     nil,
			wantParts: []string{"PARSE_FAILURE", "unexpected ')' at 4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	errNoCause := New(ConfigInvalid, "bad level", nil)
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ParseFailure, nil, "cannot parse %q", "x +")
	if err.Message != `cannot parse "x +"` {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestError_WithDetails(t *testing.T) {
	err := New(StoreUnavailable, "open failed", nil)

	result := err.WithDetails(map[string]string{"path": "/tmp/stabilizer.db"})

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", New(ConfigInvalid, "bad seed", nil))

	if got := CodeOf(wrapped); got != ConfigInvalid {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, ConfigInvalid)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantNil bool
		wantLen int
	}{
		{SolverProtocolFailure, false, 2},
		{StoreUnavailable, false, 1},
		{ConfigInvalid, false, 1},
		{ParseFailure, true, 0},  // No predefined fixes
		{InternalError, true, 0}, // No predefined fixes
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			fixes := GetSuggestedFixes(tt.code)

			if tt.wantNil && fixes != nil {
				t.Errorf("GetSuggestedFixes(%v) = %v, want nil", tt.code, fixes)
			}
			if !tt.wantNil && len(fixes) != tt.wantLen {
				t.Errorf("GetSuggestedFixes(%v) len = %d, want %d", tt.code, len(fixes), tt.wantLen)
			}
		})
	}
}
