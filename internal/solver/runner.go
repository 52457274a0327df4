package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Command is one subprocess invocation.
type Command struct {
	Binary string
	Args   []string
	Stdin  string
}

// Response is what a finished subprocess produced.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a Command. ExecRunner is the production implementation;
// tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Response, error)
}

// RunError classifies why a subprocess did not complete successfully. The
// partial Response is kept for diagnostics.
type RunError struct {
	Kind     FailureKind
	Response Response
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("solver %s: %v", e.Kind, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// waitDelay bounds how long Run waits for output pipes after the process is
// killed on context expiry.
const waitDelay = 2 * time.Second

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts the binary, writes Stdin to it and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, c Command) (Response, error) {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)
	cmd.Stdin = strings.NewReader(c.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	resp := Response{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return resp, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		resp.ExitCode = -1
		kind := FailureTimeout
		if errors.Is(ctxErr, context.Canceled) {
			kind = FailureCancelled
		}
		return resp, &RunError{Kind: kind, Response: resp, Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		resp.ExitCode = exitErr.ExitCode()
		return resp, &RunError{Kind: FailureExit, Response: resp, Err: err}
	}

	// binary missing, not executable, or pipes could not be set up
	resp.ExitCode = -1
	return resp, &RunError{Kind: FailureStart, Response: resp, Err: err}
}
