// Package solver drives the external stability solver as a subprocess.
//
// The solver is given one expression per run on stdin and a fixed random
// seed on the command line so that repeated runs produce the same rewrite.
// Every failure degrades to the fallback result: the input unchanged with NaN
// error metrics.
package solver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fpstab/internal/canon"
	"fpstab/internal/result"
)

// DefaultBinary is the solver front end looked up on PATH.
const DefaultBinary = "herbie-inout"

// DefaultSeed is the fixed seed tuple passed with -r.
var DefaultSeed = []int64{1461197085, 2376054483, 1553562171, 1611329376, 2497620867, 2308122621}

// maxLoggedOutput bounds how much solver stdout/stderr goes into one log line.
const maxLoggedOutput = 2048

// Invoker turns canonical forms into solver verdicts.
type Invoker interface {
	Invoke(ctx context.Context, form canon.Form) Outcome
}

// Outcome is the result of one solver call. Result is always usable: on
// failure it is the fallback for the input text.
type Outcome struct {
	Result   result.StabilizerResult[string]
	Failure  FailureKind
	Err      error
	Duration time.Duration
}

// OK reports whether the solver produced a parsed reply.
func (o Outcome) OK() bool { return o.Failure == FailureNone }

// Options configures the subprocess.
type Options struct {
	Binary string
	// Seed must hold six integers.
	Seed []int64
	// Timeout of zero lets the solver run to completion.
	Timeout   time.Duration
	ExtraArgs []string
}

// Herbie invokes the solver through a Runner.
type Herbie struct {
	opts   Options
	runner Runner
	logger *slog.Logger
}

// New creates an invoker. A nil runner uses ExecRunner; empty Binary and Seed
// fall back to the defaults.
func New(opts Options, runner Runner, logger *slog.Logger) *Herbie {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if len(opts.Seed) == 0 {
		opts.Seed = DefaultSeed
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Herbie{opts: opts, runner: runner, logger: logger}
}

// Args returns the command-line arguments passed to the solver.
func (h *Herbie) Args() []string {
	args := []string{"-r", SeedArg(h.opts.Seed)}
	return append(args, h.opts.ExtraArgs...)
}

// Invoke runs the solver on form and parses its reply.
func (h *Herbie) Invoke(ctx context.Context, form canon.Form) Outcome {
	start := time.Now()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	cmd := Command{
		Binary: h.opts.Binary,
		Args:   h.Args(),
		Stdin:  BuildRequest(form),
	}
	h.logger.Debug("Invoking solver",
		"key", form.Digest(),
		"binary", cmd.Binary,
		"vars", form.Vars.Len(),
	)

	resp, err := h.runner.Run(ctx, cmd)
	if err != nil {
		kind := FailureStart
		var runErr *RunError
		if errors.As(err, &runErr) {
			kind = runErr.Kind
			resp = runErr.Response
		}
		return h.fail(form, kind, err, resp, start)
	}

	reply, err := ParseReply(resp.Stdout)
	if err != nil {
		kind := FailureMissingGroup
		var replyErr *ReplyError
		if errors.As(err, &replyErr) {
			kind = replyErr.Kind
		}
		return h.fail(form, kind, err, resp, start)
	}

	elapsed := time.Since(start)
	h.logger.Debug("Solver finished",
		"key", form.Digest(),
		"errin", reply.ErrIn,
		"errout", reply.ErrOut,
		"duration", elapsed,
	)
	return Outcome{
		Result: result.StabilizerResult[string]{
			CmdIn:  form.Text,
			CmdOut: reply.Output,
			ErrIn:  reply.ErrIn,
			ErrOut: reply.ErrOut,
		},
		Failure:  FailureNone,
		Duration: elapsed,
	}
}

func (h *Herbie) fail(form canon.Form, kind FailureKind, err error, resp Response, start time.Time) Outcome {
	h.logger.Warn("Solver failed, passing expression through unchanged",
		"key", form.Digest(),
		"input", form.Text,
		"failure", kind.String(),
		"error", err.Error(),
		"exit_code", resp.ExitCode,
		"stdout", truncate(resp.Stdout),
		"stderr", truncate(resp.Stderr),
	)
	return Outcome{
		Result:   result.Fallback(form.Text),
		Failure:  kind,
		Err:      err,
		Duration: time.Since(start),
	}
}

func truncate(s string) string {
	if len(s) <= maxLoggedOutput {
		return s
	}
	return s[:maxLoggedOutput] + "...(truncated)"
}
