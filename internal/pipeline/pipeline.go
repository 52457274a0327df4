// Package pipeline glues the stabilizer together: canonicalize, look up or
// compute, record provenance, and translate the verdict back into the
// caller's variables.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/singleflight"

	"fpstab/internal/cache"
	"fpstab/internal/canon"
	fperrors "fpstab/internal/errors"
	"fpstab/internal/expr"
	"fpstab/internal/metrics"
	"fpstab/internal/result"
	"fpstab/internal/solver"
)

// Stabilizer runs expressions through the cache and the solver. It is safe
// for concurrent use; concurrent misses on the same canonical text share one
// solver call.
type Stabilizer struct {
	store   cache.Store
	solver  solver.Invoker
	logger  *slog.Logger
	metrics *metrics.Metrics
	flight  singleflight.Group

	mu      sync.Mutex
	waiting map[string]*waiters
}

// waiters counts the callers blocked on one in-flight solver call. The call
// runs under ctx, which is cancelled once the last waiter has given up.
type waiters struct {
	ctx    context.Context
	cancel context.CancelFunc
	n      int
}

// flightResult is what a shared solver call hands to every waiter.
type flightResult struct {
	res    result.StabilizerResult[string]
	cached bool
}

// New creates a Stabilizer. m may be nil.
func New(store cache.Store, invoker solver.Invoker, logger *slog.Logger, m *metrics.Metrics) *Stabilizer {
	return &Stabilizer{
		store:   store,
		solver:  invoker,
		logger:  logger.With("component", "pipeline"),
		metrics: m,
		waiting: make(map[string]*waiters),
	}
}

// Stabilize returns the solver's verdict for e, from the cache when
// possible. dbg is recorded against the cached row on every call. It never
// fails: any problem yields e unchanged with NaN metrics.
func (s *Stabilizer) Stabilize(ctx context.Context, e expr.Expr, dbg result.DbgInfo) (res result.StabilizerResult[expr.Expr]) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Stabilize panicked, passing expression through unchanged",
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
			res = result.Fallback(e)
			s.metrics.RecordStabilization(metrics.StatusUnknown)
		}
	}()

	form := canon.ToCanonical(e)
	text := s.resolve(ctx, form)

	s.store.RecordDebugInfo(ctx, dbg, form.Text)
	s.metrics.RecordDebugInfo()

	res = s.translate(e, form, text)
	s.metrics.RecordStabilization(status(res))
	return res
}

// Lookup returns the cached verdict for e without invoking the solver or
// recording provenance.
func (s *Stabilizer) Lookup(ctx context.Context, e expr.Expr) (result.StabilizerResult[expr.Expr], bool) {
	form := canon.ToCanonical(e)
	text, ok := s.store.Lookup(ctx, form.Text)
	if !ok {
		return result.StabilizerResult[expr.Expr]{}, false
	}
	return s.translate(e, form, text), true
}

// StabilizeSource parses src as an infix expression and stabilizes it.
// Only a parse failure is reported as an error.
func (s *Stabilizer) StabilizeSource(ctx context.Context, src string, dbg result.DbgInfo) (result.StabilizerResult[expr.Expr], error) {
	e, err := expr.Parse(src)
	if err != nil {
		return result.StabilizerResult[expr.Expr]{}, fperrors.New(fperrors.ParseFailure, "cannot parse expression", err)
	}
	return s.Stabilize(ctx, e, dbg), nil
}

// resolve returns the canonical-text verdict for form, consulting the
// solver on a miss. A caller whose ctx ends while it waits gets the
// fallback; the shared call keeps running for the others.
func (s *Stabilizer) resolve(ctx context.Context, form canon.Form) result.StabilizerResult[string] {
	if r, ok := s.store.Lookup(ctx, form.Text); ok {
		s.metrics.RecordLookup(metrics.LookupHit)
		s.logger.Debug("Cache hit", "key", form.Digest())
		return r
	}

	w := s.join(ctx, form.Text)
	defer s.leave(form.Text, w)

	// led is only read after the result arrives on ch.
	var led bool
	ch := s.flight.DoChan(form.Text, func() (interface{}, error) {
		led = true
		return s.lead(w.ctx, form), nil
	})

	select {
	case out := <-ch:
		fr := out.Val.(flightResult)
		switch {
		case fr.cached:
			s.metrics.RecordLookup(metrics.LookupHit)
		case led:
			s.metrics.RecordLookup(metrics.LookupMiss)
		default:
			s.metrics.RecordLookup(metrics.LookupShared)
			s.logger.Debug("Shared in-flight solver call", "key", form.Digest())
		}
		return fr.res
	case <-ctx.Done():
		s.metrics.RecordLookup(metrics.LookupMiss)
		s.logger.Warn("Gave up waiting for solver",
			"key", form.Digest(),
			"error", ctx.Err().Error(),
		)
		return result.Fallback(form.Text)
	}
}

// lead runs the shared work of one flight. It recovers its own panics since
// it does not run on any caller's goroutine.
func (s *Stabilizer) lead(ctx context.Context, form canon.Form) (fr flightResult) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("Solver call panicked",
				"key", form.Digest(),
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()),
			)
			fr = flightResult{res: result.Fallback(form.Text)}
		}
	}()

	// A caller that just finished may have filled the cache.
	if r, ok := s.store.Lookup(ctx, form.Text); ok {
		return flightResult{res: r, cached: true}
	}
	return flightResult{res: s.compute(ctx, form)}
}

// join registers the caller as a waiter on key. The first waiter creates
// the flight context, detached from its own cancellation.
func (s *Stabilizer) join(ctx context.Context, key string) *waiters {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.waiting[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		w = &waiters{ctx: fctx, cancel: cancel}
		s.waiting[key] = w
	}
	w.n++
	return w
}

// leave drops a waiter. The last one out cancels the flight and forgets it,
// so a later caller starts a fresh solver call instead of joining a
// cancelled one.
func (s *Stabilizer) leave(key string, w *waiters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.n--
	if w.n > 0 {
		return
	}
	w.cancel()
	if s.waiting[key] == w {
		delete(s.waiting, key)
	}
	s.flight.Forget(key)
}

// compute invokes the solver and caches the verdict when it is usable.
func (s *Stabilizer) compute(ctx context.Context, form canon.Form) result.StabilizerResult[string] {
	out := s.solver.Invoke(ctx, form)

	outcome := "ok"
	if !out.OK() {
		outcome = out.Failure.String()
	}
	s.metrics.RecordSolverCall(outcome, out.Duration)

	if !out.OK() {
		return out.Result
	}

	if _, err := canon.FromCanonical(out.Result.CmdOut, form.Vars); err != nil {
		s.logger.Warn("Solver output is not translatable, not caching",
			"key", form.Digest(),
			"output", out.Result.CmdOut,
			"error", err.Error(),
		)
		return result.Fallback(form.Text)
	}

	s.store.Insert(ctx, out.Result)
	s.logger.Info("Solver result cached",
		"key", form.Digest(),
		"errin", out.Result.ErrIn,
		"errout", out.Result.ErrOut,
		"duration", out.Duration,
	)
	return out.Result
}

// translate maps a canonical-text verdict back onto e's variables.
func (s *Stabilizer) translate(e expr.Expr, form canon.Form, r result.StabilizerResult[string]) result.StabilizerResult[expr.Expr] {
	if r.Unknown() {
		return result.Fallback(e)
	}

	out, err := canon.FromCanonical(r.CmdOut, form.Vars)
	if err != nil {
		s.logger.Warn("Cached output is not translatable, passing expression through unchanged",
			"key", form.Digest(),
			"output", r.CmdOut,
			"error", err.Error(),
		)
		return result.Fallback(e)
	}

	return result.StabilizerResult[expr.Expr]{
		CmdIn:  e,
		CmdOut: out,
		ErrIn:  r.ErrIn,
		ErrOut: r.ErrOut,
	}
}

func status(r result.StabilizerResult[expr.Expr]) string {
	switch {
	case r.Unknown():
		return metrics.StatusUnknown
	case r.Improved():
		return metrics.StatusImproved
	default:
		return metrics.StatusUnchanged
	}
}
