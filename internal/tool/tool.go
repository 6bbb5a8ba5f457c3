// Package tool defines the executor boundary between the job core and the
// statistical routines that do the actual work.
package tool

import (
	"context"

	"statplane/internal/ledger"
)

// ProgressFunc reports fractional completion. Executors should call it with
// non-decreasing fractions in [0, 1]; the core clamps but does not enforce
// monotonicity.
type ProgressFunc func(fraction float64, message string)

// Token is the cooperative cancellation handle threaded through Execute.
// Long-running executors should check Cancelled between units of work, or
// select on Done. An executor that never checks may run to completion; the
// core still discards its output once cancellation was requested.
type Token struct {
	ctx context.Context
}

// NewToken wraps a context as a cancellation token.
func NewToken(ctx context.Context) Token {
	return Token{ctx: ctx}
}

// Cancelled reports whether cancellation has been requested.
func (t Token) Cancelled() bool {
	return t.ctx != nil && t.ctx.Err() != nil
}

// Done returns a channel closed on cancellation, for use in select loops.
func (t Token) Done() <-chan struct{} {
	if t.ctx == nil {
		return nil
	}
	return t.ctx.Done()
}

// Output is what a successful execution produces: the full result kept on
// the UI side of the boundary, and the raw summary seed handed to the
// projector. The seed is the only path to the orchestrator and is sanitized
// before leaving the core.
type Output struct {
	Full *ledger.FullResult
	Seed map[string]any
}

// Executor is a single statistical routine.
//
// Validate runs on the submit path and must be fast; it rejects malformed
// parameters before a job is created. Execute runs on a worker goroutine
// and may block; it must not panic for expected invalid input, but an
// unexpected failure (error or panic) is converted by the core to a failed
// job and never reaches the submitter.
type Executor interface {
	// Name is the identifier jobs are submitted against.
	Name() string

	// Describe returns a short human-readable description.
	Describe() string

	// Validate checks the parameters without running the work.
	Validate(params Params) error

	// Execute performs the work, reporting progress through report and
	// checking tok for cooperative cancellation.
	Execute(params Params, report ProgressFunc, tok Token) (*Output, error)
}
