// Package cancel implements the cooperative cancellation token the
// triple-pattern and property-path scans check at the head of each Next call
// (spec.md §5, §4.13's Cancellation component).
package cancel

import (
	"context"
	"errors"
)

// ErrCancelled is the sentinel surfaced once a query's token has been set.
// It is always surfaced to the caller, never swallowed (spec.md §7).
var ErrCancelled = errors.New("engine/cancel: query execution cancelled")

// Token is a per-execution cancellation signal. A zero Token is usable and
// never cancelled; construct one via New to allow cancellation.
type Token struct {
	ctx context.Context
}

// New returns a Token backed by ctx. Cancelling ctx (or it expiring) marks
// the token cancelled.
func New(ctx context.Context) Token {
	if ctx == nil {
		ctx = context.Background()
	}
	return Token{ctx: ctx}
}

// Check returns ErrCancelled if the token has been cancelled, nil otherwise.
// TriplePatternScan and PropertyPathScan call this at the head of each Next.
// The other scans (join levels, OPTIONAL, UNION, VALUES, GRAPH, row replay)
// do not call it themselves; they see cancellation only through the pattern
// scans they contain.
func (t Token) Check() error {
	if t.ctx == nil {
		return nil
	}
	select {
	case <-t.ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

// Done reports whether the token has been cancelled, without allocating an
// error value; useful in hot loops that only need a boolean.
func (t Token) Done() bool {
	if t.ctx == nil {
		return false
	}
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}
