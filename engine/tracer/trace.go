// Package tracer implements the leveled, lazily-evaluated trace sink
// engine/driver reports state transitions through; engine/plan and
// engine/scan do not trace. Generalized from the teacher's
// bql/planner/tracer package: same leveled-verbosity, background-drain
// design, but a trace call also carries the query's own cancel.Token, since
// a cancelled query's outstanding trace messages are no longer worth
// queueing or writing — engine/cancel is the one signal every scan and the
// driver already thread through their hot loops, so Trace reuses it instead
// of inventing its own shutdown signal.
package tracer

import (
	"io"
	"time"

	"github.com/badwolf-labs/sparqlcore/engine/cancel"
)

type event struct {
	w    io.Writer
	t    time.Time
	msgs func() []string
}

// MessageTracer encapsulates the intrinsic verbosity of a given trace message.
type MessageTracer struct {
	verbosity int
}

// verbosity is the global tracer verbosity. 1 is minimum (only the most
// important messages trace), 3 is maximum.
var verbosity int

var events chan *event

func init() {
	verbosity = 1
	events = make(chan *event, 10000)
	go func() {
		for e := range events {
			for _, msg := range e.msgs() {
				e.w.Write([]byte("["))
				e.w.Write([]byte(e.t.Format(time.RFC3339Nano)))
				e.w.Write([]byte("] "))
				e.w.Write([]byte(msg))
				e.w.Write([]byte("\n"))
			}
		}
	}()
}

// SetVerbosity sets the global tracer verbosity, clamped to [1, 3]. Returns
// the value actually set.
func SetVerbosity(v int) int {
	if v < 1 {
		v = 1
	} else if v > 3 {
		v = 3
	}
	verbosity = v
	return verbosity
}

// V returns a MessageTracer at the given verbosity, clamped to [1, 3].
func V(v int) MessageTracer {
	if v < 1 {
		v = 1
	} else if v > 3 {
		v = 3
	}
	return MessageTracer{v}
}

func (t MessageTracer) isTraceable() bool { return t.verbosity <= verbosity }

// Trace emits a trace event if w is non-nil, tok has not been cancelled, and
// the current global verbosity is at least t's. The message closure is only
// invoked by the background drain goroutine, so callers pay nothing when
// tracing is off, and a cancelled query's trace messages are dropped at the
// call site rather than formatted and written after the caller has already
// moved on.
func (t MessageTracer) Trace(w io.Writer, tok cancel.Token, msgs func() []string) {
	if w == nil || !t.isTraceable() || tok.Done() {
		return
	}
	events <- &event{w, time.Now(), msgs}
}
