package driver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/cancel"
	"github.com/badwolf-labs/sparqlcore/engine/plan"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// bnodeState tracks the per-row BNODE(name) label cache spec.md §4.9
// requires: the same name must resolve to the same label for every call
// within one solution, and to a fresh label once the solution changes.
//
// A row's identity here is approximated by the set of bindings already
// established at each call: as long as every binding seen at an earlier
// NextBlankNodeLabel call is still present with the same value, later calls
// are treated as the same row (a later BIND/FILTER position only ever adds
// bindings on top of what came before it, never changes one). Any binding
// disappearing or changing value means the scan tree backtracked into a
// genuinely different candidate solution, so the cache is dropped.
type bnodeState struct {
	snapshot binding.Row
	labels   map[string]string
}

func (s *bnodeState) next(tbl *binding.Table, name string) string {
	cur := tbl.Snapshot()
	for k, v := range s.snapshot {
		if cv, ok := cur[k]; !ok || !cv.Equal(v) {
			s.snapshot = nil
			s.labels = nil
			break
		}
	}
	if s.labels == nil {
		s.labels = make(map[string]string)
	}
	if lbl, ok := s.labels[name]; ok {
		s.snapshot = cur
		return lbl
	}
	lbl := "b" + uuid.NewString()
	s.labels[name] = lbl
	s.snapshot = cur
	return lbl
}

// rowEnv implements expr.Env against the driver's live binding table,
// closing over whatever the current query execution needs to run a nested
// EXISTS pattern: the graph/store scope and the cancellation token the rest
// of the scan tree already shares.
type rowEnv struct {
	ctx    context.Context
	tbl    *binding.Table
	now    time.Time
	g      store.Graph
	st     store.Store
	tok    cancel.Token
	hooks  plan.Hooks
	bnodes *bnodeState
}

func (e *rowEnv) Lookup(name string) (rdf.Term, bool) {
	return e.tbl.Lookup(name)
}

func (e *rowEnv) Now() time.Time {
	return e.now
}

func (e *rowEnv) NextBlankNodeLabel(name string) string {
	return e.bnodes.next(e.tbl, name)
}

// ExistsMatch evaluates pattern against the current row's bindings held
// fixed: it compiles pattern the same way the outer query was compiled and
// asks for a single solution, then rolls the table back so the EXISTS check
// never leaks bindings into the caller's scope (spec.md §4.8).
func (e *rowEnv) ExistsMatch(pattern *query.GraphPattern) (bool, error) {
	cp := e.tbl.Checkpoint()
	defer e.tbl.Truncate(cp)

	f, err := plan.Compile(e.ctx, pattern, e.g, e.st, e.tok, e.hooks)
	if err != nil {
		return false, err
	}
	s := f()
	defer s.Close()
	return s.Next(e.ctx, e.tbl)
}
