package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/cancel"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/store"
)

// Factory builds a fresh Scan for one join position. A JoinScan calls it
// again every time that position must restart against a new upstream
// binding, since a position's Match call depends on whatever its pattern's
// variables resolve to at construction time.
type Factory func() Scan

// JoinScan is the arbitrary-depth nested-loop join spec.md's redesign notes
// call for (generalizing the teacher's queryPlan, which only ever joined
// exactly the clauses of one BQL WHERE against precomputed tables): an
// ordered list of child factories, advanced depth-first with backtracking.
// Position i+1 is only constructed after position i has produced a binding,
// so later patterns see earlier patterns' bindings when they resolve their
// own variables (spec.md §4.3 step 2's left-to-right evaluation order).
type JoinScan struct {
	factories []Factory
	current   []Scan
	cursor    int
	started   bool
	emptyDone bool
}

// NewJoinScan returns a join over factories, evaluated in order.
func NewJoinScan(factories []Factory) *JoinScan {
	return &JoinScan{factories: factories, current: make([]Scan, len(factories))}
}

func (j *JoinScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	n := len(j.factories)
	if n == 0 {
		if j.emptyDone {
			return false, nil
		}
		j.emptyDone = true
		return true, nil
	}

	if !j.started {
		j.started = true
		j.cursor = 0
	} else {
		j.cursor = n - 1
	}

	for j.cursor >= 0 {
		if j.current[j.cursor] == nil {
			j.current[j.cursor] = j.factories[j.cursor]()
		}
		ok, err := j.current[j.cursor].Next(ctx, tbl)
		if err != nil {
			return false, err
		}
		if ok {
			if j.cursor == n-1 {
				return true, nil
			}
			j.cursor++
			continue
		}
		j.current[j.cursor].Close()
		j.current[j.cursor] = nil
		j.cursor--
	}
	return false, nil
}

func (j *JoinScan) Close() {
	for _, c := range j.current {
		if c != nil {
			c.Close()
		}
	}
}

// NewMultiPatternScan builds a JoinScan over a list of plain/path triple
// patterns against one graph, in the given order (spec.md §4.3 step 2;
// join-order selection is engine/plan's job, not scan's).
func NewMultiPatternScan(g store.Graph, patterns []query.TriplePattern, tok cancel.Token) *JoinScan {
	factories := make([]Factory, len(patterns))
	for i, p := range patterns {
		p := p
		factories[i] = func() Scan {
			if p.Path != nil {
				return NewPropertyPathScan(g, p, tok)
			}
			return NewTriplePatternScan(g, p, tok)
		}
	}
	return NewJoinScan(factories)
}
