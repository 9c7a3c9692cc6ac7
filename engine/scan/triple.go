package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/cancel"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// TriplePatternScan evaluates one plain (no property path) triple pattern
// against a single graph, grounded on the teacher's simpleFetch
// (bql/planner/data_access.go): resolve the pattern's bound components from
// the table, ask the store for only the matching quads, then stream
// solutions one at a time instead of materializing a whole bql.Table.
type TriplePatternScan struct {
	g       store.Graph
	pattern query.TriplePattern
	cancel  cancel.Token

	started    bool
	checkpoint int
	ch         store.Quads
}

// NewTriplePatternScan returns a scan for pattern against g. pattern.Path
// must be nil; use NewPropertyPathScan for path patterns.
func NewTriplePatternScan(g store.Graph, pattern query.TriplePattern, tok cancel.Token) *TriplePatternScan {
	return &TriplePatternScan{g: g, pattern: pattern, cancel: tok}
}

func (s *TriplePatternScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if err := s.cancel.Check(); err != nil {
		return false, err
	}
	if s.started {
		tbl.Truncate(s.checkpoint)
	} else {
		s.checkpoint = tbl.Checkpoint()
		s.started = true

		sTerm, sBound := resolveTerm(s.pattern.S, tbl)
		pTerm, pBound := resolveTerm(s.pattern.P, tbl)
		oTerm, oBound := resolveTerm(s.pattern.O, tbl)
		if !sBound {
			sTerm = rdf.Term{}
		}
		if !pBound {
			pTerm = rdf.Term{}
		}
		if !oBound {
			oTerm = rdf.Term{}
		}
		ch, err := s.g.Match(ctx, sTerm, pTerm, oTerm, store.DefaultLookup)
		if err != nil {
			return false, err
		}
		s.ch = ch
	}

	for {
		q, ok := <-s.ch
		if !ok {
			return false, nil
		}
		if bindTerm(s.pattern.S, q.S(), tbl) &&
			bindTerm(s.pattern.P, q.P(), tbl) &&
			bindTerm(s.pattern.O, q.O(), tbl) {
			return true, nil
		}
		tbl.Truncate(s.checkpoint)
	}
}

func (s *TriplePatternScan) Close() {}
