package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/cancel"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// pair is one (subject, object) solution a property path produces.
type pair struct{ s, o rdf.Term }

// PropertyPathScan evaluates a TriplePattern whose predicate carries a
// PropertyPath annotation (spec.md §4.3's path operators), generalizing the
// teacher's plain-predicate simpleFetch with a BFS closure over the graph's
// adjacency for the *, +, and ? repetition operators and a subject/object
// swap for the inverse operator. There is no teacher analogue for this —
// BQL has no property-path syntax — so the BFS/cycle-avoidance structure is
// grounded instead on the general graph-traversal idiom the teacher's own
// Match-style indexed lookups (storage/memory/memory.go's idxS/idxO) make
// straightforward: each BFS step is one more Match call.
type PropertyPathScan struct {
	g       store.Graph
	pattern query.TriplePattern
	cancel  cancel.Token

	started    bool
	checkpoint int
	pairs      []pair
	next       int
}

// NewPropertyPathScan returns a scan for pattern, whose pattern.Path must be
// non-nil.
func NewPropertyPathScan(g store.Graph, pattern query.TriplePattern, tok cancel.Token) *PropertyPathScan {
	return &PropertyPathScan{g: g, pattern: pattern, cancel: tok}
}

func (s *PropertyPathScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if err := s.cancel.Check(); err != nil {
		return false, err
	}
	if s.started {
		tbl.Truncate(s.checkpoint)
	} else {
		s.checkpoint = tbl.Checkpoint()
		s.started = true

		sTerm, sBound := resolveTerm(s.pattern.S, tbl)
		oTerm, oBound := resolveTerm(s.pattern.O, tbl)
		pairs, err := evalPath(ctx, s.g, *s.pattern.Path, sTerm, sBound, oTerm, oBound)
		if err != nil {
			return false, err
		}
		s.pairs = pairs
		s.next = 0
	}

	for s.next < len(s.pairs) {
		p := s.pairs[s.next]
		s.next++
		if bindTerm(s.pattern.S, p.s, tbl) && bindTerm(s.pattern.O, p.o, tbl) {
			return true, nil
		}
		tbl.Truncate(s.checkpoint)
	}
	return false, nil
}

func (s *PropertyPathScan) Close() {}

// neighbors returns every node reachable from x by one pred hop, in the
// given direction (forward: x is subject, looking for objects; !forward:
// x is object, looking for subjects).
func neighbors(ctx context.Context, g store.Graph, pred rdf.Term, x rdf.Term, forward bool) ([]rdf.Term, error) {
	var ch store.Quads
	var err error
	if forward {
		ch, err = g.Match(ctx, x, pred, rdf.Term{}, store.DefaultLookup)
	} else {
		ch, err = g.Match(ctx, rdf.Term{}, pred, x, store.DefaultLookup)
	}
	if err != nil {
		return nil, err
	}
	var out []rdf.Term
	for q := range ch {
		if forward {
			out = append(out, q.O())
		} else {
			out = append(out, q.S())
		}
	}
	return out, nil
}

// allSeeds returns every distinct node that appears as a subject (forward)
// or object (!forward) of some pred edge, used when neither path endpoint
// is bound.
func allSeeds(ctx context.Context, g store.Graph, pred rdf.Term, forward bool) ([]rdf.Term, error) {
	ch, err := g.Match(ctx, rdf.Term{}, pred, rdf.Term{}, store.DefaultLookup)
	if err != nil {
		return nil, err
	}
	seen := map[rdf.Term]bool{}
	var out []rdf.Term
	for q := range ch {
		x := q.S()
		if !forward {
			x = q.O()
		}
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out, nil
}

// bfsClosure returns every node reachable from start via one-or-more pred
// hops in the given direction, with cycle avoidance (spec.md §4.3).
func bfsClosure(ctx context.Context, g store.Graph, pred rdf.Term, start rdf.Term, forward bool) ([]rdf.Term, error) {
	visited := map[rdf.Term]bool{start: true}
	var reached []rdf.Term
	frontier := []rdf.Term{start}
	for len(frontier) > 0 {
		var next []rdf.Term
		for _, x := range frontier {
			ns, err := neighbors(ctx, g, pred, x, forward)
			if err != nil {
				return nil, err
			}
			for _, n := range ns {
				if !visited[n] {
					visited[n] = true
					reached = append(reached, n)
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return reached, nil
}

// evalPath enumerates the (s, o) pairs a property path produces given which
// endpoints are already bound.
func evalPath(ctx context.Context, g store.Graph, path query.PropertyPath, sTerm rdf.Term, sBound bool, oTerm rdf.Term, oBound bool) ([]pair, error) {
	pred := path.Pred
	switch path.Kind {
	case query.PathInverse:
		// ^p is p with subject/object swapped.
		sub, err := evalDirect(ctx, g, pred, oTerm, oBound, sTerm, sBound)
		if err != nil {
			return nil, err
		}
		out := make([]pair, len(sub))
		for i, p := range sub {
			out[i] = pair{s: p.o, o: p.s}
		}
		return out, nil

	case query.PathZeroOrOne:
		direct, err := evalDirect(ctx, g, pred, sTerm, sBound, oTerm, oBound)
		if err != nil {
			return nil, err
		}
		out := append([]pair{}, direct...)
		switch {
		case sBound && oBound:
			if sTerm.Equal(oTerm) {
				out = append(out, pair{s: sTerm, o: oTerm})
			}
		case sBound:
			out = append(out, pair{s: sTerm, o: sTerm})
		case oBound:
			out = append(out, pair{s: oTerm, o: oTerm})
		default:
			seeds, err := allSeeds(ctx, g, pred, true)
			if err != nil {
				return nil, err
			}
			for _, x := range seeds {
				out = append(out, pair{s: x, o: x})
			}
		}
		return out, nil

	case query.PathOneOrMore:
		return evalClosure(ctx, g, pred, sTerm, sBound, oTerm, oBound, false)

	case query.PathZeroOrMore:
		plus, err := evalClosure(ctx, g, pred, sTerm, sBound, oTerm, oBound, false)
		if err != nil {
			return nil, err
		}
		out := append([]pair{}, plus...)
		switch {
		case sBound && oBound:
			if sTerm.Equal(oTerm) {
				out = append(out, pair{s: sTerm, o: oTerm})
			}
		case sBound:
			out = append(out, pair{s: sTerm, o: sTerm})
		case oBound:
			out = append(out, pair{s: oTerm, o: oTerm})
		default:
			seeds, err := allSeeds(ctx, g, pred, true)
			if err != nil {
				return nil, err
			}
			for _, x := range seeds {
				out = append(out, pair{s: x, o: x})
			}
		}
		return out, nil

	default:
		return evalDirect(ctx, g, pred, sTerm, sBound, oTerm, oBound)
	}
}

func evalDirect(ctx context.Context, g store.Graph, pred rdf.Term, sTerm rdf.Term, sBound bool, oTerm rdf.Term, oBound bool) ([]pair, error) {
	s := rdf.Term{}
	o := rdf.Term{}
	if sBound {
		s = sTerm
	}
	if oBound {
		o = oTerm
	}
	ch, err := g.Match(ctx, s, pred, o, store.DefaultLookup)
	if err != nil {
		return nil, err
	}
	var out []pair
	for q := range ch {
		out = append(out, pair{s: q.S(), o: q.O()})
	}
	return out, nil
}

func evalClosure(ctx context.Context, g store.Graph, pred rdf.Term, sTerm rdf.Term, sBound bool, oTerm rdf.Term, oBound bool, _ bool) ([]pair, error) {
	switch {
	case sBound && oBound:
		reached, err := bfsClosure(ctx, g, pred, sTerm, true)
		if err != nil {
			return nil, err
		}
		for _, x := range reached {
			if x.Equal(oTerm) {
				return []pair{{s: sTerm, o: oTerm}}, nil
			}
		}
		return nil, nil
	case sBound:
		reached, err := bfsClosure(ctx, g, pred, sTerm, true)
		if err != nil {
			return nil, err
		}
		out := make([]pair, len(reached))
		for i, x := range reached {
			out[i] = pair{s: sTerm, o: x}
		}
		return out, nil
	case oBound:
		reached, err := bfsClosure(ctx, g, pred, oTerm, false)
		if err != nil {
			return nil, err
		}
		out := make([]pair, len(reached))
		for i, x := range reached {
			out[i] = pair{s: x, o: oTerm}
		}
		return out, nil
	default:
		seeds, err := allSeeds(ctx, g, pred, true)
		if err != nil {
			return nil, err
		}
		var out []pair
		for _, x := range seeds {
			reached, err := bfsClosure(ctx, g, pred, x, true)
			if err != nil {
				return nil, err
			}
			for _, y := range reached {
				out = append(out, pair{s: x, o: y})
			}
		}
		return out, nil
	}
}
