// Package memory provides a volatile in-memory implementation of
// store.Store and store.Graph, generalizing the teacher's
// storage/memory/memory.go six-index design (idx/idxS/idxP/idxO/idxSP/idxPO
// /idxSO keyed by triple.Triple.GUID-derived strings) to quads keyed
// directly by the comparable rdf.Term and quad.Quad struct values
// themselves — Go's native struct comparability stands in for the teacher's
// manual GUID string keys.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// DefaultStore is a ready-to-use volatile in-memory store, created with its
// default graph already present.
var DefaultStore store.Store

func init() {
	DefaultStore = NewStore()
}

type memStore struct {
	mu     sync.RWMutex
	graphs map[string]*graph
}

// NewStore returns a new, empty memory-backed store with its default graph
// pre-created.
func NewStore() store.Store {
	s := &memStore{graphs: make(map[string]*graph)}
	s.graphs[store.DefaultGraphID] = newGraph(store.DefaultGraphID)
	return s
}

func (s *memStore) Name() string    { return "MEMORY_STORE" }
func (s *memStore) Version() string { return "1.0" }

func (s *memStore) NewGraph(ctx context.Context, id string) (store.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[id]; ok {
		return nil, fmt.Errorf("memory.NewGraph(%q): graph already exists", id)
	}
	g := newGraph(id)
	s.graphs[id] = g
	return g, nil
}

func (s *memStore) Graph(ctx context.Context, id string) (store.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("memory.Graph(%q): graph does not exist", id)
	}
	return g, nil
}

func (s *memStore) GraphNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for id := range s.graphs {
		if id == store.DefaultGraphID {
			continue
		}
		names = append(names, id)
	}
	return names, nil
}

func (s *memStore) DeleteGraph(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[id]; !ok {
		return fmt.Errorf("memory.DeleteGraph(%q): graph does not exist", id)
	}
	delete(s.graphs, id)
	return nil
}

type termPair [2]rdf.Term

type graph struct {
	id string

	mu    sync.RWMutex
	all   map[quad.Quad]struct{}
	idxS  map[rdf.Term]map[quad.Quad]struct{}
	idxP  map[rdf.Term]map[quad.Quad]struct{}
	idxO  map[rdf.Term]map[quad.Quad]struct{}
	idxSP map[termPair]map[quad.Quad]struct{}
	idxPO map[termPair]map[quad.Quad]struct{}
	idxSO map[termPair]map[quad.Quad]struct{}
}

func newGraph(id string) *graph {
	return &graph{
		id:    id,
		all:   make(map[quad.Quad]struct{}),
		idxS:  make(map[rdf.Term]map[quad.Quad]struct{}),
		idxP:  make(map[rdf.Term]map[quad.Quad]struct{}),
		idxO:  make(map[rdf.Term]map[quad.Quad]struct{}),
		idxSP: make(map[termPair]map[quad.Quad]struct{}),
		idxPO: make(map[termPair]map[quad.Quad]struct{}),
		idxSO: make(map[termPair]map[quad.Quad]struct{}),
	}
}

func (g *graph) ID(ctx context.Context) string { return g.id }

func index1(m map[rdf.Term]map[quad.Quad]struct{}, k rdf.Term, q quad.Quad) {
	if m[k] == nil {
		m[k] = make(map[quad.Quad]struct{})
	}
	m[k][q] = struct{}{}
}

func index2(m map[termPair]map[quad.Quad]struct{}, k termPair, q quad.Quad) {
	if m[k] == nil {
		m[k] = make(map[quad.Quad]struct{})
	}
	m[k][q] = struct{}{}
}

func unindex1(m map[rdf.Term]map[quad.Quad]struct{}, k rdf.Term, q quad.Quad) {
	delete(m[k], q)
	if len(m[k]) == 0 {
		delete(m, k)
	}
}

func unindex2(m map[termPair]map[quad.Quad]struct{}, k termPair, q quad.Quad) {
	delete(m[k], q)
	if len(m[k]) == 0 {
		delete(m, k)
	}
}

func (g *graph) AddQuads(ctx context.Context, qs []quad.Quad) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, q := range qs {
		if _, ok := g.all[q]; ok {
			continue
		}
		g.all[q] = struct{}{}
		s, p, o := q.S(), q.P(), q.O()
		index1(g.idxS, s, q)
		index1(g.idxP, p, q)
		index1(g.idxO, o, q)
		index2(g.idxSP, termPair{s, p}, q)
		index2(g.idxPO, termPair{p, o}, q)
		index2(g.idxSO, termPair{s, o}, q)
	}
	return nil
}

func (g *graph) RemoveQuads(ctx context.Context, qs []quad.Quad) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, q := range qs {
		if _, ok := g.all[q]; !ok {
			continue
		}
		delete(g.all, q)
		s, p, o := q.S(), q.P(), q.O()
		unindex1(g.idxS, s, q)
		unindex1(g.idxP, p, q)
		unindex1(g.idxO, o, q)
		unindex2(g.idxSP, termPair{s, p}, q)
		unindex2(g.idxPO, termPair{p, o}, q)
		unindex2(g.idxSO, termPair{s, o}, q)
	}
	return nil
}

func (g *graph) Exist(ctx context.Context, q quad.Quad) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.all[q]
	return ok, nil
}

func (g *graph) Quads(ctx context.Context) (store.Quads, error) {
	g.mu.RLock()
	out := make(chan quad.Quad, len(g.all))
	for q := range g.all {
		out <- q
	}
	g.mu.RUnlock()
	close(out)
	return out, nil
}

func (g *graph) Count(ctx context.Context) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.all), nil
}

// Match picks the narrowest available index for the bound components of
// (s, p, o) — a zero rdf.Term marks a wildcard position — falling back to a
// full scan only when every component is unbound (spec.md §4.3 step 1).
func (g *graph) Match(ctx context.Context, s, p, o rdf.Term, lo *store.LookupOptions) (store.Quads, error) {
	if lo == nil {
		lo = store.DefaultLookup
	}
	bs, bp, bo := !s.IsZero(), !p.IsZero(), !o.IsZero()

	g.mu.RLock()
	var candidates map[quad.Quad]struct{}
	switch {
	case bs && bp:
		candidates = g.idxSP[termPair{s, p}]
	case bp && bo:
		candidates = g.idxPO[termPair{p, o}]
	case bs && bo:
		candidates = g.idxSO[termPair{s, o}]
	case bs:
		candidates = g.idxS[s]
	case bp:
		candidates = g.idxP[p]
	case bo:
		candidates = g.idxO[o]
	default:
		candidates = g.all
	}

	matches := make([]quad.Quad, 0, len(candidates))
	for q := range candidates {
		if bs && !q.S().Equal(s) {
			continue
		}
		if bp && !q.P().Equal(p) {
			continue
		}
		if bo && !q.O().Equal(o) {
			continue
		}
		matches = append(matches, q)
		if lo.MaxElements > 0 && len(matches) >= lo.MaxElements {
			break
		}
	}
	g.mu.RUnlock()

	out := make(chan quad.Quad, len(matches))
	for _, q := range matches {
		out <- q
	}
	close(out)
	return out, nil
}
