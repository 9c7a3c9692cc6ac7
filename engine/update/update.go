// Package update implements the SPARQL 1.1 Update executor (spec.md §4.13):
// INSERT/DELETE DATA, DELETE WHERE, DELETE/INSERT ... WHERE, CLEAR/DROP/
// CREATE, COPY/MOVE/ADD, and LOAD. It generalizes bql/planner/planner.go's
// update() helper and specifyClauseWithTable's errgroup.WithContext fan-out
// from "apply one table's worth of outstanding changes" to "apply a batch of
// quads across one or more named graphs."
package update

import (
	"context"
	"fmt"

	"github.com/badwolf-labs/sparqlcore/engine/driver"
	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// UpdateResult reports the outcome of one update operation (spec.md §6).
type UpdateResult struct {
	Success       bool
	AffectedCount int64
	ErrorMessage  string
}

// Loader executes LOAD <uri> [INTO GRAPH ...] (spec.md §6): it fetches
// sourceURI's RDF content and adds it to targetGraph (DefaultGraphID for a
// bare LOAD), returning how many quads it added. The update package never
// implements a concrete Loader itself — fetching and parsing RDF from a URI
// is a driver concern, supplied by the caller — so Executor can run standing
// alone against an in-memory store for every other update form with Loader
// left nil.
type Loader interface {
	Load(ctx context.Context, sourceURI, targetGraph string, st store.Store) (UpdateResult, error)
}

// Executor applies parsed update statements against a store, delegating
// pattern evaluation for DELETE WHERE / DELETE/INSERT ... WHERE to a
// engine/driver.Executor (reusing its dataset resolution and scan/plan
// machinery via RunPattern rather than duplicating it here).
type Executor struct {
	Store  store.Store
	Driver *driver.Executor
	Loader Loader
}

// NewExecutor returns an Executor. loader may be nil; LOAD then always fails
// (or, under SILENT, succeeds with zero affected quads).
func NewExecutor(st store.Store, drv *driver.Executor, loader Loader) *Executor {
	return &Executor{Store: st, Driver: drv, Loader: loader}
}

func fail(silent bool, err error) (UpdateResult, error) {
	if silent {
		return UpdateResult{Success: true}, nil
	}
	return UpdateResult{Success: false, ErrorMessage: err.Error()}, nil
}

// ensureGraph returns the graph named id, creating it first if it does not
// yet exist — store.Store.Graph errors on an absent named graph rather than
// auto-creating it (store/memory/memory.go), but most update forms (INSERT
// DATA into a brand new named graph, COPY/MOVE/ADD's destination) are
// specified to bring their target graph into existence as needed.
func ensureGraph(ctx context.Context, st store.Store, id string) (store.Graph, error) {
	g, err := st.Graph(ctx, id)
	if err == nil {
		return g, nil
	}
	if id == store.DefaultGraphID {
		return nil, err
	}
	return st.NewGraph(ctx, id)
}

func drainAll(ctx context.Context, g store.Graph) ([]quad.Quad, error) {
	ch, err := g.Quads(ctx)
	if err != nil {
		return nil, err
	}
	var out []quad.Quad
	for q := range ch {
		out = append(out, q)
	}
	return out, nil
}

func groupByGraph(qs []query.QuadLiteral) map[string][]query.QuadLiteral {
	byGraph := map[string][]query.QuadLiteral{}
	for _, q := range qs {
		byGraph[q.G.Value()] = append(byGraph[q.G.Value()], q)
	}
	return byGraph
}

// ExecuteInsertData applies INSERT DATA { ... } (spec.md §4.13): every
// ground quad is added to its own graph (the default graph for quads with no
// GRAPH wrapper), creating a named graph on demand.
func (e *Executor) ExecuteInsertData(ctx context.Context, stmt *query.InsertDataStatement) (UpdateResult, error) {
	var affected int64
	for gid, lits := range groupByGraph(stmt.Quads) {
		g, err := ensureGraph(ctx, e.Store, gid)
		if err != nil {
			return fail(false, fmt.Errorf("update.ExecuteInsertData: %w", err))
		}
		quads := make([]quad.Quad, 0, len(lits))
		for _, ql := range lits {
			q, err := quad.New(ql.S, ql.P, ql.O, ql.G)
			if err != nil {
				return fail(false, fmt.Errorf("update.ExecuteInsertData: %w", err))
			}
			quads = append(quads, q)
		}
		if err := g.AddQuads(ctx, quads); err != nil {
			return fail(false, fmt.Errorf("update.ExecuteInsertData: %w", err))
		}
		affected += int64(len(quads))
	}
	return UpdateResult{Success: true, AffectedCount: affected}, nil
}

// ExecuteDeleteData applies DELETE DATA { ... }: a graph that does not exist
// simply contributes nothing to delete, since removing a quad from a graph
// that was never created is indistinguishable from removing an absent quad
// (store.Batch.RemoveQuads is itself a no-op for that case).
func (e *Executor) ExecuteDeleteData(ctx context.Context, stmt *query.DeleteDataStatement) (UpdateResult, error) {
	var affected int64
	for gid, lits := range groupByGraph(stmt.Quads) {
		g, err := e.Store.Graph(ctx, gid)
		if err != nil {
			continue
		}
		quads := make([]quad.Quad, 0, len(lits))
		for _, ql := range lits {
			q, err := quad.New(ql.S, ql.P, ql.O, ql.G)
			if err != nil {
				return fail(false, fmt.Errorf("update.ExecuteDeleteData: %w", err))
			}
			quads = append(quads, q)
		}
		if err := g.RemoveQuads(ctx, quads); err != nil {
			return fail(false, fmt.Errorf("update.ExecuteDeleteData: %w", err))
		}
		affected += int64(len(quads))
	}
	return UpdateResult{Success: true, AffectedCount: affected}, nil
}

// ExecuteLoad applies LOAD <uri> [INTO GRAPH ?g] [SILENT] by delegating to
// the configured Loader.
func (e *Executor) ExecuteLoad(ctx context.Context, stmt *query.LoadStatement) (UpdateResult, error) {
	if e.Loader == nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteLoad: no loader configured"))
	}
	target := store.DefaultGraphID
	if stmt.HasInto {
		target = stmt.IntoGraph.Value()
	}
	res, err := e.Loader.Load(ctx, stmt.Source.Value(), target, e.Store)
	if err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteLoad: %w", err))
	}
	return res, nil
}

// resolveTargets expands a GraphTarget into the concrete graphs it denotes:
// TargetDefault is the one default graph, TargetGraph a single named graph
// (created on demand), TargetNamed every currently known named graph, and
// TargetAll the default graph plus every named graph (spec.md §4.13).
func resolveTargets(ctx context.Context, st store.Store, t query.GraphTarget) ([]store.Graph, error) {
	switch t.Kind {
	case query.TargetDefault:
		g, err := st.Graph(ctx, store.DefaultGraphID)
		if err != nil {
			return nil, err
		}
		return []store.Graph{g}, nil
	case query.TargetGraph:
		g, err := ensureGraph(ctx, st, t.IRI.Value())
		if err != nil {
			return nil, err
		}
		return []store.Graph{g}, nil
	case query.TargetNamed:
		names, err := st.GraphNames(ctx)
		if err != nil {
			return nil, err
		}
		gs := make([]store.Graph, 0, len(names))
		for _, n := range names {
			g, err := st.Graph(ctx, n)
			if err != nil {
				return nil, err
			}
			gs = append(gs, g)
		}
		return gs, nil
	case query.TargetAll:
		named, err := resolveTargets(ctx, st, query.GraphTarget{Kind: query.TargetNamed})
		if err != nil {
			return nil, err
		}
		def, err := resolveTargets(ctx, st, query.GraphTarget{Kind: query.TargetDefault})
		if err != nil {
			return nil, err
		}
		return append(def, named...), nil
	default:
		return nil, fmt.Errorf("update.resolveTargets: unknown graph target kind %d", t.Kind)
	}
}

func resolveOne(ctx context.Context, st store.Store, t query.GraphTarget) (store.Graph, error) {
	gs, err := resolveTargets(ctx, st, t)
	if err != nil {
		return nil, err
	}
	if len(gs) != 1 {
		return nil, fmt.Errorf("update.resolveOne: target resolved to %d graphs, want exactly 1", len(gs))
	}
	return gs[0], nil
}

func sameTarget(a, b query.GraphTarget) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == query.TargetGraph {
		return a.IRI.Equal(b.IRI)
	}
	return true
}

// graphTermFor returns the rdf.Term a quad stored in graph id should carry in
// its graph position (the zero term for the default graph, an IRI term
// otherwise).
func graphTermFor(id string) rdf.Term {
	if id == store.DefaultGraphID {
		return rdf.Term{}
	}
	return rdf.NewIRI(id)
}
