package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// VariableGraphScan implements GRAPH ?g { ... } (spec.md §4.4): it binds the
// graph variable to each named graph's IRI in turn and evaluates the inner
// pattern against that graph, alternating the way UnionScan alternates over
// branches. The default graph is never matched by a variable GRAPH clause
// (spec.md §4.4 invariant).
//
// The candidate name set comes from namesFn rather than a bare store.Store,
// so the driver can restrict it to a dataset's FROM NAMED graphs (spec.md §9
// REDESIGN FLAG (c)); a driver with no FROM NAMED simply supplies a namesFn
// wrapping store.Store.GraphNames.
type VariableGraphScan struct {
	namesFn func(ctx context.Context) ([]string, error)
	graphFn func(ctx context.Context, name string) (store.Graph, error)
	varName string
	build   func(g store.Graph) Factory

	started    bool
	checkpoint int
	names      []string
	idx        int
	current    Scan
}

// NewVariableGraphScan returns a scan for GRAPH ?varName { ... }. build
// constructs the inner pattern's Factory scoped to one concrete graph. The
// set of graph names is resolved lazily on the first Next call, keeping
// construction itself context-free like every other Factory.
func NewVariableGraphScan(namesFn func(ctx context.Context) ([]string, error), graphFn func(ctx context.Context, name string) (store.Graph, error), varName string, build func(g store.Graph) Factory) *VariableGraphScan {
	return &VariableGraphScan{namesFn: namesFn, graphFn: graphFn, varName: varName, build: build}
}

func (v *VariableGraphScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if !v.started {
		v.started = true
		v.checkpoint = tbl.Checkpoint()
		v.idx = 0
		names, err := v.namesFn(ctx)
		if err != nil {
			return false, err
		}
		v.names = names
	}

	for v.idx < len(v.names) {
		if v.current == nil {
			tbl.Truncate(v.checkpoint)
			name := v.names[v.idx]
			if !bindTerm(rdf.NewVariable(v.varName), rdf.NewIRI(name), tbl) {
				v.idx++
				continue
			}
			g, err := v.graphFn(ctx, name)
			if err != nil {
				return false, err
			}
			v.current = v.build(g)()
		}
		ok, err := v.current.Next(ctx, tbl)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		v.current.Close()
		v.current = nil
		v.idx++
	}
	tbl.Truncate(v.checkpoint)
	return false, nil
}

func (v *VariableGraphScan) Close() {
	if v.current != nil {
		v.current.Close()
	}
}
