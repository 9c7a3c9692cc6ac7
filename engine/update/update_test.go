package update

import (
	"context"
	"testing"

	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
	"github.com/badwolf-labs/sparqlcore/store/memory"
)

func iri(s string) rdf.Term { return rdf.NewIRI(s) }

func countQuads(t *testing.T, ctx context.Context, g store.Graph) int {
	t.Helper()
	n, err := g.Count(ctx)
	if err != nil {
		t.Fatalf("graph.Count: %v", err)
	}
	return n
}

func TestExecuteInsertData(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	res, err := ex.ExecuteInsertData(ctx, &query.InsertDataStatement{
		Quads: []query.QuadLiteral{
			{S: iri("a"), P: iri("p"), O: iri("b")},
			{S: iri("a"), P: iri("p"), O: iri("c"), G: iri("g1")},
		},
	})
	if err != nil {
		t.Fatalf("ExecuteInsertData: %v", err)
	}
	if !res.Success || res.AffectedCount != 2 {
		t.Fatalf("ExecuteInsertData: got %+v, want success with 2 affected", res)
	}

	def, err := st.Graph(ctx, store.DefaultGraphID)
	if err != nil {
		t.Fatalf("Graph(default): %v", err)
	}
	if got := countQuads(t, ctx, def); got != 1 {
		t.Errorf("default graph count = %d, want 1", got)
	}
	g1, err := st.Graph(ctx, "g1")
	if err != nil {
		t.Fatalf("Graph(g1) should have been created by INSERT DATA: %v", err)
	}
	if got := countQuads(t, ctx, g1); got != 1 {
		t.Errorf("g1 count = %d, want 1", got)
	}
}

func TestExecuteDeleteData(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	if _, err := ex.ExecuteInsertData(ctx, &query.InsertDataStatement{
		Quads: []query.QuadLiteral{{S: iri("a"), P: iri("p"), O: iri("b")}},
	}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	res, err := ex.ExecuteDeleteData(ctx, &query.DeleteDataStatement{
		Quads: []query.QuadLiteral{{S: iri("a"), P: iri("p"), O: iri("b")}},
	})
	if err != nil {
		t.Fatalf("ExecuteDeleteData: %v", err)
	}
	if !res.Success || res.AffectedCount != 1 {
		t.Fatalf("ExecuteDeleteData: got %+v, want success with 1 affected", res)
	}
	def, _ := st.Graph(ctx, store.DefaultGraphID)
	if got := countQuads(t, ctx, def); got != 0 {
		t.Errorf("default graph count = %d, want 0", got)
	}

	// Deleting a quad from a graph that was never created is a no-op, not
	// an error.
	res, err = ex.ExecuteDeleteData(ctx, &query.DeleteDataStatement{
		Quads: []query.QuadLiteral{{S: iri("x"), P: iri("y"), O: iri("z"), G: iri("never-created")}},
	})
	if err != nil || !res.Success {
		t.Fatalf("ExecuteDeleteData on absent graph: got (%+v, %v), want a silent success", res, err)
	}
}

func TestExecuteClearDrop(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	if _, err := ex.ExecuteInsertData(ctx, &query.InsertDataStatement{
		Quads: []query.QuadLiteral{
			{S: iri("a"), P: iri("p"), O: iri("b"), G: iri("g1")},
			{S: iri("a"), P: iri("p"), O: iri("c"), G: iri("g2")},
		},
	}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	res, err := ex.ExecuteClearDrop(ctx, &query.ClearDropStatement{
		Drop:   false,
		Target: query.GraphTarget{Kind: query.TargetGraph, IRI: iri("g1")},
	})
	if err != nil || !res.Success || res.AffectedCount != 1 {
		t.Fatalf("ExecuteClearDrop(CLEAR g1): got (%+v, %v)", res, err)
	}
	if _, err := st.Graph(ctx, "g1"); err != nil {
		t.Errorf("CLEAR must leave the graph in place, got error: %v", err)
	}

	res, err = ex.ExecuteClearDrop(ctx, &query.ClearDropStatement{
		Drop:   true,
		Target: query.GraphTarget{Kind: query.TargetGraph, IRI: iri("g2")},
	})
	if err != nil || !res.Success {
		t.Fatalf("ExecuteClearDrop(DROP g2): got (%+v, %v)", res, err)
	}
	if _, err := st.Graph(ctx, "g2"); err == nil {
		t.Errorf("DROP must remove the graph itself, but g2 still exists")
	}
}

func TestExecuteClearDropSilentOnMissingTarget(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	res, err := ex.ExecuteClearDrop(ctx, &query.ClearDropStatement{
		Target: query.GraphTarget{Kind: query.TargetGraph, IRI: iri("missing")},
		Silent: true,
	})
	if err != nil {
		t.Fatalf("ExecuteClearDrop returned an error instead of reporting it via UpdateResult: %v", err)
	}
	if !res.Success {
		t.Errorf("SILENT CLEAR on a missing graph: got Success=false, want true")
	}
}

func TestExecuteCreate(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	res, err := ex.ExecuteCreate(ctx, &query.CreateStatement{
		Target: query.GraphTarget{Kind: query.TargetGraph, IRI: iri("fresh")},
	})
	if err != nil || !res.Success {
		t.Fatalf("ExecuteCreate: got (%+v, %v)", res, err)
	}
	if _, err := st.Graph(ctx, "fresh"); err != nil {
		t.Errorf("CREATE should have brought the graph into existence: %v", err)
	}

	res, err = ex.ExecuteCreate(ctx, &query.CreateStatement{
		Target: query.GraphTarget{Kind: query.TargetGraph, IRI: iri("fresh")},
	})
	if err != nil {
		t.Fatalf("ExecuteCreate on an existing graph returned a hard error: %v", err)
	}
	if res.Success {
		t.Errorf("CREATE on an already-existing graph without SILENT should fail")
	}

	res, err = ex.ExecuteCreate(ctx, &query.CreateStatement{
		Target: query.GraphTarget{Kind: query.TargetGraph, IRI: iri("fresh")},
		Silent: true,
	})
	if err != nil || !res.Success {
		t.Fatalf("SILENT CREATE on an already-existing graph: got (%+v, %v), want success", res, err)
	}
}

func TestExecuteCopyMoveAdd(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	if _, err := ex.ExecuteInsertData(ctx, &query.InsertDataStatement{
		Quads: []query.QuadLiteral{
			{S: iri("a"), P: iri("p"), O: iri("b"), G: iri("src")},
		},
	}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	if _, err := ex.ExecuteInsertData(ctx, &query.InsertDataStatement{
		Quads: []query.QuadLiteral{
			{S: iri("x"), P: iri("y"), O: iri("z"), G: iri("dst")},
		},
	}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	srcTarget := query.GraphTarget{Kind: query.TargetGraph, IRI: iri("src")}
	dstTarget := query.GraphTarget{Kind: query.TargetGraph, IRI: iri("dst")}

	res, err := ex.ExecuteCopyMoveAdd(ctx, &query.CopyMoveAddStatement{
		Op: query.OpCopy, Src: srcTarget, Dst: dstTarget,
	})
	if err != nil || !res.Success || res.AffectedCount != 1 {
		t.Fatalf("ExecuteCopyMoveAdd(COPY): got (%+v, %v)", res, err)
	}
	dst, _ := st.Graph(ctx, "dst")
	if got := countQuads(t, ctx, dst); got != 1 {
		t.Errorf("COPY must clear dst before copying; dst count = %d, want 1", got)
	}
	src, _ := st.Graph(ctx, "src")
	if got := countQuads(t, ctx, src); got != 1 {
		t.Errorf("COPY must leave src untouched; src count = %d, want 1", got)
	}

	res, err = ex.ExecuteCopyMoveAdd(ctx, &query.CopyMoveAddStatement{
		Op: query.OpAdd, Src: srcTarget, Dst: dstTarget,
	})
	if err != nil || !res.Success {
		t.Fatalf("ExecuteCopyMoveAdd(ADD): got (%+v, %v)", res, err)
	}
	if got := countQuads(t, ctx, dst); got != 1 {
		t.Errorf("ADD of an already-present quad should stay idempotent; dst count = %d, want 1", got)
	}

	res, err = ex.ExecuteCopyMoveAdd(ctx, &query.CopyMoveAddStatement{
		Op: query.OpMove, Src: srcTarget, Dst: dstTarget,
	})
	if err != nil || !res.Success {
		t.Fatalf("ExecuteCopyMoveAdd(MOVE): got (%+v, %v)", res, err)
	}
	if got := countQuads(t, ctx, src); got != 0 {
		t.Errorf("MOVE must clear src afterward; src count = %d, want 0", got)
	}
}

func TestExecuteStatementDispatch(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	ex := NewExecutor(st, nil, nil)

	res, err := ex.ExecuteStatement(ctx, &query.InsertDataStatement{
		Quads: []query.QuadLiteral{{S: iri("a"), P: iri("p"), O: iri("b")}},
	})
	if err != nil || !res.Success {
		t.Fatalf("ExecuteStatement(InsertData): got (%+v, %v)", res, err)
	}

	if _, err := ex.ExecuteStatement(ctx, "not a statement"); err == nil {
		t.Errorf("ExecuteStatement should reject an unrecognized statement type")
	}
}
