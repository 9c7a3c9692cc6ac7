package driver

import (
	"context"
	"testing"

	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
	"github.com/badwolf-labs/sparqlcore/store/memory"
)

func iri(s string) rdf.Term     { return rdf.NewIRI(s) }
func v(s string) rdf.Term       { return rdf.NewVariable(s) }
func lit(s string) rdf.Term     { return rdf.NewLiteral(s, "") }

func newStoreWith(t *testing.T, qs ...quad.Quad) store.Store {
	t.Helper()
	st := memory.NewStore()
	g, err := st.Graph(context.Background(), store.DefaultGraphID)
	if err != nil {
		t.Fatalf("Graph(default): %v", err)
	}
	if err := g.AddQuads(context.Background(), qs); err != nil {
		t.Fatalf("AddQuads: %v", err)
	}
	return st
}

func mustQuad(t *testing.T, s, p, o rdf.Term) quad.Quad {
	t.Helper()
	q, err := quad.New(s, p, o, rdf.Term{})
	if err != nil {
		t.Fatalf("quad.New: %v", err)
	}
	return q
}

func collect(t *testing.T, b *Bindings, col string) []string {
	t.Helper()
	var out []string
	for b.Next() {
		row := b.Row()
		if t, ok := row[col]; ok {
			out = append(out, t.String())
		} else {
			out = append(out, "")
		}
	}
	return out
}

// TestDistinctWithBind exercises spec.md §8 scenario 5: three quads typed
// with `a`, SELECT DISTINCT ?t WHERE { ?s a ?t } must emit each distinct
// type exactly once.
func TestDistinctWithBind(t *testing.T) {
	rdfType := iri("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	st := newStoreWith(t,
		mustQuad(t, iri("x"), rdfType, iri("Person")),
		mustQuad(t, iri("y"), rdfType, iri("Person")),
		mustQuad(t, iri("z"), rdfType, iri("Org")),
	)
	ex := NewExecutor(st, nil, Options{})
	stmt := &query.SelectStatement{
		Distinct:    true,
		Projections: []query.Projection{{Kind: query.ProjectVar, Var: "t"}},
		Where: &query.GraphPattern{
			Patterns: []query.TriplePattern{{S: v("s"), P: rdfType, O: v("t")}},
		},
	}
	res, err := ex.ExecuteSelect(context.Background(), stmt)
	if err != nil {
		t.Fatalf("ExecuteSelect: %v", err)
	}
	got := collect(t, res, "t")
	if len(got) != 2 {
		t.Fatalf("DISTINCT ?t = %v, want 2 distinct types", got)
	}
}

// TestExistsFilter exercises spec.md §8 scenario 6.
func TestExistsFilter(t *testing.T) {
	st := newStoreWith(t,
		mustQuad(t, iri("a"), iri("p"), lit("1")),
		mustQuad(t, iri("a"), iri("q"), lit("2")),
		mustQuad(t, iri("b"), iri("p"), lit("3")),
	)
	ex := NewExecutor(st, nil, Options{})
	stmt := &query.SelectStatement{
		Projections: []query.Projection{{Kind: query.ProjectVar, Var: "s"}},
		Where: &query.GraphPattern{
			Patterns: []query.TriplePattern{{S: v("s"), P: iri("p"), O: v("val")}},
			Filters: []query.Expr{
				query.Exists{Pattern: &query.GraphPattern{
					Patterns: []query.TriplePattern{{S: v("s"), P: iri("q"), O: v("w")}},
				}},
			},
		},
	}
	res, err := ex.ExecuteSelect(context.Background(), stmt)
	if err != nil {
		t.Fatalf("ExecuteSelect: %v", err)
	}
	got := collect(t, res, "s")
	if len(got) != 1 || got[0] != "<a>" {
		t.Fatalf("FILTER EXISTS result = %v, want exactly [<a>]", got)
	}
}

func TestNotExistsFilter(t *testing.T) {
	st := newStoreWith(t,
		mustQuad(t, iri("a"), iri("p"), lit("1")),
		mustQuad(t, iri("a"), iri("q"), lit("2")),
		mustQuad(t, iri("b"), iri("p"), lit("3")),
	)
	ex := NewExecutor(st, nil, Options{})
	stmt := &query.SelectStatement{
		Projections: []query.Projection{{Kind: query.ProjectVar, Var: "s"}},
		Where: &query.GraphPattern{
			Patterns: []query.TriplePattern{{S: v("s"), P: iri("p"), O: v("val")}},
			Filters: []query.Expr{
				query.Exists{Not: true, Pattern: &query.GraphPattern{
					Patterns: []query.TriplePattern{{S: v("s"), P: iri("q"), O: v("w")}},
				}},
			},
		},
	}
	res, err := ex.ExecuteSelect(context.Background(), stmt)
	if err != nil {
		t.Fatalf("ExecuteSelect: %v", err)
	}
	got := collect(t, res, "s")
	if len(got) != 1 || got[0] != "<b>" {
		t.Fatalf("FILTER NOT EXISTS result = %v, want exactly [<b>]", got)
	}
}

func TestLimitOffset(t *testing.T) {
	st := newStoreWith(t,
		mustQuad(t, iri("a"), iri("p"), lit("1")),
		mustQuad(t, iri("a"), iri("p"), lit("2")),
		mustQuad(t, iri("a"), iri("p"), lit("3")),
	)
	ex := NewExecutor(st, nil, Options{})
	stmt := &query.SelectStatement{
		Projections: []query.Projection{{Kind: query.ProjectVar, Var: "val"}},
		Where: &query.GraphPattern{
			Patterns: []query.TriplePattern{{S: iri("a"), P: iri("p"), O: v("val")}},
		},
		Modifiers: query.SolutionModifiers{
			OrderBy:  []query.OrderKey{{Expr: query.VarRef{Name: "val"}}},
			HasLimit: true,
			Limit:    1,
			Offset:   1,
		},
	}
	res, err := ex.ExecuteSelect(context.Background(), stmt)
	if err != nil {
		t.Fatalf("ExecuteSelect: %v", err)
	}
	got := collect(t, res, "val")
	if len(got) != 1 || got[0] != `"2"` {
		t.Fatalf("ORDER BY val LIMIT 1 OFFSET 1 = %v, want exactly [\"2\"]", got)
	}
}

func TestFilterRejectsNonMatching(t *testing.T) {
	st := newStoreWith(t,
		mustQuad(t, iri("a"), iri("p"), lit("1")),
		mustQuad(t, iri("a"), iri("p"), lit("2")),
	)
	ex := NewExecutor(st, nil, Options{})
	stmt := &query.SelectStatement{
		Projections: []query.Projection{{Kind: query.ProjectVar, Var: "val"}},
		Where: &query.GraphPattern{
			Patterns: []query.TriplePattern{{S: iri("a"), P: iri("p"), O: v("val")}},
			Filters: []query.Expr{
				query.BinOp{Op: "=", L: query.VarRef{Name: "val"}, R: query.Lit{Term: lit("2")}},
			},
		},
	}
	res, err := ex.ExecuteSelect(context.Background(), stmt)
	if err != nil {
		t.Fatalf("ExecuteSelect: %v", err)
	}
	got := collect(t, res, "val")
	if len(got) != 1 || got[0] != `"2"` {
		t.Fatalf("FILTER(?val = \"2\") = %v, want exactly [\"2\"]", got)
	}
}

func TestExecuteAsk(t *testing.T) {
	st := newStoreWith(t, mustQuad(t, iri("a"), iri("p"), iri("b")))
	ex := NewExecutor(st, nil, Options{})
	ok, err := ex.ExecuteAsk(context.Background(), &query.AskStatement{
		Where: &query.GraphPattern{Patterns: []query.TriplePattern{{S: iri("a"), P: iri("p"), O: v("x")}}},
	})
	if err != nil || !ok {
		t.Fatalf("ASK {<a> <p> ?x}: got (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = ex.ExecuteAsk(context.Background(), &query.AskStatement{
		Where: &query.GraphPattern{Patterns: []query.TriplePattern{{S: iri("missing"), P: iri("p"), O: v("x")}}},
	})
	if err != nil || ok {
		t.Fatalf("ASK on a non-matching pattern: got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestExecuteConstructSkipsUnboundTemplate(t *testing.T) {
	st := newStoreWith(t, mustQuad(t, iri("a"), iri("p"), iri("b")))
	ex := NewExecutor(st, nil, Options{})
	quads, err := ex.ExecuteConstruct(context.Background(), &query.ConstructStatement{
		Where: &query.GraphPattern{Patterns: []query.TriplePattern{{S: v("s"), P: iri("p"), O: v("o")}}},
		Template: []query.ConstructTemplateTriple{
			{S: v("o"), P: iri("inverseOf"), O: v("s")},
		},
	})
	if err != nil {
		t.Fatalf("ExecuteConstruct: %v", err)
	}
	if len(quads) != 1 {
		t.Fatalf("got %d quads, want 1", len(quads))
	}
	if quads[0].S().Value() != "b" || quads[0].O().Value() != "a" {
		t.Errorf("got %v, want <b> <inverseOf> <a>", quads[0])
	}
}
