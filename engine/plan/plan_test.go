package plan

import (
	"context"
	"testing"
	"time"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/cancel"
	"github.com/badwolf-labs/sparqlcore/engine/expr"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
	"github.com/badwolf-labs/sparqlcore/store/memory"
)

func iri(s string) rdf.Term { return rdf.NewIRI(s) }
func v(s string) rdf.Term   { return rdf.NewVariable(s) }

func mustQuad(t *testing.T, s, p, o rdf.Term) quad.Quad {
	t.Helper()
	q, err := quad.New(s, p, o, rdf.Term{})
	if err != nil {
		t.Fatalf("quad.New: %v", err)
	}
	return q
}

// tableEnv is a minimal expr.Env reading straight from a binding.Table, the
// same shape engine/driver's rowEnv provides Compile in production.
type tableEnv struct {
	tbl *binding.Table
}

func (e *tableEnv) Lookup(name string) (rdf.Term, bool)          { return e.tbl.Lookup(name) }
func (e *tableEnv) Now() time.Time                               { return time.Unix(0, 0).UTC() }
func (e *tableEnv) ExistsMatch(*query.GraphPattern) (bool, error) { return false, nil }
func (e *tableEnv) NextBlankNodeLabel(name string) string         { return name }

func testHooks() Hooks {
	return Hooks{
		NewEnv: func(ctx context.Context, tbl *binding.Table) expr.Env { return &tableEnv{tbl: tbl} },
	}
}

func TestCompileEmptyPatternYieldsOneSolution(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	g, _ := st.Graph(ctx, store.DefaultGraphID)
	factory, err := Compile(ctx, &query.GraphPattern{}, g, st, cancel.Token{}, testHooks())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	sc := factory()
	defer sc.Close()
	tbl := binding.New()
	ok, err := sc.Next(ctx, tbl)
	if err != nil || !ok {
		t.Fatalf("Next on an empty pattern = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = sc.Next(ctx, tbl)
	if err != nil || ok {
		t.Fatalf("second Next on an empty pattern = (%v, %v), want (false, nil)", ok, err)
	}
}

// TestFilterPushdownRejectsEarly builds a two-pattern join where the first
// pattern alone satisfies the filter's variables, and checks the overall
// join still produces the correctly filtered result (pushdown position is an
// optimization; correctness is what this asserts, since pos is otherwise an
// internal implementation detail).
func TestFilterPushdownRejectsEarly(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	g, _ := st.Graph(ctx, store.DefaultGraphID)
	g.AddQuads(ctx, []quad.Quad{
		mustQuad(t, iri("a"), iri("age"), rdf.NewLiteral("30", rdf.XSDInteger)),
		mustQuad(t, iri("b"), iri("age"), rdf.NewLiteral("10", rdf.XSDInteger)),
		mustQuad(t, iri("a"), iri("name"), iri("Alice")),
		mustQuad(t, iri("b"), iri("name"), iri("Bob")),
	})

	pattern := &query.GraphPattern{
		Patterns: []query.TriplePattern{
			{S: v("s"), P: iri("age"), O: v("age")},
			{S: v("s"), P: iri("name"), O: v("name")},
		},
		Filters: []query.Expr{
			query.BinOp{Op: ">", L: query.VarRef{Name: "age"}, R: query.Lit{Term: rdf.NewLiteral("20", rdf.XSDInteger)}},
		},
	}
	factory, err := Compile(ctx, pattern, g, st, cancel.Token{}, testHooks())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	sc := factory()
	defer sc.Close()
	tbl := binding.New()
	var got []string
	for {
		ok, err := sc.Next(ctx, tbl)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		term, _ := tbl.Lookup("name")
		got = append(got, term.String())
	}
	if len(got) != 1 || got[0] != "<Alice>" {
		t.Fatalf("FILTER(?age > 20) over the joined pattern = %v, want exactly [<Alice>]", got)
	}
}

func TestConstantCountOrdersMoreSelectivePatternsFirst(t *testing.T) {
	fullyBound := query.TriplePattern{S: iri("a"), P: iri("p"), O: iri("b")}
	allVars := query.TriplePattern{S: v("s"), P: v("p"), O: v("o")}
	oneConst := query.TriplePattern{S: v("s"), P: iri("p"), O: v("o")}

	if constantCount(fullyBound) != 3 {
		t.Errorf("constantCount(fully bound) = %d, want 3", constantCount(fullyBound))
	}
	if constantCount(allVars) != 0 {
		t.Errorf("constantCount(all variables) = %d, want 0", constantCount(allVars))
	}
	if constantCount(oneConst) != 1 {
		t.Errorf("constantCount(one constant) = %d, want 1", constantCount(oneConst))
	}
}

func TestMinusCompilesAndExcludesOverlap(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	g, _ := st.Graph(ctx, store.DefaultGraphID)
	g.AddQuads(ctx, []quad.Quad{
		mustQuad(t, iri("a"), iri("p"), iri("1")),
		mustQuad(t, iri("b"), iri("p"), iri("2")),
		mustQuad(t, iri("a"), iri("excluded"), iri("yes")),
	})
	pattern := &query.GraphPattern{
		Patterns: []query.TriplePattern{{S: v("s"), P: iri("p"), O: v("val")}},
		Minus: []*query.GraphPattern{
			{Patterns: []query.TriplePattern{{S: v("s"), P: iri("excluded"), O: v("w")}}},
		},
	}
	factory, err := Compile(ctx, pattern, g, st, cancel.Token{}, testHooks())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	sc := factory()
	defer sc.Close()
	tbl := binding.New()
	var got []string
	for {
		ok, err := sc.Next(ctx, tbl)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		term, _ := tbl.Lookup("s")
		got = append(got, term.String())
	}
	if len(got) != 1 || got[0] != "<b>" {
		t.Fatalf("MINUS excluding <a> = %v, want exactly [<b>]", got)
	}
}
