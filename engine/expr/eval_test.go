package expr

import (
	"strconv"
	"testing"
	"time"

	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// testEnv is a minimal expr.Env for unit tests: a fixed row of bindings, a
// fixed NOW() instant, and an ExistsMatch stub that a test can override.
type testEnv struct {
	row    map[string]rdf.Term
	now    time.Time
	exists func(*query.GraphPattern) (bool, error)
	bnodes map[string]string
	seq    int
}

func newTestEnv(row map[string]rdf.Term) *testEnv {
	return &testEnv{row: row, now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), bnodes: map[string]string{}}
}

func (e *testEnv) Lookup(name string) (rdf.Term, bool) {
	t, ok := e.row[name]
	return t, ok
}

func (e *testEnv) Now() time.Time { return e.now }

func (e *testEnv) ExistsMatch(p *query.GraphPattern) (bool, error) {
	if e.exists != nil {
		return e.exists(p)
	}
	return false, nil
}

func (e *testEnv) NextBlankNodeLabel(name string) string {
	if label, ok := e.bnodes[name]; ok {
		return label
	}
	e.seq++
	label := "b" + strconv.Itoa(e.seq)
	e.bnodes[name] = label
	return label
}

func litTerm(lex, datatype string) rdf.Term { return rdf.NewLiteral(lex, datatype) }

func intTerm(n string) rdf.Term { return rdf.NewLiteral(n, rdf.XSDInteger) }

func TestEvalVarRefUnbound(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(query.VarRef{Name: "x"}, env)
	if !got.IsUnbound() {
		t.Errorf("Eval(VarRef) on an unbound variable must be Unbound, got %v", got)
	}
}

func TestEvalArithmeticPromotion(t *testing.T) {
	env := newTestEnv(map[string]rdf.Term{
		"a": intTerm("2"),
		"b": litTerm("1.5", rdf.XSDDouble),
	})
	got := Eval(query.BinOp{Op: "+", L: query.VarRef{Name: "a"}, R: query.VarRef{Name: "b"}}, env)
	f, err := got.ToTerm()
	if err != nil {
		t.Fatalf("ToTerm: %v", err)
	}
	if f.Datatype() != rdf.XSDDouble {
		t.Errorf("int + double must promote to xsd:double, got datatype %q", f.Datatype())
	}
}

func TestEvalFilterShortCircuitAnd(t *testing.T) {
	env := newTestEnv(nil)
	// false && <type error> must be false, not Unbound, per SPARQL's
	// short-circuit && rule.
	pass, ok := EvalFilter(query.BinOp{
		Op: "&&",
		L:  query.Lit{Term: rdf.NewLiteral("false", rdf.XSDBoolean)},
		R:  query.VarRef{Name: "missing"},
	}, env)
	if !ok || pass {
		t.Fatalf("false && unbound = (%v, %v), want (false, true)", pass, ok)
	}
}

func TestEvalFilterOrShortCircuit(t *testing.T) {
	env := newTestEnv(nil)
	pass, ok := EvalFilter(query.BinOp{
		Op: "||",
		L:  query.Lit{Term: rdf.NewLiteral("true", rdf.XSDBoolean)},
		R:  query.VarRef{Name: "missing"},
	}, env)
	if !ok || !pass {
		t.Fatalf("true || unbound = (%v, %v), want (true, true)", pass, ok)
	}
}

func TestEvalComparisonUndefinedOrdering(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(query.BinOp{
		Op: "<",
		L:  query.Lit{Term: rdf.NewLiteral("true", rdf.XSDBoolean)},
		R:  query.Lit{Term: rdf.NewLiteral("x", "")},
	}, env)
	if !got.IsUnbound() {
		t.Errorf("bool < string has no defined ordering, want Unbound, got %v", got)
	}
}

func TestEvalExistsDelegatesToEnv(t *testing.T) {
	env := newTestEnv(nil)
	env.exists = func(p *query.GraphPattern) (bool, error) { return true, nil }
	got := Eval(query.Exists{Pattern: &query.GraphPattern{}}, env)
	b, ok := EffectiveBoolean(got)
	if !ok || !b {
		t.Fatalf("EXISTS delegating true = (%v, %v), want (true, true)", b, ok)
	}

	got = Eval(query.Exists{Not: true, Pattern: &query.GraphPattern{}}, env)
	b, ok = EffectiveBoolean(got)
	if !ok || b {
		t.Fatalf("NOT EXISTS on a matching pattern = (%v, %v), want (false, true)", b, ok)
	}
}

func TestEvalAggregateOutsideSubstitutionIsUnbound(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(query.Aggregate{Op: "COUNT"}, env)
	if !got.IsUnbound() {
		t.Errorf("a raw Aggregate node reaching Eval must be Unbound, got %v", got)
	}
}

func call(name string, args ...query.Expr) query.FuncCall {
	return query.FuncCall{Name: name, Args: args}
}

func strLit(s string) query.Expr { return query.Lit{Term: rdf.NewLiteral(s, "")} }

func TestBuiltinStringFunctions(t *testing.T) {
	env := newTestEnv(nil)
	cases := []struct {
		name string
		expr query.Expr
		want string
	}{
		{"STRLEN", call("STRLEN", strLit("hello")), "5"},
		{"UCASE", call("UCASE", strLit("hi")), "HI"},
		{"LCASE", call("LCASE", strLit("HI")), "hi"},
		{"CONCAT", call("CONCAT", strLit("a"), strLit("b")), "ab"},
		{"STRSTARTS-true", call("STRSTARTS", strLit("hello"), strLit("he")), "true"},
		{"CONTAINS-true", call("CONTAINS", strLit("hello"), strLit("ell")), "true"},
		{"STRBEFORE", call("STRBEFORE", strLit("a/b"), strLit("/")), "a"},
		{"STRAFTER", call("STRAFTER", strLit("a/b"), strLit("/")), "b"},
		{"ENCODE_FOR_URI", call("ENCODE_FOR_URI", strLit("a b")), "a%20b"},
	}
	for _, c := range cases {
		got := Eval(c.expr, env)
		var s string
		if got.Kind() == value.Bool {
			if got.Bool() {
				s = "true"
			} else {
				s = "false"
			}
		} else {
			t2, err := got.ToTerm()
			if err == nil {
				s = t2.Lexical()
			}
		}
		if s != c.want {
			t.Errorf("%s = %q, want %q", c.name, s, c.want)
		}
	}
}

func TestSubstr(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("SUBSTR", strLit("hello"), query.Lit{Term: intTerm("2")}, query.Lit{Term: intTerm("3")}), env)
	term, err := got.ToTerm()
	if err != nil {
		t.Fatalf("ToTerm: %v", err)
	}
	if term.Lexical() != "ell" {
		t.Errorf("SUBSTR(\"hello\", 2, 3) = %q, want \"ell\"", term.Lexical())
	}
}

func TestReplace(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("REPLACE", strLit("abc"), strLit("b"), strLit("X")), env)
	term, _ := got.ToTerm()
	if term.Lexical() != "aXc" {
		t.Errorf("REPLACE(\"abc\", \"b\", \"X\") = %q, want \"aXc\"", term.Lexical())
	}
}

func TestRegexCaseInsensitiveFlag(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("REGEX", strLit("Hello"), strLit("^hello$"), strLit("i")), env)
	b, ok := EffectiveBoolean(got)
	if !ok || !b {
		t.Errorf("REGEX(\"Hello\", \"^hello$\", \"i\") = (%v, %v), want (true, true)", b, ok)
	}
}

func TestBoundAndCoalesce(t *testing.T) {
	env := newTestEnv(map[string]rdf.Term{"x": rdf.NewIRI("a")})
	got := Eval(call("BOUND", query.VarRef{Name: "x"}), env)
	if b, ok := EffectiveBoolean(got); !ok || !b {
		t.Errorf("BOUND(?x) on a bound variable must be true")
	}
	got = Eval(call("BOUND", query.VarRef{Name: "missing"}), env)
	if b, ok := EffectiveBoolean(got); !ok || b {
		t.Errorf("BOUND(?missing) must be false")
	}

	got = Eval(call("COALESCE", query.VarRef{Name: "missing"}, strLit("fallback")), env)
	term, _ := got.ToTerm()
	if term.Lexical() != "fallback" {
		t.Errorf("COALESCE(?missing, \"fallback\") = %q, want \"fallback\"", term.Lexical())
	}
}

func TestIfFunction(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("IF", query.Lit{Term: rdf.NewLiteral("true", rdf.XSDBoolean)}, strLit("yes"), strLit("no")), env)
	term, _ := got.ToTerm()
	if term.Lexical() != "yes" {
		t.Errorf("IF(true, \"yes\", \"no\") = %q, want \"yes\"", term.Lexical())
	}
}

func TestTermTypeCheckFunctions(t *testing.T) {
	env := newTestEnv(map[string]rdf.Term{
		"i": rdf.NewIRI("http://example.org/a"),
		"b": rdf.NewBlankNode("x"),
		"l": rdf.NewLiteral("hi", ""),
	})
	if b, ok := EffectiveBoolean(Eval(call("ISIRI", query.VarRef{Name: "i"}), env)); !ok || !b {
		t.Errorf("ISIRI(?i) must be true for an IRI")
	}
	if b, ok := EffectiveBoolean(Eval(call("ISBLANK", query.VarRef{Name: "b"}), env)); !ok || !b {
		t.Errorf("ISBLANK(?b) must be true for a blank node")
	}
	if b, ok := EffectiveBoolean(Eval(call("ISLITERAL", query.VarRef{Name: "l"}), env)); !ok || !b {
		t.Errorf("ISLITERAL(?l) must be true for a literal")
	}
}

func TestSameTerm(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("SAMETERM", query.Lit{Term: intTerm("1")}, query.Lit{Term: litTerm("1.0", rdf.XSDDecimal)}), env)
	if b, ok := EffectiveBoolean(got); !ok || b {
		t.Errorf("SAMETERM must distinguish \"1\"^^xsd:integer from \"1.0\"^^xsd:decimal by lexical form, got (%v,%v)", b, ok)
	}
}

func TestHashFunctions(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("MD5", strLit("")), env)
	term, _ := got.ToTerm()
	if term.Lexical() != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("MD5(\"\") = %q, want the well-known empty-string digest", term.Lexical())
	}
}

func TestDateTimeExtraction(t *testing.T) {
	env := newTestEnv(nil)
	dt := query.Lit{Term: rdf.NewLiteral("2024-03-15T10:30:00Z", rdf.XSDDateTime)}
	year := Eval(call("YEAR", dt), env)
	if year.IsUnbound() || year.Int64() != 2024 {
		t.Errorf("YEAR(2024-03-15T10:30:00Z) = %v, want 2024", year)
	}
	month := Eval(call("MONTH", dt), env)
	if month.IsUnbound() || month.Int64() != 3 {
		t.Errorf("MONTH(...) = %v, want 3", month)
	}
}

func TestCastInteger(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("http://www.w3.org/2001/XMLSchema#integer", strLit("42")), env)
	if got.IsUnbound() || got.Int64() != 42 {
		t.Errorf("xsd:integer(\"42\") = %v, want 42", got)
	}
	bad := Eval(call("http://www.w3.org/2001/XMLSchema#integer", strLit("abc")), env)
	if !bad.IsUnbound() {
		t.Errorf("xsd:integer(\"abc\") must be Unbound, got %v", bad)
	}
}

func TestCastDoubleAndBoolean(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("http://www.w3.org/2001/XMLSchema#double", strLit("3.5")), env)
	if got.IsUnbound() || got.F64() != 3.5 {
		t.Errorf("xsd:double(\"3.5\") = %v, want 3.5", got)
	}
	b := Eval(call("http://www.w3.org/2001/XMLSchema#boolean", strLit("true")), env)
	if bv, ok := EffectiveBoolean(b); !ok || !bv {
		t.Errorf("xsd:boolean(\"true\") must be true")
	}
}

func TestBnodeSameLabelWithinRow(t *testing.T) {
	env := newTestEnv(nil)
	a := Eval(call("BNODE", strLit("x")), env)
	b := Eval(call("BNODE", strLit("x")), env)
	ta, _ := a.ToTerm()
	tb, _ := b.ToTerm()
	if ta.Value() != tb.Value() {
		t.Errorf("BNODE(\"x\") must yield the same label twice within one row, got %q and %q", ta.Value(), tb.Value())
	}
}

func TestUUIDFunctions(t *testing.T) {
	env := newTestEnv(nil)
	got := Eval(call("UUID"), env)
	term, err := got.ToTerm()
	if err != nil || term.Kind() != rdf.IRI {
		t.Errorf("UUID() must produce an IRI term")
	}
	got2 := Eval(call("STRUUID"), env)
	term2, err := got2.ToTerm()
	if err != nil || term2.Kind() != rdf.Literal {
		t.Errorf("STRUUID() must produce a literal term")
	}
}
