package query

import (
	"reflect"
	"testing"

	"github.com/badwolf-labs/sparqlcore/rdf"
)

func iri(s string) rdf.Term { return rdf.NewIRI(s) }
func v(s string) rdf.Term   { return rdf.NewVariable(s) }

func TestTriplePatternVariables(t *testing.T) {
	tp := TriplePattern{S: v("s"), P: iri("p"), O: v("o")}
	if got := tp.Variables(); !reflect.DeepEqual(got, []string{"s", "o"}) {
		t.Errorf("Variables() = %v, want [s o]", got)
	}
}

func TestTriplePatternVariablesSkipsPathPredicate(t *testing.T) {
	tp := TriplePattern{
		S:    v("s"),
		O:    v("o"),
		Path: &PropertyPath{Kind: PathOneOrMore, Pred: iri("knows")},
	}
	got := tp.Variables()
	if !reflect.DeepEqual(got, []string{"s", "o"}) {
		t.Errorf("Variables() with a property path = %v, want [s o] (predicate carries no variable)", got)
	}
}

func TestEffectivePredicatePrefersPath(t *testing.T) {
	tp := TriplePattern{
		P:    iri("ignored"),
		Path: &PropertyPath{Kind: PathZeroOrMore, Pred: iri("knows")},
	}
	if got := tp.EffectivePredicate(); !got.Equal(iri("knows")) {
		t.Errorf("EffectivePredicate() = %v, want <knows>", got)
	}
	plain := TriplePattern{P: iri("p")}
	if got := plain.EffectivePredicate(); !got.Equal(iri("p")) {
		t.Errorf("EffectivePredicate() with no path = %v, want <p>", got)
	}
}

func TestPathKindString(t *testing.T) {
	cases := map[PathKind]string{
		PathNone:       "none",
		PathInverse:    "inverse",
		PathZeroOrMore: "zeroOrMore",
		PathOneOrMore:  "oneOrMore",
		PathZeroOrOne:  "zeroOrOne",
		PathKind(99):   "unknownPath",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("PathKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestGraphPatternIsEmpty(t *testing.T) {
	var nilPattern *GraphPattern
	if !nilPattern.IsEmpty() {
		t.Error("nil *GraphPattern.IsEmpty() = false, want true")
	}
	empty := &GraphPattern{}
	if !empty.IsEmpty() {
		t.Error("zero GraphPattern.IsEmpty() = false, want true")
	}
	withPattern := &GraphPattern{Patterns: []TriplePattern{{S: v("s"), P: v("p"), O: v("o")}}}
	if withPattern.IsEmpty() {
		t.Error("GraphPattern with a triple pattern IsEmpty() = true, want false")
	}
	withFilter := &GraphPattern{Filters: []Expr{VarRef{Name: "x"}}}
	if withFilter.IsEmpty() {
		t.Error("GraphPattern with a filter IsEmpty() = true, want false")
	}
	withValues := &GraphPattern{Values: &ValuesBlock{}}
	if withValues.IsEmpty() {
		t.Error("GraphPattern with a non-nil Values block IsEmpty() = true, want false")
	}
}

func TestExprVariablesCollectsAndDedupes(t *testing.T) {
	e := BinOp{
		Op: "&&",
		L:  BinOp{Op: ">", L: VarRef{Name: "age"}, R: Lit{Term: rdf.NewLiteral("20", rdf.XSDInteger)}},
		R:  UnaryOp{Op: "!", X: VarRef{Name: "age"}},
	}
	got := Variables(e)
	if !reflect.DeepEqual(got, []string{"age"}) {
		t.Errorf("Variables() = %v, want [age] (deduplicated, in first-seen order)", got)
	}
}

func TestExprVariablesWalksFuncCallAndAggregateArgs(t *testing.T) {
	e := FuncCall{Name: "CONCAT", Args: []Expr{VarRef{Name: "a"}, VarRef{Name: "b"}}}
	got := Variables(e)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Variables(FuncCall) = %v, want [a b]", got)
	}

	agg := Aggregate{Op: "SUM", Arg: VarRef{Name: "n"}}
	if got := Variables(agg); !reflect.DeepEqual(got, []string{"n"}) {
		t.Errorf("Variables(Aggregate) = %v, want [n]", got)
	}

	countStar := Aggregate{Op: "COUNT"}
	if got := Variables(countStar); len(got) != 0 {
		t.Errorf("Variables(COUNT(*)) = %v, want none (nil Arg)", got)
	}
}

func TestExprVariablesDoesNotDescendIntoExists(t *testing.T) {
	e := Exists{Pattern: &GraphPattern{
		Patterns: []TriplePattern{{S: v("s"), P: v("p"), O: v("inner")}},
	}}
	if got := Variables(e); len(got) != 0 {
		t.Errorf("Variables(Exists{...}) = %v, want none (its pattern is a nested scope)", got)
	}
}

func TestAggregateString(t *testing.T) {
	star := Aggregate{Op: "COUNT"}
	if got := star.String(); got != "COUNT(*)" {
		t.Errorf("Aggregate{COUNT,*}.String() = %q, want COUNT(*)", got)
	}
	distinctArg := Aggregate{Op: "COUNT", Distinct: true, Arg: VarRef{Name: "x"}}
	if got := distinctArg.String(); got != "COUNT(DISTINCT ?x)" {
		t.Errorf("Aggregate{COUNT,DISTINCT,?x}.String() = %q, want COUNT(DISTINCT ?x)", got)
	}
}
