// Package query defines the parsed query representation the execution
// engine consumes (spec.md §6): triple patterns, graph patterns, the
// expression AST used by FILTER/BIND, and the SELECT/CONSTRUCT/ASK/DESCRIBE
// and update statement trees. Nothing in this package parses SPARQL text —
// producing these values from source text is the job of an external parser,
// out of scope per spec.md §1; this package only fixes the shape the engine
// requires, analogous to how bql/semantic.GraphClause fixed the shape the
// teacher's planner consumed.
package query

import (
	"fmt"

	"github.com/badwolf-labs/sparqlcore/rdf"
)

// PathKind enumerates the property-path annotations a TriplePattern may
// carry (spec.md §3, §4.3).
type PathKind uint8

const (
	// PathNone means the pattern uses a plain predicate term, no path.
	PathNone PathKind = iota
	// PathInverse is ^p: swap subject/object at query and bind time.
	PathInverse
	// PathZeroOrMore is p*: reflexive + BFS closure.
	PathZeroOrMore
	// PathOneOrMore is p+: BFS closure, no reflexive match.
	PathOneOrMore
	// PathZeroOrOne is p?: raw matches plus one reflexive emission.
	PathZeroOrOne
)

func (k PathKind) String() string {
	switch k {
	case PathNone:
		return "none"
	case PathInverse:
		return "inverse"
	case PathZeroOrMore:
		return "zeroOrMore"
	case PathOneOrMore:
		return "oneOrMore"
	case PathZeroOrOne:
		return "zeroOrOne"
	default:
		return "unknownPath"
	}
}

// PropertyPath annotates a TriplePattern's predicate position with one of
// the path operators spec.md §3/§4.3 requires. Pred is the underlying
// predicate the path operator applies to.
type PropertyPath struct {
	Kind PathKind
	Pred rdf.Term
}

// TriplePattern is (subjectTerm, predicateTerm, objectTerm) with an optional
// property-path annotation (spec.md §3). When Path is non-nil its Pred is
// the effective predicate and P is ignored.
type TriplePattern struct {
	S, P, O rdf.Term
	Path    *PropertyPath
}

// EffectivePredicate returns the predicate term that should drive the scan:
// Path.Pred if a path annotation is present, P otherwise.
func (tp TriplePattern) EffectivePredicate() rdf.Term {
	if tp.Path != nil {
		return tp.Path.Pred
	}
	return tp.P
}

// Variables returns the distinct variable names referenced by the pattern's
// subject, predicate, and object positions, in S, P, O order.
func (tp TriplePattern) Variables() []string {
	var vs []string
	add := func(t rdf.Term) {
		if t.Kind() == rdf.Variable {
			vs = append(vs, t.Value())
		}
	}
	add(tp.S)
	if tp.Path == nil {
		add(tp.P)
	}
	add(tp.O)
	return vs
}

func (tp TriplePattern) String() string {
	p := tp.P.String()
	if tp.Path != nil {
		switch tp.Path.Kind {
		case PathInverse:
			p = "^" + tp.Path.Pred.String()
		case PathZeroOrMore:
			p = tp.Path.Pred.String() + "*"
		case PathOneOrMore:
			p = tp.Path.Pred.String() + "+"
		case PathZeroOrOne:
			p = tp.Path.Pred.String() + "?"
		}
	}
	return fmt.Sprintf("%s %s %s", tp.S, p, tp.O)
}

// GraphClause is a GRAPH ?g { ... } or GRAPH <iri> { ... } block. Var is set
// for the variable form (empty IRI), IRI is set for the concrete form.
type GraphClause struct {
	Var     string
	IRI     rdf.Term
	Pattern *GraphPattern
}

// ServiceClause is a federated SERVICE [SILENT] <endpoint> { ... } block, or
// the variable-endpoint form SERVICE ?ep { ... }.
type ServiceClause struct {
	Endpoint    rdf.Term
	EndpointVar string
	Silent      bool
	Pattern     *GraphPattern
}

// BindClause is a BIND(expr AS ?var) element.
type BindClause struct {
	Var  string
	Expr Expr
}

// ValuesBlock is a VALUES data block: each row assigns Vars[i] to Rows[j][i],
// or leaves it unbound if that cell is the zero rdf.Term (UNDEF).
type ValuesBlock struct {
	Vars []string
	Rows [][]rdf.Term
}

// SubSelect embeds a correlated or uncorrelated subquery inside a graph
// pattern (spec.md §4.6).
type SubSelect struct {
	Stmt *SelectStatement
}

// UnionBranch is one alternative of a UNION { ... } group.
type UnionBranch struct {
	Pattern *GraphPattern
}

// GraphPattern is the ordered collection of elements spec.md §3 describes:
// required triple patterns (joined by a MultiPatternScan), OPTIONAL blocks,
// FILTER/BIND expressions, GRAPH/SERVICE/subquery/UNION/MINUS blocks, and a
// VALUES data block.
type GraphPattern struct {
	Patterns   []TriplePattern
	Optionals  []*GraphPattern
	Filters    []Expr
	Binds      []BindClause
	Graphs     []GraphClause
	Services   []ServiceClause
	SubQueries []*SubSelect
	Unions     []UnionBranch
	Minus      []*GraphPattern
	Values     *ValuesBlock
}

// IsEmpty reports whether the pattern contributes no clauses at all.
func (gp *GraphPattern) IsEmpty() bool {
	if gp == nil {
		return true
	}
	return len(gp.Patterns) == 0 && len(gp.Optionals) == 0 && len(gp.Filters) == 0 &&
		len(gp.Binds) == 0 && len(gp.Graphs) == 0 && len(gp.Services) == 0 &&
		len(gp.SubQueries) == 0 && len(gp.Unions) == 0 && len(gp.Minus) == 0 && gp.Values == nil
}
