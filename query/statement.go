package query

import "github.com/badwolf-labs/sparqlcore/rdf"

// Dataset is the FROM / FROM NAMED declaration (spec.md §6). Default is the
// set of graphs unioned to form the default graph; Named is the set of
// graphs GRAPH ?g / GRAPH <iri> may range over. Both empty means "use the
// store's natural default graph and all named graphs" (spec.md §9 REDESIGN
// FLAG (c)).
type Dataset struct {
	Default []rdf.Term
	Named    []rdf.Term
}

// ProjectionKind distinguishes a plain variable projection from a computed
// (AS ?alias) expression or an aggregate.
type ProjectionKind uint8

const (
	ProjectVar ProjectionKind = iota
	ProjectExpr
)

// Projection is one SELECT-list entry.
type Projection struct {
	Kind  ProjectionKind
	Var   string // for ProjectVar: the bound variable being projected
	Expr  Expr   // for ProjectExpr: the BIND-like expression (may be an Aggregate)
	Alias string // output variable name; required for ProjectExpr
}

// OrderKey is one ORDER BY sort key.
type OrderKey struct {
	Expr Expr
	Desc bool
}

// SolutionModifiers bundles the post-pattern solution sequence modifiers
// (spec.md §4.10).
type SolutionModifiers struct {
	Distinct bool
	GroupBy  []Expr
	Having   []Expr
	OrderBy  []OrderKey
	HasLimit bool
	Limit    int64
	Offset   int64
}

// SelectStatement is a fully resolved SELECT query (spec.md §6's "query
// tree"). Star indicates SELECT * (project every bound variable).
type SelectStatement struct {
	Distinct    bool
	Star        bool
	Projections []Projection
	Where       *GraphPattern
	Dataset     Dataset
	Modifiers   SolutionModifiers
	Values      *ValuesBlock // post-query VALUES constraint (spec.md §4.10)
}

// AskStatement is an ASK query: true iff Where has at least one solution.
type AskStatement struct {
	Where   *GraphPattern
	Dataset Dataset
}

// ConstructTemplateTriple is one triple template in a CONSTRUCT clause; S, P,
// O may each be a concrete term or a Variable bound by the WHERE pattern.
type ConstructTemplateTriple struct {
	S, P, O rdf.Term
}

// ConstructStatement is a CONSTRUCT query.
type ConstructStatement struct {
	Template []ConstructTemplateTriple
	Where    *GraphPattern
	Dataset  Dataset
}

// DescribeStatement is a DESCRIBE query, describing either explicit IRIs or
// the bindings a WHERE pattern produces.
type DescribeStatement struct {
	Targets []rdf.Term // explicit DESCRIBE <iri> ... targets
	Var     string      // DESCRIBE ?x form; empty if Targets is used
	Where   *GraphPattern
	Dataset Dataset
}
