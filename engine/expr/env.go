// Package expr evaluates the FILTER/BIND expression language spec.md §4.9
// describes, generalizing the teacher's bql/semantic/expression.go recursive
// descent (NewEvaluator/internalNewEvaluator over comparisonForNodeLiteral
// /comparisonForLiteralNode/booleanNode) from BQL's fixed binary comparisons
// to the full SPARQL expression grammar: arithmetic, boolean connectives,
// EXISTS/NOT EXISTS, aggregates, and the built-in function library.
package expr

import (
	"time"

	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Env is the evaluation context Eval consults for everything it cannot
// compute from the expression tree alone: the current row's bindings, the
// query-wide "now" instant (spec.md §4.9 NOW() is constant within one
// execution), and a callback to run a nested EXISTS/NOT EXISTS pattern
// against the current row. Env is implemented by the result driver
// (engine/driver), which owns the binding table and the scan tree; expr
// itself never imports engine/scan, avoiding an import cycle.
type Env interface {
	// Lookup returns the term bound to a variable name (without '?'/'$'),
	// and whether it is bound at all.
	Lookup(name string) (rdf.Term, bool)

	// Now returns the instant NOW() and the xsd:dateTime functions resolve
	// against; fixed once per query execution.
	Now() time.Time

	// ExistsMatch reports whether pattern has at least one solution when
	// evaluated with the current row's bindings held fixed (spec.md §4.8).
	ExistsMatch(pattern *query.GraphPattern) (bool, error)

	// NextBlankNodeLabel returns the label BNode(name) should bind to within
	// the current solution row: the same name must yield the same label
	// for every occurrence within one row, and a fresh label in the next row
	// (spec.md §4.9's per-row BNode() scoping).
	NextBlankNodeLabel(name string) string
}
