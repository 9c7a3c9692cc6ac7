// Package scan implements the pull-iterator scan tree the driver executes
// (spec.md §4.2/§4.3): a Scan binds variables into a shared binding.Table on
// each successful Next, and on backtrack undoes exactly the bindings it
// itself added, using the table's checkpoint/truncate contract.
//
// This generalizes the teacher's data-access layer (bql/planner/data_access.go
// simpleFetch/simpleExist) from "fetch a whole table up front, then join
// tables in memory" to a true pull model: each Scan resolves its pattern's
// variables against whatever the table already holds, asks the store for
// only the matching quads, and yields one solution per Next call — join
// nesting is scan nesting, not a separate table-join pass.
package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Scan is one node of the execution tree. Next either extends tbl with one
// new solution and returns true, or — once exhausted — restores tbl to
// exactly the state it had when this Scan last returned false/was
// constructed, and returns false. Callers must call Close when done to
// release any resources (e.g. a SERVICE scan's HTTP client).
type Scan interface {
	Next(ctx context.Context, tbl *binding.Table) (bool, error)
	Close()
}

// resolveTerm looks up t in tbl if it is a Variable, returning the bound
// term and true, or the zero Term and false if unbound. Non-variable terms
// resolve to themselves.
func resolveTerm(t rdf.Term, tbl *binding.Table) (rdf.Term, bool) {
	if t.Kind() != rdf.Variable {
		return t, true
	}
	return tbl.Lookup(t.Value())
}

// bindTerm binds variable t to v in tbl, or checks consistency if t is
// already bound. Non-variable terms are checked for equality against v
// without writing to the table. Returns false on a join conflict.
func bindTerm(t rdf.Term, v rdf.Term, tbl *binding.Table) bool {
	if t.Kind() != rdf.Variable {
		return t.Equal(v)
	}
	return tbl.Bind(t.Value(), v)
}
