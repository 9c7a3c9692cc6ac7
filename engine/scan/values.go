package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/query"
)

// ValuesScan implements an inline VALUES data block (spec.md §4.7): each row
// is tried as a set of bindings, consistent with whatever the table already
// holds; a row cell left UNDEF (the zero rdf.Term) leaves that variable
// untouched rather than binding it.
type ValuesScan struct {
	block *query.ValuesBlock

	started    bool
	checkpoint int
	next       int
}

// NewValuesScan returns a scan over block's rows.
func NewValuesScan(block *query.ValuesBlock) *ValuesScan {
	return &ValuesScan{block: block}
}

func (v *ValuesScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if !v.started {
		v.started = true
		v.checkpoint = tbl.Checkpoint()
		v.next = 0
	}

	for v.next < len(v.block.Rows) {
		row := v.block.Rows[v.next]
		v.next++
		tbl.Truncate(v.checkpoint)
		ok := true
		for i, name := range v.block.Vars {
			if i >= len(row) {
				continue
			}
			cell := row[i]
			if cell.IsZero() {
				continue
			}
			if !tbl.Bind(name, cell) {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
	}
	tbl.Truncate(v.checkpoint)
	return false, nil
}

func (v *ValuesScan) Close() {}
