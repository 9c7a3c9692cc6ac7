package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
)

// UnionScan implements UNION (spec.md §4.5): tries each branch's factory in
// turn, backtracking through all of one branch's solutions before moving to
// the next.
type UnionScan struct {
	factories []Factory

	started    bool
	checkpoint int
	idx        int
	current    Scan
}

// NewUnionScan returns a scan alternating over branches.
func NewUnionScan(branches []Factory) *UnionScan {
	return &UnionScan{factories: branches}
}

func (u *UnionScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if !u.started {
		u.started = true
		u.checkpoint = tbl.Checkpoint()
		u.idx = 0
	}

	for u.idx < len(u.factories) {
		if u.current == nil {
			tbl.Truncate(u.checkpoint)
			u.current = u.factories[u.idx]()
		}
		ok, err := u.current.Next(ctx, tbl)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		u.current.Close()
		u.current = nil
		u.idx++
	}
	tbl.Truncate(u.checkpoint)
	return false, nil
}

func (u *UnionScan) Close() {
	if u.current != nil {
		u.current.Close()
	}
}
