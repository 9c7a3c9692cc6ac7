package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
)

// Predicate evaluates to pass/reject given the table's current bindings,
// without itself adding any bindings.
type Predicate func(ctx context.Context, tbl *binding.Table) (bool, error)

// GuardScan is a single-shot filter step in a join sequence: it contributes
// no new bindings, just accepts or rejects whatever the earlier positions
// already bound. Placed as one more JoinScan factory slot, it gets
// re-evaluated exactly once per upstream advance the same way any other
// position does, which is what gives FILTER (spec.md §4.9) and MINUS
// (spec.md §4.5) their "reject and backtrack" behavior for free from the
// join machinery already built for triple patterns.
type GuardScan struct {
	pred Predicate
	done bool
}

// NewGuardScan returns a scan that passes exactly once if pred holds.
func NewGuardScan(pred Predicate) *GuardScan {
	return &GuardScan{pred: pred}
}

func (g *GuardScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if g.done {
		return false, nil
	}
	g.done = true
	return g.pred(ctx, tbl)
}

func (g *GuardScan) Close() {}

// NewMinusFactory returns a join-sequence factory implementing MINUS
// (spec.md §4.5): a base solution is excluded only when minusVars overlaps
// the solution's already-bound variables AND minusPattern has a compatible
// match; a wholly disjoint MINUS pattern never excludes anything.
func NewMinusFactory(minusVars []string, minusPattern Factory) Factory {
	return func() Scan {
		return NewGuardScan(func(ctx context.Context, tbl *binding.Table) (bool, error) {
			overlap := false
			for _, v := range minusVars {
				if _, ok := tbl.Lookup(v); ok {
					overlap = true
					break
				}
			}
			if !overlap {
				return true, nil
			}
			cp := tbl.Checkpoint()
			s := minusPattern()
			matched, err := s.Next(ctx, tbl)
			s.Close()
			tbl.Truncate(cp)
			if err != nil {
				return false, err
			}
			return !matched, nil
		})
	}
}
