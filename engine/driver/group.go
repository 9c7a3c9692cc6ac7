package driver

import (
	"fmt"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/expr"
	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/query"
)

// applyModifiers runs the full solution-sequence pipeline over rows, a fully
// materialized candidate solution set: GROUP BY/aggregate substitution,
// HAVING, ORDER BY, projection, DISTINCT, OFFSET, LIMIT. envFor builds a fresh expression Env bound to one row, reused for
// every expression this pass evaluates against that row.
//
// This generalizes bql/table.go's Table.GroupBy/Table.Sort/Table.Project
// pipeline (materialize everything, then post-process column-wise) to the
// SPARQL aggregate/solution-modifier set BQL never had.
func (e *Executor) applyModifiers(stmt *query.SelectStatement, rows []binding.Row, envFor func(binding.Row) expr.Env) ([]binding.Row, []string, error) {
	aggs := collectAggregates(stmt)
	names := aggregateSyntheticNames(aggs)

	rows = groupAndAggregate(stmt, rows, envFor, aggs, names)

	having := make([]query.Expr, len(stmt.Modifiers.Having))
	for i, h := range stmt.Modifiers.Having {
		having[i] = substituteAggregates(h, names)
	}
	if len(having) > 0 {
		var kept []binding.Row
		for _, row := range rows {
			env := envFor(row)
			allPass := true
			for _, h := range having {
				pass, ok := expr.EvalFilter(h, env)
				if !ok || !pass {
					allPass = false
					break
				}
			}
			if allPass {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	// ORDER BY runs before projection (SPARQL 1.1 §18.2.5): a sort key may
	// reference a variable the SELECT list itself never projects.
	if len(stmt.Modifiers.OrderBy) > 0 {
		sortRows(rows, stmt.Modifiers.OrderBy, envFor, names)
	}

	projected, vars, err := project(stmt, rows, envFor, names)
	if err != nil {
		return nil, nil, err
	}

	if stmt.Modifiers.Distinct || stmt.Distinct {
		projected = dedupeRows(projected, vars)
	}

	start := int(stmt.Modifiers.Offset)
	if start < 0 {
		start = 0
	}
	if start > len(projected) {
		start = len(projected)
	}
	projected = projected[start:]

	if stmt.Modifiers.HasLimit && stmt.Modifiers.Limit >= 0 && int64(len(projected)) > stmt.Modifiers.Limit {
		projected = projected[:stmt.Modifiers.Limit]
	}

	return projected, vars, nil
}

// aggregateSyntheticNames assigns each distinct aggregate expression (keyed
// by its canonical String()) a synthetic binding-table variable name, so the
// rest of the pipeline can treat a resolved aggregate exactly like any other
// bound variable (substituteAggregates rewrites the Aggregate node itself
// into a VarRef against this name).
func aggregateSyntheticNames(aggs []query.Aggregate) map[string]string {
	names := make(map[string]string, len(aggs))
	for i, a := range aggs {
		names[a.String()] = fmt.Sprintf("__agg_%d", i)
	}
	return names
}

// collectAggregates walks every projection, HAVING, and ORDER BY expression,
// returning the distinct set of Aggregate nodes referenced (by canonical
// String()), in first-seen order (spec.md §4.10: the same aggregate may be
// referenced from more than one of these clauses and must resolve to the
// same per-group value in each).
func collectAggregates(stmt *query.SelectStatement) []query.Aggregate {
	seen := map[string]bool{}
	var out []query.Aggregate
	var walk func(e query.Expr)
	walk = func(e query.Expr) {
		switch n := e.(type) {
		case query.Aggregate:
			k := n.String()
			if !seen[k] {
				seen[k] = true
				out = append(out, n)
			}
		case query.BinOp:
			walk(n.L)
			walk(n.R)
		case query.UnaryOp:
			walk(n.X)
		case query.FuncCall:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	for _, p := range stmt.Projections {
		if p.Kind == query.ProjectExpr {
			walk(p.Expr)
		}
	}
	for _, h := range stmt.Modifiers.Having {
		walk(h)
	}
	for _, o := range stmt.Modifiers.OrderBy {
		walk(o.Expr)
	}
	return out
}

// substituteAggregates rewrites every Aggregate node in e into a VarRef
// against its synthetic group-result name, leaving every other node shape
// unchanged; expr.Eval then resolves it exactly like any other bound
// variable via env.Lookup.
func substituteAggregates(e query.Expr, names map[string]string) query.Expr {
	switch n := e.(type) {
	case query.Aggregate:
		if name, ok := names[n.String()]; ok {
			return query.VarRef{Name: name}
		}
		return e
	case query.BinOp:
		return query.BinOp{Op: n.Op, L: substituteAggregates(n.L, names), R: substituteAggregates(n.R, names)}
	case query.UnaryOp:
		return query.UnaryOp{Op: n.Op, X: substituteAggregates(n.X, names)}
	case query.FuncCall:
		args := make([]query.Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = substituteAggregates(a, names)
		}
		return query.FuncCall{Name: n.Name, Args: args}
	default:
		return e
	}
}

// groupAndAggregate partitions rows into groups per stmt.Modifiers.GroupBy
// (the whole row set is one implicit group when GroupBy is empty but the
// query nonetheless references an aggregate), runs one Accumulator per
// distinct aggregate per group, and returns one representative row per
// group carrying both its own non-aggregated bindings and a synthetic
// binding per names[...] holding that group's aggregate result (omitted,
// i.e. left unbound, when the aggregate's Result is Unbound).
//
// A query with no GROUP BY and no aggregate reference passes rows through
// completely unchanged.
func groupAndAggregate(stmt *query.SelectStatement, rows []binding.Row, envFor func(binding.Row) expr.Env, aggs []query.Aggregate, names map[string]string) []binding.Row {
	if len(stmt.Modifiers.GroupBy) == 0 && len(aggs) == 0 {
		return rows
	}

	type group struct {
		rep  binding.Row
		accs map[string]Accumulator
	}
	var order []string
	groups := map[string]*group{}

	newGroup := func(rep binding.Row) *group {
		g := &group{rep: rep, accs: map[string]Accumulator{}}
		for _, a := range aggs {
			g.accs[a.String()] = newAccumulator(a.Op, a.Distinct, a.Separator)
		}
		return g
	}

	for _, row := range rows {
		env := envFor(row)
		var keyParts []interface{}
		for _, ge := range stmt.Modifiers.GroupBy {
			keyParts = append(keyParts, valueKey(expr.Eval(ge, env)))
		}
		key := fmt.Sprintf("%v", keyParts)

		g, ok := groups[key]
		if !ok {
			g = newGroup(row)
			groups[key] = g
			order = append(order, key)
		}
		for _, a := range aggs {
			var v value.Value
			if a.Arg == nil {
				v = value.NewBool(true)
			} else {
				v = expr.Eval(a.Arg, env)
			}
			g.accs[a.String()].Accumulate(v)
		}
	}

	if len(groups) == 0 && len(stmt.Modifiers.GroupBy) == 0 {
		// Aggregating over zero rows still yields one group, e.g. COUNT(*)
		// over an empty pattern is 0, not an empty result set.
		g := newGroup(binding.Row{})
		groups[""] = g
		order = append(order, "")
	}

	out := make([]binding.Row, 0, len(order))
	for _, key := range order {
		g := groups[key]
		rep := g.rep.Clone()
		for _, a := range aggs {
			v := g.accs[a.String()].Result()
			if t, ok := termOfValue(v); ok {
				rep[names[a.String()]] = t
			}
		}
		out = append(out, rep)
	}
	return out
}
