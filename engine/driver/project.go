package driver

import (
	"sort"
	"strings"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/expr"
	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/query"
)

// aggSyntheticPrefix marks the synthetic binding-table names
// aggregateSyntheticNames hands out, so SELECT * never leaks them into a
// result's projected variable list.
const aggSyntheticPrefix = "__agg_"

// project builds the final output rows and their variable list from rows
// (already grouped/ordered), following stmt's SELECT list: SELECT * copies
// every originally-bound variable through; an explicit projection list
// copies a plain VarRef projection as-is, or evaluates a computed
// expression (with any aggregate already routed through its synthetic
// binding via names) and binds its result under the projection's alias.
func project(stmt *query.SelectStatement, rows []binding.Row, envFor func(binding.Row) expr.Env, names map[string]string) ([]binding.Row, []string, error) {
	if stmt.Star {
		varSet := map[string]bool{}
		for _, row := range rows {
			for k := range row {
				if !strings.HasPrefix(k, aggSyntheticPrefix) {
					varSet[k] = true
				}
			}
		}
		vars := make([]string, 0, len(varSet))
		for v := range varSet {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		out := make([]binding.Row, len(rows))
		for i, row := range rows {
			r := make(binding.Row, len(vars))
			for _, v := range vars {
				if t, ok := row[v]; ok {
					r[v] = t
				}
			}
			out[i] = r
		}
		return out, vars, nil
	}

	vars := make([]string, len(stmt.Projections))
	exprs := make([]query.Expr, len(stmt.Projections))
	for i, p := range stmt.Projections {
		if p.Kind == query.ProjectVar {
			vars[i] = p.Var
			exprs[i] = query.VarRef{Name: p.Var}
		} else {
			vars[i] = p.Alias
			exprs[i] = substituteAggregates(p.Expr, names)
		}
	}

	out := make([]binding.Row, len(rows))
	for i, row := range rows {
		env := envFor(row)
		r := make(binding.Row, len(vars))
		for j, e := range exprs {
			v := expr.Eval(e, env)
			if t, ok := termOfValue(v); ok {
				r[vars[j]] = t
			}
		}
		out[i] = r
	}
	return out, vars, nil
}

// dedupeRows implements DISTINCT over the projected output, comparing rows
// only by their projected vars columns. The comparison key is the plain
// concatenation of each var name and its term's surface String() form with a
// separator byte; no hash is computed.
func dedupeRows(rows []binding.Row, vars []string) []binding.Row {
	seen := map[string]bool{}
	var out []binding.Row
	for _, row := range rows {
		var b strings.Builder
		for _, v := range vars {
			b.WriteString(v)
			b.WriteByte('=')
			if t, ok := row[v]; ok {
				b.WriteString(t.String())
			}
			b.WriteByte('\x1f')
		}
		key := b.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// sortRows sorts rows in place by keys, evaluated against the pre-projection
// row (so a sort key may reference a variable never in the SELECT list).
// Per SPARQL 1.1 §15.1, an Unbound sort key value sorts lowest, and multiple
// keys break ties left to right.
func sortRows(rows []binding.Row, keys []query.OrderKey, envFor func(binding.Row) expr.Env, names map[string]string) {
	exprs := make([]query.Expr, len(keys))
	for i, k := range keys {
		exprs[i] = substituteAggregates(k.Expr, names)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		envI := envFor(rows[i])
		envJ := envFor(rows[j])
		for k, e := range exprs {
			vi := expr.Eval(e, envI)
			vj := expr.Eval(e, envJ)
			cmp, less := compareForSort(vi, vj)
			if cmp == 0 {
				continue
			}
			if keys[k].Desc {
				return !less
			}
			return less
		}
		return false
	})
}

// compareForSort orders two sort-key values, returning a nonzero cmp and the
// resulting less-than relation whenever the two differ; value.Compare's
// "undefined ordering" case (cmp==0,ok==false) and any Unbound operand fall
// back to a total ordering by kind then by rendered term, so the sort is
// always well-defined even across mixed/incomparable types.
func compareForSort(a, b value.Value) (cmp int, less bool) {
	if a.IsUnbound() && b.IsUnbound() {
		return 0, false
	}
	if a.IsUnbound() {
		return -1, true
	}
	if b.IsUnbound() {
		return 1, false
	}
	if c, ok := value.Compare(a, b); ok {
		if c == 0 {
			return 0, false
		}
		return c, c < 0
	}
	at, _ := termOfValue(a)
	bt, _ := termOfValue(b)
	as, bs := at.String(), bt.String()
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, false
	default:
		return 0, false
	}
}
