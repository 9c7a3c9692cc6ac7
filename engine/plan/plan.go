// Package plan compiles a parsed query.GraphPattern into a scan.Factory
// tree the driver can run, generalizing the teacher's
// bql/planner/planner.go queryPlan: that function walked a BQL WHERE
// clause's semantic.GraphClause list, grouped them by shared bindings
// (organizeClausesByBinding), and built one data_access fetch per group.
// Compile performs the analogous walk over a SPARQL GraphPattern's richer
// clause set (OPTIONAL/UNION/MINUS/GRAPH/SERVICE/subquery/VALUES/BIND/
// FILTER, none of which BQL has), but targets the scan package's pull
// iterators instead of materialized bql.Table joins.
package plan

import (
	"context"
	"sort"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/engine/cancel"
	"github.com/badwolf-labs/sparqlcore/engine/expr"
	"github.com/badwolf-labs/sparqlcore/engine/scan"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// Hooks supplies the callbacks Compile needs but cannot implement itself
// without importing engine/driver (which imports plan, so the dependency
// must run the other way): constructing a per-row expression Env, and
// running a nested subquery or a federated SERVICE request to completion.
type Hooks struct {
	NewEnv      func(ctx context.Context, tbl *binding.Table) expr.Env
	RunSubquery func(ctx context.Context, sub *query.SubSelect, outer binding.Row) ([]binding.Row, error)
	RunService  func(ctx context.Context, svc *query.ServiceClause, outer binding.Row) ([]binding.Row, error)

	// NamedGraphs lists the graphs a GRAPH ?var clause ranges over: either
	// the dataset's explicit FROM NAMED set, or (absent one) every graph the
	// store advertises (spec.md §9 REDESIGN FLAG (c)).
	NamedGraphs func(ctx context.Context) ([]string, error)
}

// Compile builds a Factory evaluating pattern against g (the graph active
// for this scope — the dataset's default-graph composite, or one named
// graph inside a GRAPH clause). st is the store, needed only to resolve
// GRAPH ?var {...} and named-graph membership.
func Compile(ctx context.Context, pattern *query.GraphPattern, g store.Graph, st store.Store, tok cancel.Token, hooks Hooks) (scan.Factory, error) {
	if pattern.IsEmpty() {
		return func() scan.Scan { return scan.NewJoinScan(nil) }, nil
	}

	var factories []scan.Factory
	var provides [][]string

	// Join order within this level follows spec.md §4.11's cardinality
	// heuristic: patterns with more constant positions are assumed more
	// selective and run first, reducing the nested-loop's branching factor
	// before the less selective (more variable) patterns join against
	// whatever they already bound. Ties keep the source order (stable sort)
	// per spec.md §4.4's "in its absence the source order is used".
	ordered := make([]query.TriplePattern, len(pattern.Patterns))
	copy(ordered, pattern.Patterns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return constantCount(ordered[i]) > constantCount(ordered[j])
	})
	for _, tp := range ordered {
		tp := tp
		factories = append(factories, func() scan.Scan {
			if tp.Path != nil {
				return scan.NewPropertyPathScan(g, tp, tok)
			}
			return scan.NewTriplePatternScan(g, tp, tok)
		})
		provides = append(provides, tp.Variables())
	}

	for _, opt := range pattern.Optionals {
		inner, err := Compile(ctx, opt, g, st, tok, hooks)
		if err != nil {
			return nil, err
		}
		factories = append(factories, func() scan.Scan { return scan.NewOptionalScan(inner) })
		// An OPTIONAL may leave its variables unbound (spec.md §4.5), so it
		// provides nothing a filter can safely depend on for pushdown.
		provides = append(provides, nil)
	}

	if len(pattern.Unions) > 0 {
		var branchFactories []scan.Factory
		var common []string
		for i, br := range pattern.Unions {
			branch, err := Compile(ctx, br.Pattern, g, st, tok, hooks)
			if err != nil {
				return nil, err
			}
			branchFactories = append(branchFactories, branch)
			vs := patternVariables(br.Pattern)
			if i == 0 {
				common = vs
			} else {
				common = intersect(common, vs)
			}
		}
		factories = append(factories, func() scan.Scan { return scan.NewUnionScan(branchFactories) })
		provides = append(provides, common)
	}

	for _, mn := range pattern.Minus {
		minusFactory, err := Compile(ctx, mn, g, st, tok, hooks)
		if err != nil {
			return nil, err
		}
		factories = append(factories, scan.NewMinusFactory(patternVariables(mn), minusFactory))
		// MINUS never introduces new outer bindings, only excludes rows.
		provides = append(provides, nil)
	}

	for _, gc := range pattern.Graphs {
		gc := gc
		if gc.Var == "" {
			g2, err := st.Graph(ctx, gc.IRI.Value())
			if err != nil {
				return nil, err
			}
			inner, err := Compile(ctx, gc.Pattern, g2, st, tok, hooks)
			if err != nil {
				return nil, err
			}
			factories = append(factories, inner)
			provides = append(provides, patternVariables(gc.Pattern))
			continue
		}
		factories = append(factories, func() scan.Scan {
			return scan.NewVariableGraphScan(hooks.NamedGraphs, st.Graph, gc.Var, func(g2 store.Graph) scan.Factory {
				f, err := Compile(ctx, gc.Pattern, g2, st, tok, hooks)
				if err != nil {
					return func() scan.Scan { return scan.NewGuardScan(func(context.Context, *binding.Table) (bool, error) { return false, err }) }
				}
				return f
			})
		})
		provides = append(provides, append([]string{gc.Var}, patternVariables(gc.Pattern)...))
	}

	for _, svc := range pattern.Services {
		svc := svc
		factories = append(factories, func() scan.Scan {
			return scan.NewRowsScan(func(ctx context.Context, outer binding.Row) ([]binding.Row, error) {
				return hooks.RunService(ctx, &svc, outer)
			})
		})
		// SERVICE's projected variables aren't known statically; filters
		// referencing them fall back to evaluating at the very end.
		provides = append(provides, nil)
	}

	for _, sq := range pattern.SubQueries {
		sq := sq
		factories = append(factories, func() scan.Scan {
			return scan.NewRowsScan(func(ctx context.Context, outer binding.Row) ([]binding.Row, error) {
				return hooks.RunSubquery(ctx, sq, outer)
			})
		})
		provides = append(provides, subqueryVariables(sq))
	}

	if pattern.Values != nil {
		vb := pattern.Values
		factories = append(factories, func() scan.Scan { return scan.NewValuesScan(vb) })
		provides = append(provides, append([]string{}, vb.Vars...))
	}

	for _, bc := range pattern.Binds {
		bc := bc
		factories = append(factories, func() scan.Scan {
			return scan.NewGuardScan(func(ctx context.Context, tbl *binding.Table) (bool, error) {
				env := hooks.NewEnv(ctx, tbl)
				v := expr.Eval(bc.Expr, env)
				if v.IsUnbound() {
					return true, nil
				}
				term, err := v.ToTerm()
				if err != nil {
					return true, nil
				}
				return tbl.Bind(bc.Var, term), nil
			})
		})
		provides = append(provides, []string{bc.Var})
	}

	// Filter pushdown (spec.md §4.11): each filter is spliced in right after
	// the earliest position whose cumulative provides set covers every
	// variable the filter references, so it rejects a candidate as soon as
	// possible instead of only after the whole join completes. A filter
	// whose variables are never fully covered (e.g. it references a SERVICE
	// or subquery projection) stays at the very end, matching the spec's
	// fallback ("unbindable filters are evaluated post-join").
	cum := make([]map[string]bool, len(factories)+1)
	cum[0] = map[string]bool{}
	for i, p := range provides {
		next := make(map[string]bool, len(cum[i])+len(p))
		for k := range cum[i] {
			next[k] = true
		}
		for _, v := range p {
			next[v] = true
		}
		cum[i+1] = next
	}

	type pending struct {
		pos int
		fn  scan.Factory
	}
	var toInsert []pending
	for _, f := range pattern.Filters {
		f := f
		req := query.Variables(f)
		pos := len(factories)
		for i := 0; i <= len(factories); i++ {
			if containsAll(cum[i], req) {
				pos = i
				break
			}
		}
		toInsert = append(toInsert, pending{pos, func() scan.Scan {
			return scan.NewGuardScan(func(ctx context.Context, tbl *binding.Table) (bool, error) {
				env := hooks.NewEnv(ctx, tbl)
				pass, ok := expr.EvalFilter(f, env)
				if !ok {
					return false, nil
				}
				return pass, nil
			})
		}})
	}
	sort.SliceStable(toInsert, func(i, j int) bool { return toInsert[i].pos < toInsert[j].pos })

	var final []scan.Factory
	ti := 0
	for i := 0; i <= len(factories); i++ {
		for ti < len(toInsert) && toInsert[ti].pos == i {
			final = append(final, toInsert[ti].fn)
			ti++
		}
		if i < len(factories) {
			final = append(final, factories[i])
		}
	}
	factories = final

	fs := factories
	return func() scan.Scan { return scan.NewJoinScan(fs) }, nil
}

// constantCount counts tp's non-Variable positions, used as the selectivity
// proxy spec.md §4.11 names ("count of constants in a pattern").
func constantCount(tp query.TriplePattern) int {
	n := 0
	if tp.S.Kind() != rdf.Variable {
		n++
	}
	if tp.Path == nil && tp.P.Kind() != rdf.Variable {
		n++
	}
	if tp.O.Kind() != rdf.Variable {
		n++
	}
	return n
}

func containsAll(have map[string]bool, want []string) bool {
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}

func intersect(a, b []string) []string {
	bset := make(map[string]bool, len(b))
	for _, v := range b {
		bset[v] = true
	}
	var out []string
	for _, v := range a {
		if bset[v] {
			out = append(out, v)
		}
	}
	return out
}

// subqueryVariables returns the variable names a SubSelect projects, used
// for filter-pushdown coverage when the outer filter only needs the
// subquery's own output columns.
func subqueryVariables(sq *query.SubSelect) []string {
	if sq.Stmt.Star {
		return nil
	}
	var out []string
	for _, p := range sq.Stmt.Projections {
		if p.Kind == query.ProjectVar {
			out = append(out, p.Var)
		} else {
			out = append(out, p.Alias)
		}
	}
	return out
}

// patternVariables collects every variable name referenced by pattern's own
// triple patterns and, recursively, by its OPTIONAL and UNION sub-patterns,
// used for MINUS's domain-overlap rule (spec.md §4.5).
func patternVariables(pattern *query.GraphPattern) []string {
	seen := map[string]bool{}
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, tp := range pattern.Patterns {
		add(tp.Variables())
	}
	for _, opt := range pattern.Optionals {
		add(patternVariables(opt))
	}
	for _, br := range pattern.Unions {
		add(patternVariables(br.Pattern))
	}
	return out
}
