package update

import (
	"context"
	"fmt"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
	"github.com/badwolf-labs/sparqlcore/store"
)

// ExecuteModify applies DELETE WHERE and DELETE/INSERT ... WHERE (spec.md
// §4.13): stmt.Where is run as a plain SELECT * (via e.Driver.RunPattern),
// and for every resulting solution each template pattern is instantiated —
// skipped if any of its variable positions is unbound in that solution —
// and the resulting ground triples are removed (DeleteTemplate) and added
// (InsertTemplate) to the WITH graph, or the default graph if no WITH
// clause is present. USING/USING NAMED override the WHERE clause's dataset
// independently of WITH, per SPARQL 1.1 §3.1.3.
//
// Template patterns here are not individually GRAPH-scoped (query.
// ModifyStatement carries one flat []TriplePattern per template), so every
// instantiated triple targets the single resolved WITH/default graph; this
// is the simplification DESIGN.md records for the per-triple GRAPH wrapping
// SPARQL 1.1's full grammar otherwise allows inside a Modify template.
func (e *Executor) ExecuteModify(ctx context.Context, stmt *query.ModifyStatement) (UpdateResult, error) {
	targetGraphID := store.DefaultGraphID
	if stmt.HasWith {
		targetGraphID = stmt.With.Value()
	}

	ds := query.Dataset{Default: stmt.UsingDefault, Named: stmt.UsingNamed}
	if len(ds.Default) == 0 && len(ds.Named) == 0 && stmt.HasWith {
		ds.Default = []rdf.Term{stmt.With}
	}

	rows, err := e.Driver.RunPattern(ctx, stmt.Where, ds)
	if err != nil {
		return fail(false, fmt.Errorf("update.ExecuteModify: %w", err))
	}

	g, err := ensureGraph(ctx, e.Store, targetGraphID)
	if err != nil {
		return fail(false, fmt.Errorf("update.ExecuteModify: %w", err))
	}

	var toDelete, toInsert []quad.Quad
	for _, row := range rows {
		for _, tp := range stmt.DeleteTemplate {
			if q, ok := instantiate(tp, row, targetGraphID); ok {
				toDelete = append(toDelete, q)
			}
		}
		for _, tp := range stmt.InsertTemplate {
			if q, ok := instantiate(tp, row, targetGraphID); ok {
				toInsert = append(toInsert, q)
			}
		}
	}

	if len(toDelete) > 0 {
		if err := g.RemoveQuads(ctx, toDelete); err != nil {
			return fail(false, fmt.Errorf("update.ExecuteModify: %w", err))
		}
	}
	if len(toInsert) > 0 {
		if err := g.AddQuads(ctx, toInsert); err != nil {
			return fail(false, fmt.Errorf("update.ExecuteModify: %w", err))
		}
	}

	return UpdateResult{Success: true, AffectedCount: int64(len(toDelete) + len(toInsert))}, nil
}

func instantiate(tp query.TriplePattern, row binding.Row, graphID string) (quad.Quad, bool) {
	s, ok := resolveTemplateTerm(tp.S, row)
	if !ok {
		return quad.Quad{}, false
	}
	p, ok := resolveTemplateTerm(tp.EffectivePredicate(), row)
	if !ok {
		return quad.Quad{}, false
	}
	o, ok := resolveTemplateTerm(tp.O, row)
	if !ok {
		return quad.Quad{}, false
	}
	q, err := quad.New(s, p, o, graphTermFor(graphID))
	if err != nil {
		return quad.Quad{}, false
	}
	return q, true
}

func resolveTemplateTerm(t rdf.Term, row binding.Row) (rdf.Term, bool) {
	if t.Kind() != rdf.Variable {
		return t, true
	}
	v, ok := row[t.Value()]
	return v, ok
}
