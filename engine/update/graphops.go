package update

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/store"
)

// ExecuteClearDrop applies CLEAR/DROP [SILENT] target (spec.md §4.13): every
// quad in every graph the target denotes is removed; DROP additionally
// removes the graph itself (the default graph is never deleted, only
// cleared). Multiple graphs — TargetAll/TargetNamed can name many — are
// cleared concurrently via errgroup.WithContext, the same fan-out shape
// bql/planner/planner.go's update() uses to apply a batch of table mutations
// in parallel.
func (e *Executor) ExecuteClearDrop(ctx context.Context, stmt *query.ClearDropStatement) (UpdateResult, error) {
	targets, err := resolveTargets(ctx, e.Store, stmt.Target)
	if err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteClearDrop: %w", err))
	}

	grp, gCtx := errgroup.WithContext(ctx)
	var affected int64
	for _, g := range targets {
		g := g
		grp.Go(func() error {
			qs, err := drainAll(gCtx, g)
			if err != nil {
				return err
			}
			if len(qs) > 0 {
				if err := g.RemoveQuads(gCtx, qs); err != nil {
					return err
				}
				atomic.AddInt64(&affected, int64(len(qs)))
			}
			if stmt.Drop && g.ID(gCtx) != store.DefaultGraphID {
				if err := e.Store.DeleteGraph(gCtx, g.ID(gCtx)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteClearDrop: %w", err))
	}
	return UpdateResult{Success: true, AffectedCount: affected}, nil
}

// ExecuteCreate applies CREATE [SILENT] GRAPH <iri> (spec.md §4.13): a
// no-op beyond bringing the named graph into existence, failing (unless
// SILENT) if it already exists per SPARQL 1.1 §3.4.
func (e *Executor) ExecuteCreate(ctx context.Context, stmt *query.CreateStatement) (UpdateResult, error) {
	if stmt.Target.Kind != query.TargetGraph {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteCreate: CREATE requires a concrete graph IRI"))
	}
	if _, err := e.Store.NewGraph(ctx, stmt.Target.IRI.Value()); err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteCreate: %w", err))
	}
	return UpdateResult{Success: true, AffectedCount: 1}, nil
}

// ExecuteCopyMoveAdd applies COPY/MOVE/ADD [SILENT] src TO dst (spec.md
// §4.13): dst's existing content is cleared first for COPY and MOVE (not
// ADD), then every quad from src is re-homed into dst and added; MOVE
// additionally clears src afterward. src equal to dst is a specified no-op.
func (e *Executor) ExecuteCopyMoveAdd(ctx context.Context, stmt *query.CopyMoveAddStatement) (UpdateResult, error) {
	if sameTarget(stmt.Src, stmt.Dst) {
		return UpdateResult{Success: true}, nil
	}

	srcG, err := resolveOne(ctx, e.Store, stmt.Src)
	if err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
	}
	dstG, err := resolveOne(ctx, e.Store, stmt.Dst)
	if err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
	}

	if stmt.Op != query.OpAdd {
		existing, err := drainAll(ctx, dstG)
		if err != nil {
			return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
		}
		if len(existing) > 0 {
			if err := dstG.RemoveQuads(ctx, existing); err != nil {
				return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
			}
		}
	}

	srcQuads, err := drainAll(ctx, srcG)
	if err != nil {
		return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
	}
	dstID := dstG.ID(ctx)
	retargeted := make([]quad.Quad, 0, len(srcQuads))
	for _, q := range srcQuads {
		nq, err := quad.New(q.S(), q.P(), q.O(), graphTermFor(dstID))
		if err != nil {
			continue
		}
		retargeted = append(retargeted, nq)
	}
	if len(retargeted) > 0 {
		if err := dstG.AddQuads(ctx, retargeted); err != nil {
			return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
		}
	}

	if stmt.Op == query.OpMove && len(srcQuads) > 0 {
		if err := srcG.RemoveQuads(ctx, srcQuads); err != nil {
			return fail(stmt.Silent, fmt.Errorf("update.ExecuteCopyMoveAdd: %w", err))
		}
	}

	return UpdateResult{Success: true, AffectedCount: int64(len(retargeted))}, nil
}
