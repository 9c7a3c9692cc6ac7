package update

import (
	"context"
	"fmt"

	"github.com/badwolf-labs/sparqlcore/query"
)

// ExecuteStatement dispatches stmt to the matching Execute* method by its
// concrete type, the single entry point a caller driving a parsed update
// request (one of the seven statement shapes query/update.go defines) needs,
// mirroring how bql/planner.Executor exposes one Execute method over its own
// statement variants.
func (e *Executor) ExecuteStatement(ctx context.Context, stmt interface{}) (UpdateResult, error) {
	switch s := stmt.(type) {
	case *query.InsertDataStatement:
		return e.ExecuteInsertData(ctx, s)
	case *query.DeleteDataStatement:
		return e.ExecuteDeleteData(ctx, s)
	case *query.ModifyStatement:
		return e.ExecuteModify(ctx, s)
	case *query.ClearDropStatement:
		return e.ExecuteClearDrop(ctx, s)
	case *query.CreateStatement:
		return e.ExecuteCreate(ctx, s)
	case *query.CopyMoveAddStatement:
		return e.ExecuteCopyMoveAdd(ctx, s)
	case *query.LoadStatement:
		return e.ExecuteLoad(ctx, s)
	default:
		return UpdateResult{}, fmt.Errorf("update.ExecuteStatement: unsupported statement type %T", stmt)
	}
}
