package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
)

// RowsRunner executes some self-contained unit of work (a nested SELECT, or
// a federated SERVICE request) against the outer row's bindings and returns
// every resulting solution, fully materialized. scan never calls back into
// engine/driver directly (that would cycle); the driver supplies this
// closure instead, closing over whatever it needs to actually run the
// nested query or the HTTP request.
type RowsRunner func(ctx context.Context, outer binding.Row) ([]binding.Row, error)

// RowsScan replays a materialized RowsRunner result as a sequence of
// solutions, joined against the outer table the same way any other Scan is
// (spec.md §4.6's subqueries, §4.12's SERVICE). The same type backs both a
// correlated/uncorrelated SubSelect and a SERVICE clause — the only
// difference is what the driver's RowsRunner does internally (run a nested
// SelectStatement vs. issue a federated request, possibly through an
// indexed materialization cache per engine/service).
type RowsScan struct {
	run RowsRunner

	started    bool
	checkpoint int
	rows       []binding.Row
	next       int
}

// NewRowsScan returns a scan driven by run.
func NewRowsScan(run RowsRunner) *RowsScan {
	return &RowsScan{run: run}
}

func (s *RowsScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if !s.started {
		s.started = true
		s.checkpoint = tbl.Checkpoint()
		outer := tbl.Snapshot()
		rows, err := s.run(ctx, outer)
		if err != nil {
			return false, err
		}
		s.rows = rows
		s.next = 0
	}

	for s.next < len(s.rows) {
		row := s.rows[s.next]
		s.next++
		tbl.Truncate(s.checkpoint)
		if row.ApplyTo(tbl) {
			return true, nil
		}
	}
	tbl.Truncate(s.checkpoint)
	return false, nil
}

func (s *RowsScan) Close() {}
