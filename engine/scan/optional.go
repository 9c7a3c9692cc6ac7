package scan

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
)

type optionalState uint8

const (
	optRunning optionalState = iota
	optDefaultEmitted
	optDone
)

// OptionalScan implements OPTIONAL (spec.md §4.5): every solution of inner
// that is compatible with the current row is emitted with its extra
// bindings; if inner never matches at all, exactly one row is emitted
// unchanged (the left-outer-join null extension). There is no teacher
// analogue — BQL has no OPTIONAL — so this follows the scan package's own
// Next/Close pull contract rather than any ported code.
type OptionalScan struct {
	inner Factory

	started    bool
	checkpoint int
	scan       Scan
	matchedAny bool
	state      optionalState
}

// NewOptionalScan returns a scan applying the OPTIONAL pattern built by
// inner on top of whatever the outer scan has already bound.
func NewOptionalScan(inner Factory) *OptionalScan {
	return &OptionalScan{inner: inner}
}

func (o *OptionalScan) Next(ctx context.Context, tbl *binding.Table) (bool, error) {
	if !o.started {
		o.started = true
		o.checkpoint = tbl.Checkpoint()
		o.scan = o.inner()
		o.state = optRunning
	}

	switch o.state {
	case optRunning:
		ok, err := o.scan.Next(ctx, tbl)
		if err != nil {
			return false, err
		}
		if ok {
			o.matchedAny = true
			return true, nil
		}
		o.scan.Close()
		tbl.Truncate(o.checkpoint)
		if !o.matchedAny {
			o.state = optDefaultEmitted
			return true, nil
		}
		o.state = optDone
		return false, nil

	case optDefaultEmitted:
		o.state = optDone
		tbl.Truncate(o.checkpoint)
		return false, nil

	default:
		return false, nil
	}
}

func (o *OptionalScan) Close() {
	if o.scan != nil && o.state == optRunning {
		o.scan.Close()
	}
}
