package driver

import (
	"fmt"
	"strings"

	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Accumulator generalizes the teacher's bql/table.go Accumulator interface
// (Accumulate/Reset over *table.Cell) to the full SPARQL aggregate set
// spec.md §4.10 names: COUNT, SUM, MIN, MAX, AVG, SAMPLE, GROUP_CONCAT, each
// optionally DISTINCT. Where the teacher's accumulators only ever saw int64
// or float64 literal cells, these operate over the tagged value.Value union
// so a single accumulator type handles whatever the aggregate's argument
// expression actually produces.
type Accumulator interface {
	// Accumulate folds one more row's evaluated argument value into the
	// accumulator's running state.
	Accumulate(v value.Value)
	// Result returns the aggregate's final value once every row in the
	// group has been accumulated.
	Result() value.Value
}

func newAccumulator(op string, distinct bool, separator string) Accumulator {
	var base Accumulator
	switch op {
	case "COUNT":
		base = &countAcc{}
	case "SUM":
		base = &sumAcc{}
	case "MIN":
		base = &minMaxAcc{wantMax: false}
	case "MAX":
		base = &minMaxAcc{wantMax: true}
	case "AVG":
		base = &avgAcc{}
	case "SAMPLE":
		base = &sampleAcc{}
	case "GROUP_CONCAT":
		if separator == "" {
			separator = " "
		}
		base = &groupConcatAcc{separator: separator}
	default:
		base = &sampleAcc{}
	}
	if distinct {
		return &distinctAcc{inner: base, seen: map[string]bool{}}
	}
	return base
}

// distinctAcc wraps another Accumulator, feeding it only the first
// occurrence of each distinct value.Value it sees (SPARQL's DISTINCT
// aggregate modifier), generalizing bql/table.go's countDistinctAcc to any
// underlying aggregate, not just COUNT.
type distinctAcc struct {
	inner Accumulator
	seen  map[string]bool
}

func valueKey(v value.Value) string {
	t, ok := v.Term()
	if ok {
		return t.String()
	}
	switch v.Kind() {
	case value.Int64:
		return fmt.Sprintf("i:%d", v.Int64())
	case value.F64:
		return fmt.Sprintf("f:%g", v.F64())
	case value.Bool:
		return fmt.Sprintf("b:%t", v.Bool())
	case value.Str:
		return "s:" + v.Str()
	default:
		return "u"
	}
}

func (d *distinctAcc) Accumulate(v value.Value) {
	k := valueKey(v)
	if d.seen[k] {
		return
	}
	d.seen[k] = true
	d.inner.Accumulate(v)
}

func (d *distinctAcc) Result() value.Value { return d.inner.Result() }

// countAcc implements COUNT(expr) / COUNT(*); Unbound arguments are skipped
// (an unbound COUNT(?x) argument means ?x had no value to count for that
// row), matching SPARQL's "COUNT counts non-error bindings" rule.
type countAcc struct {
	n int64
}

func (c *countAcc) Accumulate(v value.Value) {
	if v.IsUnbound() {
		return
	}
	c.n++
}

func (c *countAcc) Result() value.Value { return value.NewInt64(c.n) }

// sumAcc implements SUM, promoting to F64 the moment any non-Int64 operand
// appears, mirroring value.Add's own promotion rule.
type sumAcc struct {
	started bool
	acc     value.Value
}

func (s *sumAcc) Accumulate(v value.Value) {
	if v.IsUnbound() {
		return
	}
	if !s.started {
		s.started = true
		s.acc = v
		return
	}
	s.acc = value.Add(s.acc, v)
}

func (s *sumAcc) Result() value.Value {
	if !s.started {
		return value.NewInt64(0)
	}
	return s.acc
}

// minMaxAcc implements MIN/MAX via value.Compare's total-ish ordering;
// operands Compare finds incomparable are skipped rather than collapsing the
// whole aggregate to Unbound.
type minMaxAcc struct {
	wantMax bool
	started bool
	best    value.Value
}

func (m *minMaxAcc) Accumulate(v value.Value) {
	if v.IsUnbound() {
		return
	}
	if !m.started {
		m.started = true
		m.best = v
		return
	}
	cmp, ok := value.Compare(v, m.best)
	if !ok {
		return
	}
	if (m.wantMax && cmp > 0) || (!m.wantMax && cmp < 0) {
		m.best = v
	}
}

func (m *minMaxAcc) Result() value.Value {
	if !m.started {
		return value.UnboundValue
	}
	return m.best
}

// avgAcc implements AVG as a running sum plus count, dividing at Result
// time; an empty group averages to 0 per SPARQL 1.1 §11.4.2.7.
type avgAcc struct {
	sum sumAcc
	n   int64
}

func (a *avgAcc) Accumulate(v value.Value) {
	if v.IsUnbound() {
		return
	}
	a.sum.Accumulate(v)
	a.n++
}

func (a *avgAcc) Result() value.Value {
	if a.n == 0 {
		return value.NewInt64(0)
	}
	return value.Div(a.sum.Result(), value.NewInt64(a.n))
}

// sampleAcc implements SAMPLE(expr): any one value from the group, here the
// first one seen for determinism.
type sampleAcc struct {
	started bool
	v       value.Value
}

func (s *sampleAcc) Accumulate(v value.Value) {
	if s.started {
		return
	}
	s.started = true
	s.v = v
}

func (s *sampleAcc) Result() value.Value {
	if !s.started {
		return value.UnboundValue
	}
	return s.v
}

// groupConcatAcc implements GROUP_CONCAT(expr; SEPARATOR="...").
type groupConcatAcc struct {
	separator string
	parts     []string
}

func (g *groupConcatAcc) Accumulate(v value.Value) {
	if v.IsUnbound() {
		return
	}
	if v.Kind() == value.Str || v.Kind() == value.IRI {
		g.parts = append(g.parts, v.Str())
		return
	}
	t, err := v.ToTerm()
	if err != nil {
		return
	}
	if t.Kind() == rdf.Literal {
		g.parts = append(g.parts, t.Lexical())
		return
	}
	g.parts = append(g.parts, t.Value())
}

func (g *groupConcatAcc) Result() value.Value {
	return value.NewStr(strings.Join(g.parts, g.separator))
}
