package value

import "math"

// Add implements SPARQL numeric addition with the promotion rule of
// spec.md §4.9/§8: Int64 op Int64 stays Int64 when representable in 64 bits,
// any other numeric mix promotes to F64, and a non-numeric operand collapses
// the whole expression to Unbound.
func Add(a, b Value) Value { return arith(a, b, func(x, y int64) (int64, bool) {
	s := x + y
	if (s-y != x) || ((x < 0) == (y < 0) && (s < 0) != (x < 0)) {
		return 0, false
	}
	return s, true
}, func(x, y float64) float64 { return x + y }) }

// Sub implements SPARQL numeric subtraction.
func Sub(a, b Value) Value { return arith(a, b, func(x, y int64) (int64, bool) {
	d := x - y
	if (y > 0 && d > x) || (y < 0 && d < x) {
		return 0, false
	}
	return d, true
}, func(x, y float64) float64 { return x - y }) }

// Mul implements SPARQL numeric multiplication.
func Mul(a, b Value) Value { return arith(a, b, func(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	p := x * y
	if p/y != x || (x == math.MinInt64 && y == -1) {
		return 0, false
	}
	return p, true
}, func(x, y float64) float64 { return x * y }) }

// Div implements SPARQL numeric division: always promotes to F64 per SPARQL
// 1.1 (division is never integer division), and divide-by-zero yields
// Unbound (spec.md §4.9).
func Div(a, b Value) Value {
	af, aok := a.AsFloat64()
	bf, bok := b.AsFloat64()
	if !aok || !bok {
		return UnboundValue
	}
	if bf == 0 {
		return UnboundValue
	}
	r := af / bf
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return UnboundValue
	}
	return NewF64(r)
}

// Neg implements unary negation.
func Neg(a Value) Value {
	switch a.kind {
	case Int64:
		if a.i == math.MinInt64 {
			return NewF64(-float64(a.i))
		}
		return NewInt64(-a.i)
	case F64:
		return NewF64(-a.f)
	default:
		return UnboundValue
	}
}

func arith(a, b Value, intOp func(x, y int64) (int64, bool), floatOp func(x, y float64) float64) Value {
	if !isNumeric(a.kind) || !isNumeric(b.kind) {
		return UnboundValue
	}
	if a.kind == Int64 && b.kind == Int64 {
		if r, ok := intOp(a.i, b.i); ok {
			return NewInt64(r)
		}
	}
	af, aok := a.AsFloat64()
	bf, bok := b.AsFloat64()
	if !aok || !bok {
		return UnboundValue
	}
	r := floatOp(af, bf)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return UnboundValue
	}
	return NewF64(r)
}
