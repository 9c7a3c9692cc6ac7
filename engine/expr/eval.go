package expr

import (
	"math"

	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Eval evaluates e against env, following the SPARQL rule that a type error
// anywhere in the tree collapses the whole expression to Unbound rather than
// aborting evaluation (spec.md §4.9). Callers that need the stricter
// filter-rejection behavior (a top-level type error excludes the solution
// rather than merely producing an unbound column) should use EvalFilter.
func Eval(e query.Expr, env Env) value.Value {
	switch n := e.(type) {
	case query.VarRef:
		t, ok := env.Lookup(n.Name)
		if !ok {
			return value.UnboundValue
		}
		return value.FromTerm(t)

	case query.Lit:
		return value.FromTerm(n.Term)

	case query.UnaryOp:
		return evalUnary(n, env)

	case query.BinOp:
		return evalBinOp(n, env)

	case query.FuncCall:
		return evalFuncCall(n, env)

	case query.Exists:
		ok, err := env.ExistsMatch(n.Pattern)
		if err != nil {
			return value.UnboundValue
		}
		if n.Not {
			ok = !ok
		}
		return value.NewBool(ok)

	case query.Aggregate:
		// Aggregates are resolved by the group-by accumulator pass
		// (engine/driver) before expressions are evaluated per output row;
		// encountering one here means it was referenced outside a SELECT
		// projection or HAVING clause that the driver already substituted.
		return value.UnboundValue

	default:
		return value.UnboundValue
	}
}

// EvalFilter evaluates e as a FILTER condition: it returns the SPARQL
// effective boolean value, and ok=false when e produces a type error or an
// Unbound effective boolean value, signaling the caller to drop the solution
// (spec.md §4.9's FILTER semantics, distinct from a BIND producing an
// unbound column).
func EvalFilter(e query.Expr, env Env) (pass bool, ok bool) {
	v := Eval(e, env)
	return EffectiveBoolean(v)
}

// EffectiveBoolean implements the SPARQL effective boolean value (EBV)
// coercion: booleans pass through, numerics are true iff nonzero and not
// NaN, strings are true iff non-empty, and anything else (including
// Unbound, and IRIs) has no EBV.
func EffectiveBoolean(v value.Value) (b bool, ok bool) {
	switch v.Kind() {
	case value.Bool:
		return v.Bool(), true
	case value.Int64:
		return v.Int64() != 0, true
	case value.F64:
		f := v.F64()
		return f != 0 && !math.IsNaN(f), true
	case value.Str:
		return v.Str() != "", true
	default:
		return false, false
	}
}

func evalUnary(n query.UnaryOp, env Env) value.Value {
	x := Eval(n.X, env)
	switch n.Op {
	case "!":
		b, ok := EffectiveBoolean(x)
		if !ok {
			return value.UnboundValue
		}
		return value.NewBool(!b)
	case "-":
		return value.Neg(x)
	case "+":
		if x.Kind() == value.Int64 || x.Kind() == value.F64 {
			return x
		}
		return value.UnboundValue
	default:
		return value.UnboundValue
	}
}

func evalBinOp(n query.BinOp, env Env) value.Value {
	switch n.Op {
	case "&&":
		l := Eval(n.L, env)
		lb, lok := EffectiveBoolean(l)
		if lok && !lb {
			return value.NewBool(false)
		}
		r := Eval(n.R, env)
		rb, rok := EffectiveBoolean(r)
		if rok && !rb {
			return value.NewBool(false)
		}
		if lok && rok {
			return value.NewBool(lb && rb)
		}
		return value.UnboundValue
	case "||":
		l := Eval(n.L, env)
		lb, lok := EffectiveBoolean(l)
		if lok && lb {
			return value.NewBool(true)
		}
		r := Eval(n.R, env)
		rb, rok := EffectiveBoolean(r)
		if rok && rb {
			return value.NewBool(true)
		}
		if lok && rok {
			return value.NewBool(lb || rb)
		}
		return value.UnboundValue
	}

	l := Eval(n.L, env)
	r := Eval(n.R, env)

	switch n.Op {
	case "+":
		return value.Add(l, r)
	case "-":
		return value.Sub(l, r)
	case "*":
		return value.Mul(l, r)
	case "/":
		return value.Div(l, r)
	case "=":
		return value.NewBool(value.Equal(l, r))
	case "!=":
		return value.NewBool(value.NotEqual(l, r))
	case "<", "<=", ">", ">=":
		cmp, ok := value.Compare(l, r)
		if !ok {
			return value.UnboundValue
		}
		switch n.Op {
		case "<":
			return value.NewBool(cmp < 0)
		case "<=":
			return value.NewBool(cmp <= 0)
		case ">":
			return value.NewBool(cmp > 0)
		default:
			return value.NewBool(cmp >= 0)
		}
	default:
		return value.UnboundValue
	}
}

// termOf is a small helper built-ins use to recover the provenance term of
// an argument, synthesizing one when the value has none (e.g. an arithmetic
// intermediate).
func termOf(v value.Value) rdf.Term {
	if t, ok := v.Term(); ok {
		return t
	}
	t, err := v.ToTerm()
	if err != nil {
		return rdf.Term{}
	}
	return t
}
