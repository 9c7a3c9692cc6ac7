package query

import (
	"fmt"

	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Expr is the FILTER/BIND expression AST (spec.md §4.9). The grammar is
// recursive-descent with precedence Comparison ≻ Additive ≻ Multiplicative ≻
// Unary ≻ Primary; this package only fixes the resulting tree shape, the
// precedence climbing itself lives in the external parser.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// VarRef references a bound (or possibly unbound) variable.
type VarRef struct{ Name string }

func (VarRef) isExpr()         {}
func (v VarRef) String() string { return "?" + v.Name }

// Lit is a literal/IRI constant embedded in the expression.
type Lit struct{ Term rdf.Term }

func (Lit) isExpr()          {}
func (l Lit) String() string { return l.Term.String() }

// BinOp is a binary operator node. Op is one of:
// "+", "-", "*", "/", "=", "!=", "<", "<=", ">", ">=", "&&", "||".
type BinOp struct {
	Op   string
	L, R Expr
}

func (BinOp) isExpr() {}
func (b BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.L, b.Op, b.R)
}

// UnaryOp is a unary operator node. Op is one of "!", "-", "+".
type UnaryOp struct {
	Op string
	X  Expr
}

func (UnaryOp) isExpr() {}
func (u UnaryOp) String() string {
	return fmt.Sprintf("%s%s", u.Op, u.X)
}

// FuncCall is a built-in function or XSD cast application (spec.md §4.9).
// Name is the upper-cased function name or the XSD datatype IRI for casts.
type FuncCall struct {
	Name string
	Args []Expr
}

func (FuncCall) isExpr() {}
func (f FuncCall) String() string {
	return fmt.Sprintf("%s(%v)", f.Name, f.Args)
}

// Exists is a FILTER EXISTS / FILTER NOT EXISTS node (spec.md §4.8).
type Exists struct {
	Not     bool
	Pattern *GraphPattern
}

func (Exists) isExpr() {}
func (e Exists) String() string {
	if e.Not {
		return "NOT EXISTS {...}"
	}
	return "EXISTS {...}"
}

// Aggregate is a SELECT-projection or HAVING aggregate expression
// (spec.md §4.10): COUNT, SUM, MIN, MAX, AVG, SAMPLE, GROUP_CONCAT.
type Aggregate struct {
	Op        string
	Distinct  bool
	Arg       Expr // nil for COUNT(*)
	Separator string
}

func (Aggregate) isExpr() {}
func (a Aggregate) String() string {
	d := ""
	if a.Distinct {
		d = "DISTINCT "
	}
	if a.Arg == nil {
		return fmt.Sprintf("%s(%s*)", a.Op, d)
	}
	return fmt.Sprintf("%s(%s%s)", a.Op, d, a.Arg)
}

// Variables returns the distinct variable names an expression references,
// used by the planner for filter-pushdown bindability checks (spec.md §4.11).
func Variables(e Expr) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case VarRef:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case BinOp:
			walk(v.L)
			walk(v.R)
		case UnaryOp:
			walk(v.X)
		case FuncCall:
			for _, a := range v.Args {
				walk(a)
			}
		case Aggregate:
			if v.Arg != nil {
				walk(v.Arg)
			}
		case Exists:
			// EXISTS/NOT EXISTS introduces its own local scope; the outer
			// variables it shares with the candidate solution are whatever
			// the nested pattern's triple patterns reference, not walked
			// here since they bind inside the nested scan, not the outer one.
		}
	}
	walk(e)
	return out
}
