// Package value implements the tagged Value type the expression evaluator
// produces and consumes (spec.md §4.9), generalizing the teacher's
// triple/literal.Literal tagged union (Bool/Int64/Float64/Text/Blob) to the
// SPARQL value taxonomy: Int64, F64, Bool, Str, IRI, Unbound.
package value

import (
	"fmt"
	"math"

	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	// Unbound marks a value that could not be computed (spec.md §4.9):
	// type errors, NaN/Inf results, divide-by-zero, or a genuinely unbound
	// variable reference all collapse to Unbound.
	Unbound Kind = iota
	Int64
	F64
	Bool
	Str
	IRI
)

func (k Kind) String() string {
	switch k {
	case Unbound:
		return "unbound"
	case Int64:
		return "int64"
	case F64:
		return "double"
	case Bool:
		return "boolean"
	case Str:
		return "string"
	case IRI:
		return "iri"
	default:
		return "unknownKind"
	}
}

// Value is the tagged result of evaluating a FILTER/BIND expression.
//
// Term, when non-zero, is the original RDF term the value was computed from
// (or should be re-serialized as): it carries datatype/language-tag
// provenance that STR/DATATYPE/LANG/STRLANG/STRDT need even once the
// numeric/boolean/string payload has been unpacked for arithmetic or
// comparison. Term is optional — values synthesized by arithmetic
// (e.g. 1 + 2) carry only the scalar payload, with Term left zero; ToTerm
// synthesizes a fresh xsd: term for those on demand.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	term rdf.Term
	hasTerm bool
}

// UnboundValue is the distinguished Unbound value.
var UnboundValue = Value{kind: Unbound}

// NewInt64 returns an Int64 value.
func NewInt64(i int64) Value { return Value{kind: Int64, i: i} }

// NewF64 returns an F64 value.
func NewF64(f float64) Value { return Value{kind: F64, f: f} }

// NewBool returns a Bool value.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewStr returns a Str value with no term provenance.
func NewStr(s string) Value { return Value{kind: Str, s: s} }

// NewStrFromTerm returns a Str value carrying the literal's provenance
// (datatype/lang), so CONCAT/STRBEFORE/STRAFTER can propagate a shared
// language tag (spec.md §4.9).
func NewStrFromTerm(s string, t rdf.Term) Value {
	return Value{kind: Str, s: s, term: t, hasTerm: true}
}

// NewIRI returns an IRI value.
func NewIRI(iri string) Value {
	return Value{kind: IRI, s: iri, term: rdf.NewIRI(iri), hasTerm: true}
}

// Kind returns v's tag.
func (v Value) Kind() Kind { return v.kind }

// IsUnbound reports whether v is the Unbound value.
func (v Value) IsUnbound() bool { return v.kind == Unbound }

// Int64 returns the int64 payload; valid only when Kind()==Int64.
func (v Value) Int64() int64 { return v.i }

// F64 returns the float64 payload; valid only when Kind()==F64.
func (v Value) F64() float64 { return v.f }

// Bool returns the bool payload; valid only when Kind()==Bool.
func (v Value) Bool() bool { return v.b }

// Str returns the string payload; valid for Kind() in {Str, IRI}.
func (v Value) Str() string { return v.s }

// Term returns the provenance term and whether one is attached.
func (v Value) Term() (rdf.Term, bool) { return v.term, v.hasTerm }

// Lang returns the attached term's language tag, if any.
func (v Value) Lang() string {
	if v.hasTerm {
		return v.term.Lang()
	}
	return ""
}

// AsFloat64 coerces any numeric or boolean Value to a float64; ok is false
// for non-numeric kinds.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case Int64:
		return float64(v.i), true
	case F64:
		return v.f, true
	case Bool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// FromTerm converts an RDF term into the Value tagged union, auto-detecting
// the XSD numeric tower and booleans the way literal auto-typing does at
// parse time (spec.md §3): IRIs become Kind IRI, xsd:integer-typed literals
// become Int64 (Unbound when the lexical form is not an integer or overflows),
// xsd:decimal/xsd:double become F64, xsd:boolean becomes Bool, everything
// else (plain/lang-tagged strings, other datatypes, blank nodes) becomes Str.
func FromTerm(t rdf.Term) Value {
	switch t.Kind() {
	case rdf.IRI:
		return Value{kind: IRI, s: t.Value(), term: t, hasTerm: true}
	case rdf.BlankNode:
		return Value{kind: Str, s: "_:" + t.Value(), term: t, hasTerm: true}
	case rdf.Literal:
		switch t.Datatype() {
		case rdf.XSDInteger:
			if n, ok := parseInt(t.Lexical()); ok {
				return Value{kind: Int64, i: n, term: t, hasTerm: true}
			}
			return Value{kind: Unbound}
		case rdf.XSDDecimal, rdf.XSDDouble,
			"http://www.w3.org/2001/XMLSchema#float":
			if f, ok := parseFloat(t.Lexical()); ok {
				return Value{kind: F64, f: f, term: t, hasTerm: true}
			}
			return Value{kind: Unbound}
		case rdf.XSDBoolean:
			switch t.Lexical() {
			case "true", "1":
				return Value{kind: Bool, b: true, term: t, hasTerm: true}
			case "false", "0":
				return Value{kind: Bool, b: false, term: t, hasTerm: true}
			}
			return Value{kind: Unbound}
		default:
			return Value{kind: Str, s: t.Lexical(), term: t, hasTerm: true}
		}
	default:
		return Value{kind: Unbound}
	}
}

// ToTerm converts v back into an RDF term for projection/BIND results. If v
// carries provenance (Term()), that exact term is returned so round-tripping
// through FILTER/BIND preserves datatype and language tag; otherwise a fresh
// canonical xsd: term is synthesized.
func (v Value) ToTerm() (rdf.Term, error) {
	if v.hasTerm {
		return v.term, nil
	}
	switch v.kind {
	case Int64:
		return rdf.NewLiteral(formatInt(v.i), rdf.XSDInteger), nil
	case F64:
		return rdf.NewLiteral(formatFloat(v.f), rdf.XSDDouble), nil
	case Bool:
		return rdf.NewLiteral(formatBool(v.b), rdf.XSDBoolean), nil
	case Str:
		return rdf.NewLiteral(v.s, rdf.XSDString), nil
	case IRI:
		return rdf.NewIRI(v.s), nil
	default:
		return rdf.Term{}, fmt.Errorf("value.ToTerm: cannot materialize an Unbound value into a term")
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "INF"
	}
	if math.IsInf(f, -1) {
		return "-INF"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprintf("%g", f)
}
