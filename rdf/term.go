// Package rdf provides the term model shared by the quad store, the query
// representation, and the expression evaluator: IRIs, literals, blank nodes,
// and the variable placeholders used inside parsed query patterns.
package rdf

import (
	"fmt"
	"strings"
)

// Kind identifies which concrete shape a Term takes.
type Kind uint8

const (
	// IRI identifies an absolute IRI term, e.g. <http://example.org/a>.
	IRI Kind = iota
	// Literal identifies a plain, language-tagged, or typed literal term.
	Literal
	// BlankNode identifies a blank node term, e.g. _:b0.
	BlankNode
	// Variable identifies a query variable, e.g. ?x. Variable terms never
	// appear inside a quad.Quad; they occur only in query.TriplePattern.
	Variable
)

func (k Kind) String() string {
	switch k {
	case IRI:
		return "IRI"
	case Literal:
		return "Literal"
	case BlankNode:
		return "BlankNode"
	case Variable:
		return "Variable"
	default:
		return "UnknownKind"
	}
}

// XSD namespace IRIs used to auto-type numeric and boolean literals.
const (
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal  = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble   = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
	RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// Term is an RDF term: an IRI, a literal, a blank node, or (only inside a
// parsed query, never inside a stored quad) a variable.
//
// Term is a small immutable value type, deliberately copyable, so scans can
// pass it by value the way the teacher passes *node.Node/*predicate.Predicate
// pointers but without the extra indirection a pointer would add for such a
// small struct.
type Term struct {
	kind Kind
	// iri holds the lexical IRI for Kind==IRI, the blank node label for
	// Kind==BlankNode, and the variable name (without the leading '?') for
	// Kind==Variable.
	iri string
	// lex is the literal's lexical form for Kind==Literal.
	lex string
	// datatype is the literal's datatype IRI for Kind==Literal. Empty means
	// xsd:string (a simple literal) unless lang is set.
	datatype string
	// lang is the literal's language tag for Kind==Literal, empty if untagged.
	lang string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term { return Term{kind: IRI, iri: iri} }

// NewBlankNode returns a blank node term with the given label.
func NewBlankNode(label string) Term { return Term{kind: BlankNode, iri: label} }

// NewVariable returns a variable term, name without the leading '?' or '$'.
func NewVariable(name string) Term { return Term{kind: Variable, iri: name} }

// NewLiteral returns a literal term with an explicit datatype IRI. An empty
// datatype defaults to xsd:string.
func NewLiteral(lex, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{kind: Literal, lex: lex, datatype: datatype}
}

// NewLangLiteral returns a language-tagged literal term.
func NewLangLiteral(lex, lang string) Term {
	return Term{kind: Literal, lex: lex, datatype: RDFLangString, lang: lang}
}

// Kind returns the term's kind.
func (t Term) Kind() Kind { return t.kind }

// IsZero reports whether t is the zero Term, used by scans as the "wildcard"
// marker for an unresolved triple pattern component (spec.md §4.3 step 1).
func (t Term) IsZero() bool { return t.kind == IRI && t.iri == "" && t.lex == "" && t.datatype == "" }

// Value returns the IRI string, blank node label, or variable name.
// Valid only for Kind in {IRI, BlankNode, Variable}.
func (t Term) Value() string { return t.iri }

// Lexical returns the literal's lexical form. Valid only for Kind==Literal.
func (t Term) Lexical() string { return t.lex }

// Datatype returns the literal's datatype IRI. Valid only for Kind==Literal.
func (t Term) Datatype() string { return t.datatype }

// Lang returns the literal's language tag, or "" if untagged or not a literal.
func (t Term) Lang() string { return t.lang }

// IsLangTagged reports whether this literal carries a language tag.
func (t Term) IsLangTagged() bool { return t.kind == Literal && t.lang != "" }

// Equal reports whether two terms denote the same RDF value under SPARQL
// term equality (not value equality — "1"^^xsd:integer != "1.0"^^xsd:decimal
// here; numeric value equality is a job for the expression evaluator).
func (t Term) Equal(o Term) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case IRI, BlankNode, Variable:
		return t.iri == o.iri
	case Literal:
		return t.lex == o.lex && t.datatype == o.datatype && t.lang == o.lang
	default:
		return false
	}
}

// String renders the term in SPARQL surface syntax.
func (t Term) String() string {
	switch t.kind {
	case IRI:
		return "<" + t.iri + ">"
	case BlankNode:
		return "_:" + t.iri
	case Variable:
		return "?" + t.iri
	case Literal:
		var b strings.Builder
		b.WriteByte('"')
		b.WriteString(t.lex)
		b.WriteByte('"')
		if t.lang != "" {
			b.WriteByte('@')
			b.WriteString(t.lang)
		} else if t.datatype != "" && t.datatype != XSDString {
			b.WriteString("^^<")
			b.WriteString(t.datatype)
			b.WriteString(">")
		}
		return b.String()
	default:
		return fmt.Sprintf("@@@INVALID_TERM(kind=%d)@@@", t.kind)
	}
}

// IsNumericDatatype reports whether datatype is one of the XSD numeric types
// this engine promotes through the arithmetic tower (spec.md §4.9).
func IsNumericDatatype(datatype string) bool {
	switch datatype {
	case XSDInteger, XSDDecimal, XSDDouble,
		"http://www.w3.org/2001/XMLSchema#int",
		"http://www.w3.org/2001/XMLSchema#long",
		"http://www.w3.org/2001/XMLSchema#short",
		"http://www.w3.org/2001/XMLSchema#float",
		"http://www.w3.org/2001/XMLSchema#nonNegativeInteger":
		return true
	default:
		return false
	}
}
