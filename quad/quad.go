// Package quad provides the RDF quad type used by the store and the scan
// operators, generalizing the teacher's triple.Triple (subject, predicate,
// object) with the fourth graph component SPARQL's dataset model requires.
package quad

import (
	"fmt"

	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Quad describes the (subject, predicate, object, graph) tuple stored by the
// quad store. An empty Graph term denotes the default graph.
type Quad struct {
	s, p, o, g rdf.Term
}

// New creates a new quad. Subject, predicate, and object must be concrete
// terms (never Variable); graph may be the zero Term to mean the default
// graph. New rejects a Variable anywhere, mirroring triple.New's rejection of
// nil components — a stored quad must be fully instantiated.
func New(s, p, o, g rdf.Term) (Quad, error) {
	for _, t := range []struct {
		name string
		term rdf.Term
	}{{"subject", s}, {"predicate", p}, {"object", o}, {"graph", g}} {
		if t.term.Kind() == rdf.Variable {
			return Quad{}, fmt.Errorf("quad.New: %s cannot be a variable in a stored quad, got %s", t.name, t.term)
		}
	}
	if s.Kind() == rdf.Literal {
		return Quad{}, fmt.Errorf("quad.New: subject cannot be a literal, got %s", s)
	}
	if p.Kind() != rdf.IRI {
		return Quad{}, fmt.Errorf("quad.New: predicate must be an IRI, got %s", p)
	}
	return Quad{s: s, p: p, o: o, g: g}, nil
}

// S returns the subject term.
func (q Quad) S() rdf.Term { return q.s }

// P returns the predicate term.
func (q Quad) P() rdf.Term { return q.p }

// O returns the object term.
func (q Quad) O() rdf.Term { return q.o }

// G returns the graph term. The zero Term denotes the default graph.
func (q Quad) G() rdf.Term { return q.g }

// InDefaultGraph reports whether the quad belongs to the unlabeled default
// graph.
func (q Quad) InDefaultGraph() bool { return q.g.IsZero() }

// String renders the quad in "s p o g" form, following triple.Triple.String's
// tab-separated pretty printer.
func (q Quad) String() string {
	g := "<default>"
	if !q.g.IsZero() {
		g = q.g.String()
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", q.s, q.p, q.o, g)
}
