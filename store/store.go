// Package store provides the abstraction storage drivers implement: a Store
// holding named graphs plus a distinguished default graph, and a Graph
// exposing the indexed quad lookups the scan engine's triple-pattern scans
// need (spec.md §6).
//
// This generalizes the teacher's storage.Store/storage.Graph pair
// (storage/storage.go): BadWolf's six bespoke lookup methods
// (Objects/Subjects/PredicatesFor.../TriplesFor...) each served one BQL
// access pattern over a 3-tuple triple. A SPARQL triple pattern can leave
// any subset of {s, p, o} unbound, so those six methods collapse here into
// one Match call taking a wildcard mask; the concrete index chosen to serve
// it is the memory driver's concern, not the interface's. Every method is
// context-aware, following the call-site convention the rest of the
// teacher's tree actually uses (e.g. io/io.go, storage/memoization.go)
// rather than the non-context-aware signatures in the copied top-level
// storage/storage.go, which predate that convention.
package store

import (
	"context"

	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// LookupOptions controls a Match call the way storage.LookupOptions controls
// a BadWolf lookup (spec.md §6): a result cap, with zero meaning unbounded.
type LookupOptions struct {
	MaxElements int
}

// DefaultLookup is the zero-value, unbounded LookupOptions.
var DefaultLookup = &LookupOptions{}

// Quads is a read-only channel of quads, the streaming result of a Match or
// full Quads() scan (spec.md §6's "Store" external interface).
type Quads <-chan quad.Quad

// Store manages the collection of named graphs plus the default graph. The
// default graph is addressed by DefaultGraphID.
type Store interface {
	// Name returns the backend's identifying name.
	Name() string

	// Version returns the backend driver's version string.
	Version() string

	// NewGraph creates and returns a new, empty named graph. It is an error
	// to create a graph that already exists.
	NewGraph(ctx context.Context, id string) (Graph, error)

	// Graph returns an existing graph. It is an error if no graph with that
	// id exists; Graph never creates one.
	Graph(ctx context.Context, id string) (Graph, error)

	// GraphNames lists every named graph currently known, excluding the
	// default graph (spec.md §4.4's GRAPH ?g enumeration / dataset
	// construction for FROM NAMED with no explicit clause).
	GraphNames(ctx context.Context) ([]string, error)

	// DeleteGraph removes a named graph. It is an error to delete a graph
	// that does not exist.
	DeleteGraph(ctx context.Context, id string) error
}

// DefaultGraphID is the reserved graph identifier backing the unnamed
// default graph (spec.md §4.4).
const DefaultGraphID = ""

// Batch groups the mutating quad operations an update executor needs
// (spec.md §4.13's INSERT/DELETE DATA, DELETE/INSERT WHERE).
type Batch interface {
	// AddQuads inserts quads into the graph; inserting an already-present
	// quad is a no-op, not an error (spec.md §4.13 invariant).
	AddQuads(ctx context.Context, qs []quad.Quad) error

	// RemoveQuads deletes quads from the graph; deleting an absent quad is
	// a no-op, not an error.
	RemoveQuads(ctx context.Context, qs []quad.Quad) error
}

// Graph is one named graph (or the default graph) and the indexed lookups a
// triple-pattern scan needs against it.
type Graph interface {
	Batch

	// ID returns this graph's identifier (DefaultGraphID for the default
	// graph).
	ID(ctx context.Context) string

	// Match streams every quad whose subject/predicate/object matches s, p,
	// o, where a zero rdf.Term (rdf.Term{}) in any position is a wildcard
	// (spec.md §4.3 step 1). Matching quads are returned as they were added
	// to this Graph; Match neither checks nor rewrites their graph field.
	Match(ctx context.Context, s, p, o rdf.Term, lo *LookupOptions) (Quads, error)

	// Exist reports whether q is present verbatim in this graph.
	Exist(ctx context.Context, q quad.Quad) (bool, error)

	// Quads streams every quad in this graph.
	Quads(ctx context.Context) (Quads, error)

	// Count returns the number of quads in this graph, used by the planner
	// to pick a join order (spec.md §4.11 cardinality estimation) without
	// materializing a full scan.
	Count(ctx context.Context) (int, error)
}
