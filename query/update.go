package query

import "github.com/badwolf-labs/sparqlcore/rdf"

// GraphTargetKind enumerates the CLEAR/DROP/COPY/MOVE/ADD graph targets
// (spec.md §4.13).
type GraphTargetKind uint8

const (
	TargetDefault GraphTargetKind = iota
	TargetNamed
	TargetAll
	TargetGraph
)

// GraphTarget names a graph-affecting update's target.
type GraphTarget struct {
	Kind GraphTargetKind
	IRI  rdf.Term // set only when Kind == TargetGraph
}

// InsertDataStatement is INSERT DATA { ... }: a literal batch of quads to add.
type InsertDataStatement struct {
	Quads []QuadLiteral
}

// DeleteDataStatement is DELETE DATA { ... }: a literal batch of quads to
// remove.
type DeleteDataStatement struct {
	Quads []QuadLiteral
}

// QuadLiteral is a fully ground (s, p, o, g) tuple as written in an
// INSERT/DELETE DATA block; g is the zero term for the default graph.
type QuadLiteral struct {
	S, P, O, G rdf.Term
}

// ModifyStatement covers DELETE WHERE and DELETE/INSERT ... WHERE
// (spec.md §4.13). DeleteWhere-only statements set InsertTemplate to nil;
// INSERT-only statements (INSERT ... WHERE) set DeleteTemplate to nil.
type ModifyStatement struct {
	With           rdf.Term // WITH <graph>; zero term if absent
	HasWith        bool
	DeleteTemplate []TriplePattern
	InsertTemplate []TriplePattern
	UsingDefault   []rdf.Term // USING <iri>
	UsingNamed     []rdf.Term // USING NAMED <iri>
	Where          *GraphPattern
}

// ClearDropStatement is CLEAR/DROP [SILENT] target.
type ClearDropStatement struct {
	Drop   bool // false => CLEAR, true => DROP
	Target GraphTarget
	Silent bool
}

// CreateStatement is CREATE [SILENT] GRAPH <iri> — a no-op per spec.md §4.13.
type CreateStatement struct {
	Target GraphTarget
	Silent bool
}

// CopyMoveAddKind distinguishes the three graph-to-graph bulk operations.
type CopyMoveAddKind uint8

const (
	OpCopy CopyMoveAddKind = iota
	OpMove
	OpAdd
)

// CopyMoveAddStatement is COPY/MOVE/ADD [SILENT] src TO dst.
type CopyMoveAddStatement struct {
	Op     CopyMoveAddKind
	Src    GraphTarget
	Dst    GraphTarget
	Silent bool
}

// LoadStatement is LOAD <uri> [INTO GRAPH ?g] (spec.md §4.13), delegated to
// an external loader (spec.md §6).
type LoadStatement struct {
	Source    rdf.Term
	IntoGraph rdf.Term
	HasInto   bool
	Silent    bool
}
