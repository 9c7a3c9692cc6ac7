package store

import (
	"context"
	"fmt"

	"github.com/badwolf-labs/sparqlcore/quad"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Composite presents several graphs as one read-only Graph, implementing
// the RDF dataset's "default graph is the union of FROM graphs" rule
// (spec.md §4.4) without teaching every scan type about multi-graph
// evaluation: a triple-pattern scan run against a Composite already sees
// the merged view. There is no teacher analogue (BadWolf's BQL has no
// dataset/FROM concept); this follows the same indexed-Match shape as
// memory.graph, just fanning each call out across its members.
type Composite struct {
	id      string
	members []Graph
}

// NewComposite returns a read-only Graph merging members, identified by id
// for diagnostics (e.g. "default" or "named:*").
func NewComposite(id string, members []Graph) *Composite {
	return &Composite{id: id, members: members}
}

func (c *Composite) ID(ctx context.Context) string { return c.id }

func (c *Composite) AddQuads(ctx context.Context, qs []quad.Quad) error {
	return fmt.Errorf("store.Composite(%q): read-only dataset view, cannot add quads", c.id)
}

func (c *Composite) RemoveQuads(ctx context.Context, qs []quad.Quad) error {
	return fmt.Errorf("store.Composite(%q): read-only dataset view, cannot remove quads", c.id)
}

func (c *Composite) Exist(ctx context.Context, q quad.Quad) (bool, error) {
	for _, m := range c.members {
		ok, err := m.Exist(ctx, q)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Composite) Quads(ctx context.Context) (Quads, error) {
	return c.Match(ctx, rdf.Term{}, rdf.Term{}, rdf.Term{}, DefaultLookup)
}

func (c *Composite) Count(ctx context.Context) (int, error) {
	total := 0
	for _, m := range c.members {
		n, err := m.Count(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (c *Composite) Match(ctx context.Context, s, p, o rdf.Term, lo *LookupOptions) (Quads, error) {
	if lo == nil {
		lo = DefaultLookup
	}
	out := make(chan quad.Quad, 64)
	go func() {
		defer close(out)
		seen := map[quad.Quad]bool{}
		emitted := 0
		for _, m := range c.members {
			ch, err := m.Match(ctx, s, p, o, DefaultLookup)
			if err != nil {
				return
			}
			for q := range ch {
				if seen[q] {
					continue
				}
				seen[q] = true
				select {
				case out <- q:
					emitted++
					if lo.MaxElements > 0 && emitted >= lo.MaxElements {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
