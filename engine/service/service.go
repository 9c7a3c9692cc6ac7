// Package service materializes federated SERVICE results (spec.md §4.12),
// generalizing the teacher's storage/memoization package: memoization.go
// wraps a storage.Graph and caches each lookup's results keyed by a
// combinedUUID of the operation name, LookupOptions, and operand GUIDs, so a
// repeated identical lookup within one query execution is served from
// memory instead of re-querying the graph. A SERVICE call is the same shape
// of problem one level up — the "graph" being looked up is a remote
// endpoint, and the "lookup" is a full SPARQL request — so this package
// keys on the endpoint IRI plus the outer row's relevant bindings instead of
// triple GUIDs, and additionally promotes a cache entry to a disk-backed
// badger store once its result set crosses a size threshold, since a
// federated join can legitimately return far more rows than one query's
// worth of RAM should hold.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/cespare/xxhash/v2"

	"github.com/badwolf-labs/sparqlcore/engine/binding"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// Endpoint executes a SPARQL SELECT query text against a federated source
// and returns its solutions, materialized. The driver supplies a concrete
// implementation (an HTTP SPARQL protocol client in production, a stub in
// tests); this package only handles caching the result.
type Endpoint interface {
	Select(ctx context.Context, queryText string) ([]binding.Row, error)
}

// Materializer caches the result of running one query text against one
// endpoint for as long as the Materializer lives (the driver keeps one per
// Executor), avoiding repeated network round-trips when a SERVICE clause is
// evaluated once per outer solution. Results of up to LargeResultThreshold
// rows stay in memory; when a db is set, a larger result is written to badger
// as one JSON-encoded value under its cache key and read back whole. Neither
// path builds an index on the join variables.
type Materializer struct {
	mu    sync.RWMutex
	small map[string][]binding.Row

	db        *badger.DB
	threshold int
}

// LargeResultThreshold is the row count above which a cached SERVICE result
// is demoted to the badger-backed store instead of being kept resident.
const LargeResultThreshold = 5000

// NewMaterializer returns a Materializer. db may be nil, in which case
// large results are simply kept in memory too, with no bound on their size.
func NewMaterializer(db *badger.DB) *Materializer {
	return &Materializer{small: make(map[string][]binding.Row), db: db, threshold: LargeResultThreshold}
}

// SetThreshold overrides the large-result cutoff a Materializer was
// constructed with, letting a caller with tighter memory constraints (or a
// test wanting to exercise the badger path without 5000 rows) pick its own.
func (m *Materializer) SetThreshold(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = n
}

// Run executes queryText against ep, or returns the cached result from an
// earlier identical call within this Materializer's lifetime. outer keys
// the cache alongside queryText, since the same SERVICE pattern re-run for
// a different outer row's bound values is a different request.
func (m *Materializer) Run(ctx context.Context, ep Endpoint, endpointIRI, queryText string, outer binding.Row) ([]binding.Row, error) {
	key := cacheKey(endpointIRI, queryText, outer)

	m.mu.RLock()
	if rows, ok := m.small[key]; ok {
		m.mu.RUnlock()
		return rows, nil
	}
	m.mu.RUnlock()

	if m.db != nil {
		if rows, ok, err := m.loadLarge(key); err != nil {
			return nil, err
		} else if ok {
			return rows, nil
		}
	}

	rows, err := ep.Select(ctx, queryText)
	if err != nil {
		return nil, err
	}

	if m.db != nil && len(rows) > m.threshold {
		if err := m.storeLarge(key, rows); err != nil {
			return nil, err
		}
		return rows, nil
	}

	m.mu.Lock()
	m.small[key] = rows
	m.mu.Unlock()
	return rows, nil
}

// cacheKey hashes the request's identity (endpoint, query text, and every
// relevant outer binding) down to a fixed-width xxhash digest, the same way
// memoization.go's combinedUUID collapses a lookup's operands into one cache
// key. Unlike a UUID derived from random/clock state, xxhash is a pure
// function of its input, so two identical SERVICE requests within the same
// Materializer always collide onto the same key without coordination.
func cacheKey(endpointIRI, queryText string, outer binding.Row) string {
	names := make([]string, 0, len(outer))
	for n := range outer {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(endpointIRI)
	b.WriteByte('\x1f')
	b.WriteString(queryText)
	for _, n := range names {
		b.WriteByte('\x1f')
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(termKey(outer[n]))
	}
	sum := xxhash.Sum64String(b.String())
	return fmt.Sprintf("%016x", sum)
}

// termKey renders a term into a stable string key; it deliberately does not
// reuse Term.String()'s surface syntax so a future syntax tweak there can't
// silently change cache keys.
func termKey(t rdf.Term) string {
	return fmt.Sprintf("%d\x1e%s\x1e%s\x1e%s\x1e%s", t.Kind(), t.Value(), t.Lexical(), t.Datatype(), t.Lang())
}

// wireRow is binding.Row's JSON-serializable shadow, since rdf.Term carries
// only unexported fields.
type wireRow map[string]wireTerm

type wireTerm struct {
	Kind     rdf.Kind
	Value    string
	Lexical  string
	Datatype string
	Lang     string
}

func toWireRow(r binding.Row) wireRow {
	w := make(wireRow, len(r))
	for k, t := range r {
		w[k] = wireTerm{Kind: t.Kind(), Value: t.Value(), Lexical: t.Lexical(), Datatype: t.Datatype(), Lang: t.Lang()}
	}
	return w
}

func fromWireRow(w wireRow) binding.Row {
	r := make(binding.Row, len(w))
	for k, t := range w {
		switch t.Kind {
		case rdf.IRI:
			r[k] = rdf.NewIRI(t.Value)
		case rdf.BlankNode:
			r[k] = rdf.NewBlankNode(t.Value)
		case rdf.Literal:
			if t.Lang != "" {
				r[k] = rdf.NewLangLiteral(t.Lexical, t.Lang)
			} else {
				r[k] = rdf.NewLiteral(t.Lexical, t.Datatype)
			}
		}
	}
	return r
}

func (m *Materializer) storeLarge(key string, rows []binding.Row) error {
	wire := make([]wireRow, len(rows))
	for i, r := range rows {
		wire[i] = toWireRow(r)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("service.Materializer.storeLarge: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (m *Materializer) loadLarge(key string) ([]binding.Row, bool, error) {
	var rows []binding.Row
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var wire []wireRow
			if err := json.Unmarshal(val, &wire); err != nil {
				return err
			}
			rows = make([]binding.Row, len(wire))
			for i, w := range wire {
				rows[i] = fromWireRow(w)
			}
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("service.Materializer.loadLarge: %w", err)
	}
	return rows, rows != nil, nil
}
