// Package binding implements the append-only binding table spec.md §4.1
// describes: an ordered associative array from variable name to RDF term,
// with FNV-1a name hashing and checkpoint/truncate backtracking so scans can
// undo their own bindings without disturbing a parent frame's.
//
// The teacher's analogous type, bql/table.Table, materializes whole result
// sets as a slice of maps. That shape does not fit a pull-iterator engine:
// spec.md §4.2's scan contract requires in-place backtracking via a
// checkpoint, not table rebuilding. Go's slice and string types already give
// append-only growth and structural string sharing for free, so this
// Table's entries slice plays the role spec.md's "flat entry vector plus
// character arena" plays in a systems language — there is no separate arena
// to manage (spec.md §9's ownership note), and truncate simply re-slices.
package binding

import (
	"fmt"
	"hash/fnv"

	"github.com/badwolf-labs/sparqlcore/rdf"
)

// entry is one binding table slot.
type entry struct {
	hash  uint32
	name  string
	value rdf.Term
}

// Table is the append-only binding table a scan reads from and writes into.
// Table is not safe for concurrent use by multiple goroutines. The driver
// owns one Table per scan-tree run and builds a further short-lived Table
// for each materialized row it evaluates modifier expressions against
// (spec.md §5 "String arenas are owned per binding table").
type Table struct {
	entries []entry
}

// New returns an empty binding table.
func New() *Table {
	return &Table{}
}

// fnv1a32 hashes a variable name the same way throughout the engine
// (spec.md §9 "implementers must use the same hash function for cross-table
// binding reuse").
func fnv1a32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Find returns the index of name's binding, or -1 if unbound. Hash collisions
// are resolved by comparing the raw name (spec.md §4.1 invariant iii).
func (t *Table) Find(name string) int {
	h := fnv1a32(name)
	for i, e := range t.entries {
		if e.hash == h && e.name == name {
			return i
		}
	}
	return -1
}

// Get returns the term bound at index, which must be a value previously
// returned by Find or iterated via Len/At.
func (t *Table) Get(index int) rdf.Term {
	return t.entries[index].value
}

// NameAt returns the variable name bound at index.
func (t *Table) NameAt(index int) string {
	return t.entries[index].name
}

// Len returns the number of bound entries, also usable as a checkpoint value
// for Truncate.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the term bound to name and whether it is bound at all.
func (t *Table) Lookup(name string) (rdf.Term, bool) {
	i := t.Find(name)
	if i < 0 {
		return rdf.Term{}, false
	}
	return t.entries[i].value, true
}

// Bind appends a new binding for name, or — if name is already bound —
// succeeds only when the existing value equals v (the join consistency
// check of spec.md §4.1 invariant ii, also spec.md §4.3 step 3). It never
// mutates an existing entry. Returns false when the existing value differs.
func (t *Table) Bind(name string, v rdf.Term) bool {
	if i := t.Find(name); i >= 0 {
		return t.entries[i].value.Equal(v)
	}
	t.entries = append(t.entries, entry{hash: fnv1a32(name), name: name, value: v})
	return true
}

// Checkpoint returns the current table length, to be passed to Truncate by
// a scan that wants to undo only the bindings it itself added (spec.md
// §4.2's scan contract).
func (t *Table) Checkpoint() int {
	return len(t.entries)
}

// Truncate discards every entry at index >= k. Because entries never alias
// shared backing storage beyond the slice header itself, truncation is O(1)
// beyond zeroing the discarded slots (done to let the GC reclaim any
// referenced terms promptly).
func (t *Table) Truncate(k int) {
	if k < 0 || k > len(t.entries) {
		panic(fmt.Sprintf("binding.Table.Truncate: checkpoint %d out of range [0,%d]", k, len(t.entries)))
	}
	for i := k; i < len(t.entries); i++ {
		t.entries[i] = entry{}
	}
	t.entries = t.entries[:k]
}

// Clear truncates the table back to empty.
func (t *Table) Clear() {
	t.Truncate(0)
}

// Names returns the variable names currently bound, in bind order.
func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
	}
	return names
}

// Snapshot materializes every current binding into an owned Row, decoupling
// it from the table's lifetime (spec.md §3's "Materialized Row"). Used
// whenever a result crosses a scan/stack boundary: SubQueryScan projection,
// EXISTS frame result lists, and the result driver's output buffer.
func (t *Table) Snapshot() Row {
	r := make(Row, len(t.entries))
	for _, e := range t.entries {
		r[e.name] = e.value
	}
	return r
}

// Row is a materialized, owned solution mapping: a snapshot of a Table at
// one point in time, safe to retain past the Table's own lifetime.
type Row map[string]rdf.Term

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// ApplyTo binds every entry of r into t via Bind, returning false at the
// first inconsistent binding (a differing value for an already-bound
// variable) without restoring prior appends — callers that need a
// checkpoint/rollback should take one via Checkpoint before calling ApplyTo.
func (r Row) ApplyTo(t *Table) bool {
	for name, v := range r {
		if !t.Bind(name, v) {
			return false
		}
	}
	return true
}

// Merge returns a new Row containing every binding from base, overlaid with
// extra; Merge panics if base and extra disagree on a shared variable, since
// callers are expected to have already checked domain consistency (e.g. via
// the join predicate in Bind) before merging.
func Merge(rows ...Row) Row {
	out := make(Row)
	for _, r := range rows {
		for k, v := range r {
			if existing, ok := out[k]; ok && !existing.Equal(v) {
				panic(fmt.Sprintf("binding.Merge: inconsistent values for %q: %s vs %s", k, existing, v))
			}
			out[k] = v
		}
	}
	return out
}
