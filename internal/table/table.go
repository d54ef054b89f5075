// Package table implements the local binding table (spec §4.1): the
// concurrent-read, single-writer store of name -> binding records plus
// the reverse index from liveness handle to name.
//
// Grounded on internal/core/peerstore/peerstore.go's sharded map design:
// point operations take a per-shard RWMutex so readers never contend with
// each other, and only the registrar (the sole writer) ever takes a
// shard's write lock.
package table

import (
	"sync"

	"github.com/nameregistry/nameregistry/pkg/types"
)

const shardCount = 32

type shard struct {
	mu       sync.RWMutex
	bindings map[types.Name]types.Binding
}

// Table is the local binding table. The zero value is not usable; use New.
type Table struct {
	shards  [shardCount]*shard
	revMu   sync.RWMutex
	reverse map[types.Handle]types.Name
}

// New returns an empty Table.
func New() *Table {
	t := &Table{
		reverse: make(map[types.Handle]types.Name),
	}
	for i := range t.shards {
		t.shards[i] = &shard{bindings: make(map[types.Name]types.Binding)}
	}
	return t
}

func (t *Table) shardFor(name types.Name) *shard {
	h := fnv32(string(name))
	return t.shards[h%shardCount]
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

// Lookup returns the binding for name, if any. Safe for concurrent use
// with Insert/Delete from the writer goroutine (spec §4.1: "concurrent
// with writers, no coordination with the registrar").
func (t *Table) Lookup(name types.Name) (types.Binding, bool) {
	sh := t.shardFor(name)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	b, ok := sh.bindings[name]
	return b, ok
}

// Exists reports whether name has a binding of any origin.
func (t *Table) Exists(name types.Name) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Insert installs or overwrites the binding for b.Name, and — if b's
// origin is local — installs the matching reverse-index entry under
// b.Handle (invariant 3, spec §3). Only the registrar goroutine calls
// this.
func (t *Table) Insert(b types.Binding) {
	sh := t.shardFor(b.Name)
	sh.mu.Lock()
	sh.bindings[b.Name] = b
	sh.mu.Unlock()

	if b.Origin.Local {
		t.revMu.Lock()
		t.reverse[b.Handle] = b.Name
		t.revMu.Unlock()
	}
}

// Delete removes the binding for name, if present, and its reverse-index
// entry if it was local. Only the registrar goroutine calls this.
func (t *Table) Delete(name types.Name) (types.Binding, bool) {
	sh := t.shardFor(name)
	sh.mu.Lock()
	b, ok := sh.bindings[name]
	if ok {
		delete(sh.bindings, name)
	}
	sh.mu.Unlock()

	if ok && b.Origin.Local {
		t.revMu.Lock()
		delete(t.reverse, b.Handle)
		t.revMu.Unlock()
	}
	return b, ok
}

// LookupByHandle resolves a local binding's name from its liveness
// handle, for the local-principal DOWN path (spec §4.6).
func (t *Table) LookupByHandle(h types.Handle) (types.Name, bool) {
	t.revMu.RLock()
	defer t.revMu.RUnlock()
	n, ok := t.reverse[h]
	return n, ok
}

// DeleteReverse removes the reverse-index entry for h without touching
// the forward binding. Used when a DOWN handler has already established
// the forward binding must be left alone (spec §4.6: reverse entry is
// removed unconditionally on DOWN; the binding itself only if it still
// matches).
func (t *Table) DeleteReverse(h types.Handle) {
	t.revMu.Lock()
	delete(t.reverse, h)
	t.revMu.Unlock()
}

// Enumerate returns every binding satisfying pred. Ordering is
// unimportant (spec §9). Runs off the registrar, on the caller's
// goroutine.
func (t *Table) Enumerate(pred func(types.Binding) bool) []types.Binding {
	var out []types.Binding
	for _, sh := range t.shards {
		sh.mu.RLock()
		for _, b := range sh.bindings {
			if pred == nil || pred(b) {
				out = append(out, b)
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

// DeleteWhere removes every binding satisfying pred and returns them.
// Used for the peer-registrar DOWN bulk purge (spec §4.6, invariant 5).
// Only the registrar goroutine calls this.
func (t *Table) DeleteWhere(pred func(types.Binding) bool) []types.Binding {
	var removed []types.Binding
	for _, sh := range t.shards {
		sh.mu.Lock()
		for name, b := range sh.bindings {
			if pred(b) {
				delete(sh.bindings, name)
				removed = append(removed, b)
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the total number of bindings across all shards.
func (t *Table) Len() int {
	n := 0
	for _, sh := range t.shards {
		sh.mu.RLock()
		n += len(sh.bindings)
		sh.mu.RUnlock()
	}
	return n
}

// Predicates shared by enumeration callers (spec §4.7).

// IsLocal matches bindings owned by this node.
func IsLocal(b types.Binding) bool { return b.Origin.Local }

// FromNode matches bindings whose origin is node.
func FromNode(node types.NodeID) func(types.Binding) bool {
	return func(b types.Binding) bool {
		return !b.Origin.Local && b.Origin.Node == node
	}
}

// All matches every binding.
func All(types.Binding) bool { return true }
