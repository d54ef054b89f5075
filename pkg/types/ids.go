// Package types defines the value types shared across nameregistry.
//
// This is the lowest-level package in the module: it depends on nothing
// else internal, so that every other package (table, registrar, wire,
// transport) can import it without cycles.
package types

import "sort"

// NodeID identifies a node in the cluster. It is opaque to the registry;
// the only operation the registry performs on it is the total order used
// for clash resolution (spec §4.4), which is lexicographic on the string
// form.
type NodeID string

// Less reports whether n sorts before other under the cluster's total
// order. Clash resolution and the registrar's node_total_order use this.
func (n NodeID) Less(other NodeID) bool {
	return n < other
}

// Empty reports whether the NodeID carries no identity.
func (n NodeID) Empty() bool {
	return n == ""
}

// String returns the NodeID's canonical string form.
func (n NodeID) String() string {
	return string(n)
}

// SortNodeIDs returns a new, ascending-sorted copy of ids under the
// cluster total order.
func SortNodeIDs(ids []NodeID) []NodeID {
	out := make([]NodeID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Name identifies a binding. Opaque and immutable once registered.
type Name string

func (n Name) String() string { return string(n) }

// Handle is an opaque liveness-monitor token, returned by Monitor and
// consumed by Demonitor and DOWN notifications. Two handles are equal iff
// they were returned for the same monitor call.
type Handle uint64

// Origin distinguishes a binding owned by this node from one replicated
// from a remote node.
type Origin struct {
	// Local is true iff this binding is authoritatively owned by this
	// node (installed via Register, not via register_notify).
	Local bool

	// Node is the owning node's identity when Local is false. It is the
	// zero value when Local is true.
	Node NodeID
}

// LocalOrigin is the Origin value for a binding owned by this node.
func LocalOrigin() Origin { return Origin{Local: true} }

// RemoteOrigin is the Origin value for a binding replicated from node n.
func RemoteOrigin(n NodeID) Origin { return Origin{Local: false, Node: n} }

// String renders the origin for logging.
func (o Origin) String() string {
	if o.Local {
		return "local"
	}
	return o.Node.String()
}
