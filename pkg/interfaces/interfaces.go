// Package interfaces defines the contracts the registrar depends on but
// does not implement itself: the cluster membership transport and the
// liveness-monitoring primitive (spec §1 "out of scope", §9 "re-architecture
// from the source pattern"). Concrete implementations live in
// internal/transport and internal/liveness; tests substitute hand-written
// fakes, in the style of the teacher's tests/mocks package.
package interfaces

import (
	"context"

	"github.com/nameregistry/nameregistry/pkg/types"
)

// RegistrarEndpoint is the well-known name a registrar listens on within a node,
// addressed by peers over the cluster transport (spec §6).
const RegistrarEndpoint = "nameregistry"

// Transport is the pluggable cluster transport abstraction from spec §9:
// it delivers node-up/node-down membership events and provides ordered,
// per-pair delivery of opaque payloads to a named endpoint on another
// node. The registrar never blocks on it; SendTo is a best-effort,
// non-blocking enqueue (spec §5 "Broadcasting").
type Transport interface {
	// LocalNodeIdentity returns this node's identity.
	LocalNodeIdentity() types.NodeID

	// NodeTotalOrder reports whether a sorts before b under the same
	// total order clash resolution uses (spec §4.4).
	NodeTotalOrder(a, b types.NodeID) bool

	// SendTo enqueues payload for delivery to endpoint on node. Delivery
	// is best-effort but ordered per (node, endpoint) pair. SendTo must
	// not block on network I/O beyond enqueueing.
	SendTo(node types.NodeID, endpoint string, payload []byte) error

	// SubscribeMembership returns a channel of membership events
	// (EvtNodeUp / EvtNodeDown). The channel is closed when the
	// transport shuts down.
	SubscribeMembership() (<-chan types.Event, error)

	// Receive returns the channel of inbound payloads addressed to
	// endpoint on this node.
	Receive(endpoint string) (<-chan Inbound, error)
}

// Inbound is a payload delivered to a local endpoint, tagged with the
// sender's node identity.
type Inbound struct {
	From    types.NodeID
	Payload []byte
}

// LivenessWatcher is the monitor primitive from spec §6: Monitor
// asynchronously arranges for a DOWN event to be delivered when subject
// terminates; Demonitor cancels a pending monitor. Both local principals
// and remote peer registrars are monitored through this interface (spec
// §9 "Liveness monitoring").
type LivenessWatcher interface {
	// MonitorPrincipal installs a monitor on a local principal and
	// returns its handle. DOWN delivery arrives on the channel returned
	// by Down.
	MonitorPrincipal(ctx context.Context, p types.Principal) (types.Handle, error)

	// MonitorPeer installs a monitor on a peer registrar's node.
	MonitorPeer(ctx context.Context, node types.NodeID) (types.Handle, error)

	// Demonitor cancels a previously installed monitor. Demonitoring an
	// unknown or already-fired handle is a no-op.
	Demonitor(h types.Handle)

	// Down returns the channel on which DOWN events are delivered for
	// principal handles.
	Down() <-chan PrincipalDown

	// PeerDown returns the channel on which DOWN events are delivered
	// for peer-registrar handles.
	PeerDown() <-chan PeerDown

	// NotifyPeerNodeDown tells the watcher that the transport observed
	// node's link drop. If node is currently monitored via MonitorPeer,
	// its PeerDown fires. The registrar is the sole caller: it is the
	// only consumer of the transport's membership channel (spec §5).
	NotifyPeerNodeDown(node types.NodeID, reason string)

	// Close releases all resources and stops delivering DOWN events.
	Close() error
}

// Terminator forcibly terminates a local principal that lost a name
// clash (spec §4.4). It is an external collaborator — this module has no
// generic notion of "kill a principal" — wired in by whatever owns the
// principal's lifecycle. A nil Terminator means clash losers are logged
// but left running until they terminate or unregister on their own.
type Terminator interface {
	Terminate(ctx context.Context, p types.Principal) error
}

// PrincipalDown is delivered when a monitored local principal terminates.
type PrincipalDown struct {
	Handle    types.Handle
	Principal types.Principal
	Reason    string
}

// PeerDown is delivered when a monitored peer registrar's link drops.
type PeerDown struct {
	Handle types.Handle
	Node   types.NodeID
	Reason string
}
