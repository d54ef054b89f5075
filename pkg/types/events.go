package types

import "time"

// Event is the base interface for values published on the event bus,
// mirroring the teacher's pkg/types.Event / BaseEvent shape.
type Event interface {
	Type() string
}

// BaseEvent carries the fields common to every event.
type BaseEvent struct {
	EventType string
	At        time.Time
}

// Type returns the event's type tag.
func (e BaseEvent) Type() string { return e.EventType }

// Event type tags.
const (
	EventTypeNodeUp         = "node_up"
	EventTypeNodeDown       = "node_down"
	EventTypePrincipalDown  = "principal_down"
	EventTypePeerDown       = "peer_down"
)

// EvtNodeUp fires when the cluster membership transport observes a new
// peer node joining the mesh (spec §4.5, §4.6).
type EvtNodeUp struct {
	BaseEvent
	Node NodeID
}

// EvtNodeDown fires when the cluster membership transport observes a
// peer node leaving. Per spec §4.6 the registrar takes no direct action
// on this event; cleanup happens via EvtPeerDown once the liveness layer
// confirms the peer registrar's link is actually gone.
type EvtNodeDown struct {
	BaseEvent
	Node NodeID
}

// EvtPrincipalDown fires when a local principal's liveness monitor
// delivers a DOWN (spec §4.6, local-principal case).
type EvtPrincipalDown struct {
	BaseEvent
	Handle    Handle
	Principal Principal
	Reason    string
}

// EvtPeerDown fires when a peer registrar's liveness monitor delivers a
// DOWN (spec §4.6, peer-registrar case).
type EvtPeerDown struct {
	BaseEvent
	Handle Handle
	Node   NodeID
	Reason string
}
