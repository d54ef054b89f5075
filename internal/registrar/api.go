package registrar

import (
	"github.com/nameregistry/nameregistry/internal/table"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// Register publishes a locally-owned binding (spec §4.2, §6
// register_name). It fails if name is already bound to anything, local or
// remote — first writer wins locally; a concurrent remote claim is
// resolved later by clash resolution, not here.
func (r *Registrar) Register(name types.Name, p types.Principal) (bool, error) {
	reply := make(chan bool, 1)
	if err := r.send(msgRegister{name: name, principal: p, reply: reply}); err != nil {
		return false, err
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-r.stopped:
		return false, ErrClosed
	}
}

// Unregister removes name if it is locally owned. It is advisory: callers
// get ok regardless of whether name existed (spec §4.2, §6
// unregister_name).
func (r *Registrar) Unregister(name types.Name) error {
	reply := make(chan struct{})
	if err := r.send(msgUnregister{name: name, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-r.stopped:
		return ErrClosed
	}
}

// SetMeta attaches meta to a locally-owned name, publishing the update to
// peers (spec §4.2, §6 set_meta). It returns false — distinct from an
// error — when name is not locally owned here, per the Open Question
// decision to make that rejection observable rather than silently folded
// into "ok".
func (r *Registrar) SetMeta(name types.Name, meta types.Meta) (bool, error) {
	reply := make(chan bool, 1)
	if err := r.send(msgSetMeta{name: name, meta: meta, reply: reply}); err != nil {
		return false, err
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-r.stopped:
		return false, ErrClosed
	}
}

// SetPriority records a scheduling hint (spec §6 set_priority). nameregistry
// has no scheduler of its own to apply it to; the value is recorded for
// introspection only (spec §4.8 treats this as a documented no-op).
func (r *Registrar) SetPriority(priority int) error {
	reply := make(chan struct{})
	if err := r.send(msgSetPriority{priority: priority, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-r.stopped:
		return ErrClosed
	}
}

// Priority returns the most recently set priority hint, defaulting to 0.
func (r *Registrar) Priority() int {
	return int(r.priority.Load())
}

// WhereIs resolves name to its bound principal, if any (spec §6
// whereis_name). Reads bypass the mailbox entirely: the table tolerates
// concurrent readers without coordinating with the registrar goroutine
// (spec §4.1).
func (r *Registrar) WhereIs(name types.Name) (types.Principal, bool) {
	b, ok := r.table.Lookup(name)
	if !ok {
		return types.Principal{}, false
	}
	return b.Principal, true
}

// Send looks up name and, if bound, invokes deliver with its principal
// (spec §6 send). Delivery mechanics are the caller's concern — the
// registry only knows a principal's identity, not how to reach it; a miss
// is silent, matching spec §6's "drop the message... silently".
func (r *Registrar) Send(name types.Name, deliver func(types.Principal) error) bool {
	b, ok := r.table.Lookup(name)
	if !ok || deliver == nil {
		return false
	}
	_ = deliver(b.Principal)
	return true
}

// LocalRegisteredNames lists names bound locally on this node (spec §6
// local_registered_names).
func (r *Registrar) LocalRegisteredNames() []types.Name {
	bindings := r.table.Enumerate(table.IsLocal)
	out := make([]types.Name, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.Name)
	}
	return out
}

// LocalRegisteredInfo lists (name, principal, meta) triples for every
// locally-bound name (spec §6 local_registered_info).
func (r *Registrar) LocalRegisteredInfo() []types.NamedInfo {
	bindings := r.table.Enumerate(table.IsLocal)
	out := make([]types.NamedInfo, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.Info())
	}
	return out
}

// RegisteredNames lists every name known to this node's table, local or
// replicated (spec §6 registered_names).
func (r *Registrar) RegisteredNames() []types.Name {
	bindings := r.table.Enumerate(table.All)
	out := make([]types.Name, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b.Name)
	}
	return out
}

// RegisteredInfo lists (name, principal) pairs for every name known to
// this node's table. Unlike LocalRegisteredInfo, meta is not included
// (spec §6 registered_info): meta is only reliable at the owning node.
func (r *Registrar) RegisteredInfo() []types.NamedInfo {
	bindings := r.table.Enumerate(table.All)
	out := make([]types.NamedInfo, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, types.NamedInfo{Name: b.Name, Principal: b.Principal})
	}
	return out
}
