package registrar

import (
	"context"

	"github.com/nameregistry/nameregistry/internal/table"
	"github.com/nameregistry/nameregistry/internal/wire"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// handlePeerFrame decodes an inbound wire frame and dispatches it by
// message type (spec §4.3). sync_req/sync_resp are accepted from any
// sender — they are how a peer joins the peer set in the first place —
// while the three notification types are accepted only from senders
// already in the peer set; a notification from a stranger is logged and
// dropped (spec §4.3).
func (r *Registrar) handlePeerFrame(inb interfaces.Inbound) {
	env, err := wire.DecodeEnvelope(inb.Payload)
	if err != nil {
		logger.Warn("dropping malformed envelope", "from", inb.From, "error", err)
		return
	}
	from := inb.From

	if r.metrics != nil {
		r.metrics.NotifyReceivedTotal.WithLabelValues(env.Type.String()).Inc()
	}

	switch env.Type {
	case wire.MsgSyncReq:
		r.handleSyncReq(from, env)
	case wire.MsgSyncResp:
		r.handleSyncResp(from, env)
	case wire.MsgRegisterNotify:
		if !r.peers.Contains(from) {
			logger.Warn("dropping register_notify from non-peer", "from", from, "recently_departed", r.peers.RecentlyDeparted(from))
			return
		}
		p, err := wire.DecodeRegisterNotify(env)
		if err != nil {
			logger.Warn("dropping malformed register_notify", "from", from, "error", err)
			return
		}
		r.applyRegisterNotify(from, types.Name(p.Name), types.Principal{ID: p.PrincipalID, HomeNode: types.NodeID(p.PrincipalHome)}, p.Meta)
	case wire.MsgUnregisterNotify:
		if !r.peers.Contains(from) {
			logger.Warn("dropping unregister_notify from non-peer", "from", from)
			return
		}
		p, err := wire.DecodeUnregisterNotify(env)
		if err != nil {
			logger.Warn("dropping malformed unregister_notify", "from", from, "error", err)
			return
		}
		r.handleUnregisterNotify(from, types.Name(p.Name))
	case wire.MsgAddMetaNotify:
		if !r.peers.Contains(from) {
			logger.Warn("dropping add_meta_notify from non-peer", "from", from)
			return
		}
		p, err := wire.DecodeAddMetaNotify(env)
		if err != nil {
			logger.Warn("dropping malformed add_meta_notify", "from", from, "error", err)
			return
		}
		r.handleAddMetaNotify(from, types.Name(p.Name), p.Meta)
	default:
		logger.Warn("dropping envelope of unknown type", "from", from, "type", env.Type)
	}
}

// applyRegisterNotify installs or clash-resolves an incoming
// register_notify, whether it arrived as a standalone notification or as
// one entry of a sync_resp (spec §4.3, §4.5). The peer-set membership
// check happens at the call site for the standalone path; sync entries
// are trusted unconditionally since the sync_resp itself was already
// accepted.
func (r *Registrar) applyRegisterNotify(from types.NodeID, name types.Name, p types.Principal, meta types.Meta) {
	existing, ok := r.table.Lookup(name)
	if !ok {
		r.table.Insert(types.Binding{
			Name:      name,
			Principal: p,
			Origin:    types.RemoteOrigin(from),
			Meta:      meta.Clone(),
		})
		return
	}
	if existing.Principal.Equal(p) {
		// Duplicate notification of a binding we already have; at most
		// the meta changed, which arrives via add_meta_notify instead.
		return
	}
	r.resolveClash(existing, types.Binding{
		Name:      name,
		Principal: p,
		Origin:    types.RemoteOrigin(from),
		Meta:      meta.Clone(),
	})
}

// resolveClash implements spec §4.4: two different principals claim the
// same name. The principal homed on the node that sorts first under the
// cluster total order wins; the loser's binding (if local) is forcibly
// terminated out-of-band, and the table is left to converge through the
// normal DOWN/unregister_notify path rather than being edited twice.
func (r *Registrar) resolveClash(existing, incoming types.Binding) {
	if r.metrics != nil {
		r.metrics.ClashesTotal.Inc()
	}

	oldHome := existing.Principal.HomeNode
	newHome := incoming.Principal.HomeNode

	if !r.transport.NodeTotalOrder(newHome, oldHome) {
		// Incoming notification loses the clash; drop it. The winning
		// side (oldHome) will independently see the same clash from its
		// perspective and, if it loses there, will tear itself down.
		logger.Debug("clash lost by incoming notification", "name", existing.Name, "existing_home", oldHome, "incoming_home", newHome)
		return
	}

	if r.metrics != nil {
		r.metrics.ClashesWonTotal.Inc()
	}

	r.table.Insert(incoming)

	if oldHome != r.self {
		// The losing binding wasn't ours; nothing further for us to do.
		return
	}

	logger.Info("local principal lost name clash, terminating", "name", existing.Name, "principal", existing.Principal)
	if r.term == nil {
		logger.Warn("no terminator configured, leaving clash loser running", "name", existing.Name, "principal", existing.Principal)
		return
	}
	go func(p types.Principal) {
		if err := r.term.Terminate(context.Background(), p); err != nil {
			logger.Warn("terminate failed for clash loser", "principal", p, "error", err)
		}
	}(existing.Principal)
}

// handleUnregisterNotify implements spec §4.3: remove a binding that is
// still owned by the sender, leaving local bindings and bindings owned by
// some other node untouched (a stale or malicious unregister_notify must
// not be able to evict someone else's binding).
func (r *Registrar) handleUnregisterNotify(from types.NodeID, name types.Name) {
	b, ok := r.table.Lookup(name)
	if !ok || b.Origin.Local || b.Origin.Node != from {
		return
	}
	r.table.Delete(name)
}

// handleAddMetaNotify implements spec §4.3: overwrite meta for a binding
// still owned by the sender.
func (r *Registrar) handleAddMetaNotify(from types.NodeID, name types.Name, meta types.Meta) {
	b, ok := r.table.Lookup(name)
	if !ok || b.Origin.Local || b.Origin.Node != from {
		return
	}
	b.Meta = meta.Clone()
	r.table.Insert(b)
}

// handleSyncReq implements spec §4.5: reply with every locally-owned
// binding, and if the requester is not yet a peer, install a liveness
// monitor on it and add it to the peer set, then send our own sync_req
// back to close the handshake symmetrically.
func (r *Registrar) handleSyncReq(from types.NodeID, env wire.Envelope) {
	entries := buildSyncEntries(r.table.Enumerate(table.IsLocal))
	r.sendSyncResp(from, env.ID, entries)

	if r.peers.Contains(from) {
		return
	}
	h, err := r.watcher.MonitorPeer(context.Background(), from)
	if err != nil {
		logger.Warn("failed to monitor new peer from sync_req", "node", from, "error", err)
		return
	}
	r.peers.Add(from, h)
	r.sendSyncReq(from)
}

// handleSyncResp implements spec §4.5: apply every carried entry through
// the register_notify path (clash resolution included), then — if the
// responder is not yet a peer — install a liveness monitor and add it.
func (r *Registrar) handleSyncResp(from types.NodeID, env wire.Envelope) {
	payload, err := wire.DecodeSyncResp(env)
	if err != nil {
		logger.Warn("dropping malformed sync_resp", "from", from, "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.SyncTotal.WithLabelValues("resp_received").Inc()
	}
	for _, e := range payload.Entries {
		r.applyRegisterNotify(from, types.Name(e.Name), types.Principal{ID: e.PrincipalID, HomeNode: types.NodeID(e.PrincipalHome)}, e.Meta)
	}

	if r.peers.Contains(from) {
		return
	}
	h, err := r.watcher.MonitorPeer(context.Background(), from)
	if err != nil {
		logger.Warn("failed to monitor new peer from sync_resp", "node", from, "error", err)
		return
	}
	r.peers.Add(from, h)
}

func buildSyncEntries(bindings []types.Binding) []wire.Entry {
	entries := make([]wire.Entry, 0, len(bindings))
	for _, b := range bindings {
		entries = append(entries, wire.Entry{
			Name:          string(b.Name),
			PrincipalID:   b.Principal.ID,
			PrincipalHome: string(b.Principal.HomeNode),
			Meta:          b.Meta,
		})
	}
	return entries
}

// handleEvent dispatches a bus event by concrete type. Membership events
// (spec §4.6): node-up triggers the sync handshake; node-down takes no
// direct action here — it is routed to the liveness watcher, which
// delivers an EvtPeerDown only if that node was actually being monitored
// as a peer registrar ("no action. A peer-registrar DOWN will be
// delivered by the liveness layer"). Liveness events carry their own
// cleanup paths.
func (r *Registrar) handleEvent(evt types.Event) {
	switch e := evt.(type) {
	case types.EvtNodeUp:
		r.handleNodeUp(e.Node)
	case types.EvtNodeDown:
		r.watcher.NotifyPeerNodeDown(e.Node, "transport_link_down")
	case types.EvtPrincipalDown:
		r.handleLocalDown(interfaces.PrincipalDown{Handle: e.Handle, Principal: e.Principal, Reason: e.Reason})
	case types.EvtPeerDown:
		r.handlePeerRegistrarDown(interfaces.PeerDown{Handle: e.Handle, Node: e.Node, Reason: e.Reason})
	default:
		logger.Debug("ignoring event", "type", evt.Type())
	}
}

// handleNodeUp sends a sync_req to the newly-seen node (spec §4.5,
// §4.6). The send runs off the mailbox goroutine so a slow SendTo can
// never stall the registrar; singleflight collapses a burst of
// observed node-up events for the same node (e.g. a flapping link) into a
// single in-flight send.
func (r *Registrar) handleNodeUp(node types.NodeID) {
	go func() {
		_, _, _ = r.sf.Do(string(node), func() (interface{}, error) {
			r.sendSyncReq(node)
			return nil, nil
		})
	}()
}

// handleLocalDown implements spec §4.6's local-principal DOWN path: the
// reverse-index entry is removed unconditionally; the forward binding is
// only removed (and unregister_notify broadcast) if it still points at
// exactly the principal and handle that went down. A clash loss can have
// already overwritten the binding with a different principal by the time
// DOWN arrives; in that case there is nothing left for us to clean up.
func (r *Registrar) handleLocalDown(evt interfaces.PrincipalDown) {
	if r.metrics != nil {
		r.metrics.PrincipalDownTotal.Inc()
	}

	name, ok := r.table.LookupByHandle(evt.Handle)
	if !ok {
		return
	}
	r.table.DeleteReverse(evt.Handle)

	b, ok := r.table.Lookup(name)
	if !ok {
		return
	}
	if b.Handle != evt.Handle || !b.Principal.Equal(evt.Principal) {
		return
	}

	r.table.Delete(name)
	r.broadcastUnregister(name)
	if r.metrics != nil {
		r.metrics.LocalBindingsTotal.Dec()
		r.metrics.BindingsTotal.Dec()
	}
}

// handlePeerRegistrarDown implements spec §4.6's peer-registrar DOWN
// path, invariant 5: remove the peer and bulk-purge every binding this
// node replicated from it. If the peer set no longer has the peer (a
// Demonitor raced ahead of this event), there is nothing to purge.
func (r *Registrar) handlePeerRegistrarDown(evt interfaces.PeerDown) {
	if r.metrics != nil {
		r.metrics.PeerDownTotal.Inc()
	}

	if _, ok := r.peers.Remove(evt.Node); !ok {
		return
	}
	removed := r.table.DeleteWhere(table.FromNode(evt.Node))
	logger.Info("purged bindings for departed peer", "node", evt.Node, "count", len(removed))
	if r.metrics != nil && len(removed) > 0 {
		r.metrics.BindingsTotal.Add(-float64(len(removed)))
	}
}
