package registrar

import (
	"github.com/nameregistry/nameregistry/internal/wire"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// broadcastRegister tells every peer about a newly-installed local
// binding (spec §4.2, §5 "Broadcasting").
func (r *Registrar) broadcastRegister(name types.Name, p types.Principal, meta types.Meta) {
	payload := wire.RegisterNotifyPayload{
		Name:          string(name),
		PrincipalID:   p.ID,
		PrincipalHome: string(p.HomeNode),
		Meta:          meta,
	}
	r.broadcast(wire.MsgRegisterNotify, payload)
}

// broadcastUnregister tells every peer a locally-owned binding is gone.
func (r *Registrar) broadcastUnregister(name types.Name) {
	r.broadcast(wire.MsgUnregisterNotify, wire.UnregisterNotifyPayload{Name: string(name)})
}

// broadcastAddMeta tells every peer about an updated meta bag for a
// locally-owned binding.
func (r *Registrar) broadcastAddMeta(name types.Name, meta types.Meta) {
	r.broadcast(wire.MsgAddMetaNotify, wire.AddMetaNotifyPayload{Name: string(name), Meta: meta})
}

// broadcast encodes payload once and best-effort sends it to every
// current peer. Broadcasting never blocks on any one peer: SendTo itself
// is a non-blocking enqueue, and a peer that is slow or gone simply misses
// the update until the next sync (spec §5 "Broadcasting", §4.5).
func (r *Registrar) broadcast(msgType wire.MsgType, payload interface{}) {
	data, err := wire.Encode(msgType, string(r.self), "", payload)
	if err != nil {
		logger.Warn("failed to encode broadcast", "type", msgType, "error", err)
		return
	}
	nodes := r.peers.Nodes()
	for _, node := range nodes {
		if err := r.transport.SendTo(node, interfaces.RegistrarEndpoint, data); err != nil {
			logger.Debug("broadcast send failed", "type", msgType, "node", node, "error", err)
		}
	}
	if r.metrics != nil {
		r.metrics.BroadcastTotal.WithLabelValues(msgType.String()).Inc()
	}
}

// sendSyncReq sends a sync_req to node, used both for the initial
// handshake after observing node-up and to close the loop once a sync_req
// has arrived from a node not yet in the peer set (spec §4.5).
func (r *Registrar) sendSyncReq(node types.NodeID) {
	data, err := wire.Encode(wire.MsgSyncReq, string(r.self), "", wire.SyncReqPayload{})
	if err != nil {
		logger.Warn("failed to encode sync_req", "error", err)
		return
	}
	if err := r.transport.SendTo(node, interfaces.RegistrarEndpoint, data); err != nil {
		logger.Debug("sync_req send failed", "node", node, "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.SyncTotal.WithLabelValues("req_sent").Inc()
	}
}

// sendSyncResp replies to a sync_req with every locally-owned binding,
// reusing the request's correlation ID (spec §4.5).
func (r *Registrar) sendSyncResp(node types.NodeID, corrID string, entries []wire.Entry) {
	data, err := wire.Encode(wire.MsgSyncResp, string(r.self), corrID, wire.SyncRespPayload{Entries: entries})
	if err != nil {
		logger.Warn("failed to encode sync_resp", "error", err)
		return
	}
	if err := r.transport.SendTo(node, interfaces.RegistrarEndpoint, data); err != nil {
		logger.Debug("sync_resp send failed", "node", node, "error", err)
		return
	}
	if r.metrics != nil {
		r.metrics.SyncTotal.WithLabelValues("resp_sent").Inc()
	}
}
