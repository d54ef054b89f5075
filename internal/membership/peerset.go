// Package membership implements the registrar's peer-set bookkeeping
// (spec §3 "Peer record", §5 "peer set... owned exclusively by the
// registrar"). It is not a separate actor: it is a plain, non-concurrent
// data structure the registrar goroutine owns and mutates directly,
// mirroring how internal/realm/member/manager.go's Manager owns its
// `members map[string]*Member` without an extra layer of synchronization
// beyond what the registrar's single-writer contract already provides.
//
// The anti-flap protection window generalizes the teacher's
// `recentlyDisconnected map[string]time.Time` (internal/realm/member/manager.go)
// into a capacity-bounded LRU, so a long-running node doesn't leak memory
// remembering every peer it has ever seen depart.
package membership

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/benbjohnson/clock"

	"github.com/nameregistry/nameregistry/pkg/types"
)

// PeerRecord is the liveness handle kept for each connected peer
// registrar (spec §3 "Peer record").
type PeerRecord struct {
	Node   types.NodeID
	Handle types.Handle
}

// PeerSet tracks this node's currently-connected peer registrars. The
// zero value is not usable; use New.
type PeerSet struct {
	peers map[types.NodeID]types.Handle

	recentlyGone *lru.Cache[types.NodeID, time.Time]
	ttl          time.Duration
	clock        clock.Clock
}

// New returns an empty PeerSet. cap bounds the anti-flap LRU; ttl is how
// long a departed peer is remembered.
func New(cap int, ttl time.Duration, clk clock.Clock) *PeerSet {
	if cap <= 0 {
		cap = 1024
	}
	if clk == nil {
		clk = clock.New()
	}
	c, _ := lru.New[types.NodeID, time.Time](cap)
	return &PeerSet{
		peers:        make(map[types.NodeID]types.Handle),
		recentlyGone: c,
		ttl:          ttl,
		clock:        clk,
	}
}

// Contains reports whether node is a current peer.
func (s *PeerSet) Contains(node types.NodeID) bool {
	_, ok := s.peers[node]
	return ok
}

// Add installs node as a connected peer with the given liveness handle.
func (s *PeerSet) Add(node types.NodeID, h types.Handle) {
	s.peers[node] = h
	s.recentlyGone.Remove(node)
}

// Remove drops node from the peer set, returning its liveness handle so
// the caller can demonitor it, and remembers the departure for the
// anti-flap window.
func (s *PeerSet) Remove(node types.NodeID) (types.Handle, bool) {
	h, ok := s.peers[node]
	if !ok {
		return 0, false
	}
	delete(s.peers, node)
	s.recentlyGone.Add(node, s.clock.Now())
	return h, true
}

// HandleFor returns the liveness handle for a connected peer.
func (s *PeerSet) HandleFor(node types.NodeID) (types.Handle, bool) {
	h, ok := s.peers[node]
	return h, ok
}

// Nodes returns the current peer set's node identities. Order is
// unspecified.
func (s *PeerSet) Nodes() []types.NodeID {
	out := make([]types.NodeID, 0, len(s.peers))
	for n := range s.peers {
		out = append(out, n)
	}
	return out
}

// RecentlyDeparted reports whether node departed within the anti-flap
// window — purely diagnostic (spec's correctness rules don't depend on
// it): it lets the registrar log a stray post-DOWN notification as "from
// a peer we just dropped" instead of a bare "unknown peer" (spec §4.3,
// §7).
func (s *PeerSet) RecentlyDeparted(node types.NodeID) bool {
	at, ok := s.recentlyGone.Get(node)
	if !ok {
		return false
	}
	return s.clock.Now().Sub(at) < s.ttl
}
