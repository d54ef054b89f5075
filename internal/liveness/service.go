// Package liveness implements the monitor primitive spec §6 assumes:
// Monitor(principal) -> handle, asynchronously delivering DOWN(handle,
// principal, reason) on termination, for both local principals and peer
// registrars (spec §9 "Liveness monitoring").
//
// Grounded on internal/core/liveness/service.go's peerState-map-plus-
// callbacks shape, generalized from "ping-based node health" to "watch an
// arbitrary termination signal" since spec §1 delegates the actual health
// signal (local process exit, peer link drop) to collaborators outside
// this module's scope.
package liveness

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/lib/log"
	"github.com/nameregistry/nameregistry/pkg/types"
)

var logger = log.Logger("liveness")

// ErrClosed is returned by Monitor calls after Close.
var ErrClosed = errors.New("liveness: service closed")

type principalWatch struct {
	cancel context.CancelFunc
}

// Service implements interfaces.LivenessWatcher.
type Service struct {
	mu         sync.Mutex
	principals map[types.Handle]*principalWatch
	peerByNode map[types.NodeID]types.Handle
	nodeByPeer map[types.Handle]types.NodeID

	nextHandle atomic.Uint64

	down     chan interfaces.PrincipalDown
	peerDown chan interfaces.PeerDown

	closed atomic.Bool
	stop   chan struct{}
	wg     sync.WaitGroup
}

var _ interfaces.LivenessWatcher = (*Service)(nil)

// New returns a Service with no active watches. The caller — normally the
// registrar, which is the sole consumer of the transport's membership
// channel (spec §5: no two readers should race over the same mailbox
// source) — calls NotifyPeerNodeDown when it observes a monitored peer's
// node-down event.
func New() *Service {
	return &Service{
		principals: make(map[types.Handle]*principalWatch),
		peerByNode: make(map[types.NodeID]types.Handle),
		nodeByPeer: make(map[types.Handle]types.NodeID),
		down:       make(chan interfaces.PrincipalDown, 256),
		peerDown:   make(chan interfaces.PeerDown, 256),
		stop:       make(chan struct{}),
	}
}

// NotifyPeerNodeDown is the link-level disconnect signal from the
// transport (spec §9 "Liveness monitoring"): if node is currently
// monitored, its handle's PeerDown fires.
func (s *Service) NotifyPeerNodeDown(node types.NodeID, reason string) {
	s.mu.Lock()
	h, ok := s.peerByNode[node]
	if ok {
		delete(s.peerByNode, node)
		delete(s.nodeByPeer, h)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case s.peerDown <- interfaces.PeerDown{Handle: h, Node: node, Reason: reason}:
	case <-s.stop:
	}
}

// MonitorPrincipal installs a monitor on a local principal's Done
// channel. Closing p.Done delivers a DOWN; canceling ctx ends the watch
// without delivering one.
func (s *Service) MonitorPrincipal(ctx context.Context, p types.Principal) (types.Handle, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	h := types.Handle(s.nextHandle.Add(1))
	watchCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.principals[h] = &principalWatch{cancel: cancel}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-p.Done:
			s.deliverPrincipalDown(h, p, "terminated")
		case <-watchCtx.Done():
			// Demonitored, or service closed: no DOWN delivered.
		case <-s.stop:
		}
	}()

	return h, nil
}

func (s *Service) deliverPrincipalDown(h types.Handle, p types.Principal, reason string) {
	s.mu.Lock()
	_, still := s.principals[h]
	delete(s.principals, h)
	s.mu.Unlock()
	if !still {
		return
	}
	select {
	case s.down <- interfaces.PrincipalDown{Handle: h, Principal: p, Reason: reason}:
	case <-s.stop:
	}
}

// MonitorPeer installs a monitor on a peer registrar's node, fired when
// the membership stream reports that node going down.
func (s *Service) MonitorPeer(_ context.Context, node types.NodeID) (types.Handle, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	h := types.Handle(s.nextHandle.Add(1))
	s.mu.Lock()
	s.peerByNode[node] = h
	s.nodeByPeer[h] = node
	s.mu.Unlock()
	return h, nil
}

// Demonitor cancels a previously installed monitor of either kind.
func (s *Service) Demonitor(h types.Handle) {
	s.mu.Lock()
	if pw, ok := s.principals[h]; ok {
		delete(s.principals, h)
		s.mu.Unlock()
		pw.cancel()
		return
	}
	if node, ok := s.nodeByPeer[h]; ok {
		delete(s.nodeByPeer, h)
		delete(s.peerByNode, node)
	}
	s.mu.Unlock()
}

// Down returns the channel local-principal DOWN events arrive on.
func (s *Service) Down() <-chan interfaces.PrincipalDown { return s.down }

// PeerDown returns the channel peer-registrar DOWN events arrive on.
func (s *Service) PeerDown() <-chan interfaces.PeerDown { return s.peerDown }

// Close stops DOWN delivery and cancels every pending principal watch
// goroutine.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stop)
	s.mu.Lock()
	for _, pw := range s.principals {
		pw.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
	logger.Debug("liveness service closed")
	return nil
}
