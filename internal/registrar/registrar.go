// Package registrar implements the per-node registrar actor: the single
// goroutine that owns the local binding table's writes, the peer set, and
// every state transition spec §4 describes. Grounded on
// internal/core/swarm/dial/scheduler.go's single-consumer `select` loop,
// generalized to interleave local API calls, inbound peer notifications,
// liveness DOWN events, and membership events in FIFO arrival order
// (spec §5 "Local total order").
package registrar

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/internal/eventbus"
	"github.com/nameregistry/nameregistry/internal/membership"
	"github.com/nameregistry/nameregistry/internal/metrics"
	"github.com/nameregistry/nameregistry/internal/table"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/lib/log"
	"github.com/nameregistry/nameregistry/pkg/types"
)

var logger = log.Logger("registrar")

// ErrClosed is returned by API calls made after Close.
var ErrClosed = errors.New("registrar: closed")

// Registrar owns the local binding table's writes and drives the
// replication protocol of spec §4. The zero value is not usable; use New.
type Registrar struct {
	self types.NodeID

	table     *table.Table
	peers     *membership.PeerSet
	transport interfaces.Transport
	watcher   interfaces.LivenessWatcher
	metrics   *metrics.Registry
	term      interfaces.Terminator // optional

	mailbox    chan interface{}
	inbound    <-chan interfaces.Inbound
	membership <-chan types.Event

	// bus merges membership events and liveness DOWN events (from two
	// independently-owned channels that must each have exactly one
	// reader) into the single stream run()'s select loop consumes,
	// restoring the "one mailbox, one handler" shape spec §5 describes
	// despite DOWN/membership arriving through separate collaborators.
	bus    *eventbus.Bus
	busSub *eventbus.Subscription

	sf singleflight.Group

	priority atomic.Int64

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New constructs a Registrar. The returned value's Run loop must be
// started with Start before any API method is called.
func New(
	cfg *config.Config,
	self types.NodeID,
	tbl *table.Table,
	peers *membership.PeerSet,
	tr interfaces.Transport,
	watcher interfaces.LivenessWatcher,
	bus *eventbus.Bus,
	m *metrics.Registry,
	term interfaces.Terminator,
) (*Registrar, error) {
	inbound, err := tr.Receive(interfaces.RegistrarEndpoint)
	if err != nil {
		return nil, fmt.Errorf("registrar: subscribe endpoint: %w", err)
	}
	memCh, err := tr.SubscribeMembership()
	if err != nil {
		return nil, fmt.Errorf("registrar: subscribe membership: %w", err)
	}

	mailboxSize := cfg.Registrar.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = 256
	}

	return &Registrar{
		self:       self,
		table:      tbl,
		peers:      peers,
		transport:  tr,
		watcher:    watcher,
		metrics:    m,
		term:       term,
		mailbox:    make(chan interface{}, mailboxSize),
		inbound:    inbound,
		membership: memCh,
		bus:        bus,
		busSub:     bus.Subscribe(mailboxSize),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// Start launches the registrar's mailbox loop and the two forwarder
// goroutines that fan membership and liveness-DOWN events onto the bus.
func (r *Registrar) Start() {
	go r.forwardMembership()
	go r.forwardLiveness()
	go r.run()
}

// forwardMembership relays transport membership events onto the bus. It
// is the sole reader of r.membership, per the contract liveness.Service
// relies on (spec §5: one consumer per mailbox source).
func (r *Registrar) forwardMembership() {
	for {
		select {
		case evt, ok := <-r.membership:
			if !ok {
				return
			}
			r.bus.Emit(evt)
		case <-r.stop:
			return
		}
	}
}

// forwardLiveness relays liveness DOWN events onto the bus, wrapping them
// as types.Event so they share the run loop's single dispatch path with
// membership events.
func (r *Registrar) forwardLiveness() {
	for {
		select {
		case d, ok := <-r.watcher.Down():
			if !ok {
				continue
			}
			r.bus.Emit(types.EvtPrincipalDown{
				BaseEvent: types.BaseEvent{EventType: types.EventTypePrincipalDown},
				Handle:    d.Handle,
				Principal: d.Principal,
				Reason:    d.Reason,
			})
		case d, ok := <-r.watcher.PeerDown():
			if !ok {
				continue
			}
			r.bus.Emit(types.EvtPeerDown{
				BaseEvent: types.BaseEvent{EventType: types.EventTypePeerDown},
				Handle:    d.Handle,
				Node:      d.Node,
				Reason:    d.Reason,
			})
		case <-r.stop:
			return
		}
	}
}

func (r *Registrar) run() {
	defer close(r.stopped)
	for {
		select {
		case msg := <-r.mailbox:
			r.dispatch(msg)
		case inb, ok := <-r.inbound:
			if !ok {
				r.inbound = nil
				continue
			}
			r.handlePeerFrame(inb)
		case evt, ok := <-r.busSub.Events():
			if !ok {
				return
			}
			r.handleEvent(evt)
		case <-r.stop:
			return
		}
	}
}

func (r *Registrar) dispatch(msg interface{}) {
	switch m := msg.(type) {
	case msgRegister:
		m.reply <- r.doRegister(m.name, m.principal)
	case msgUnregister:
		r.doUnregister(m.name)
		close(m.reply)
	case msgSetMeta:
		m.reply <- r.doSetMeta(m.name, m.meta)
	case msgSetPriority:
		r.priority.Store(int64(m.priority))
		close(m.reply)
	default:
		logger.Warn("dropping unrecognized mailbox message", "type", fmt.Sprintf("%T", msg))
	}
}

// Close stops the mailbox loop and releases the liveness watcher. The
// bus itself is owned by the caller (it may be shared with other
// components) and is not closed here.
func (r *Registrar) Close() error {
	r.once.Do(func() { close(r.stop) })
	<-r.stopped
	r.busSub.Close()
	return r.watcher.Close()
}

func (r *Registrar) send(msg interface{}) error {
	select {
	case r.mailbox <- msg:
		return nil
	case <-r.stop:
		return ErrClosed
	}
}
