package registrar

import (
	"context"
	"sync"

	"github.com/nameregistry/nameregistry/internal/wire"
	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

// fakeTransport is a hand-written collaborator fake, in the style of the
// teacher's tests/mocks package: a plain struct recording calls, rather
// than a generated mock.
type fakeTransport struct {
	self types.NodeID

	mu      sync.Mutex
	sent    []sentFrame
	sendErr error

	order func(a, b types.NodeID) bool

	membership chan types.Event
	inbound    chan interfaces.Inbound
}

type sentFrame struct {
	node     types.NodeID
	endpoint string
	env      wire.Envelope
}

func newFakeTransport(self types.NodeID) *fakeTransport {
	return &fakeTransport{
		self:       self,
		membership: make(chan types.Event, 64),
		inbound:    make(chan interfaces.Inbound, 64),
	}
}

var _ interfaces.Transport = (*fakeTransport)(nil)

func (t *fakeTransport) LocalNodeIdentity() types.NodeID { return t.self }

func (t *fakeTransport) NodeTotalOrder(a, b types.NodeID) bool {
	if t.order != nil {
		return t.order(a, b)
	}
	return a.Less(b)
}

func (t *fakeTransport) SendTo(node types.NodeID, endpoint string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	env, err := wire.DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	t.sent = append(t.sent, sentFrame{node: node, endpoint: endpoint, env: env})
	return nil
}

func (t *fakeTransport) SubscribeMembership() (<-chan types.Event, error) {
	return t.membership, nil
}

func (t *fakeTransport) Receive(endpoint string) (<-chan interfaces.Inbound, error) {
	return t.inbound, nil
}

func (t *fakeTransport) sentTo(node types.NodeID, msgType wire.MsgType) []wire.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []wire.Envelope
	for _, f := range t.sent {
		if f.node == node && f.env.Type == msgType {
			out = append(out, f.env)
		}
	}
	return out
}

func (t *fakeTransport) sentOfType(msgType wire.MsgType) []sentFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentFrame
	for _, f := range t.sent {
		if f.env.Type == msgType {
			out = append(out, f)
		}
	}
	return out
}

func (t *fakeTransport) deliver(from types.NodeID, payload []byte) {
	t.inbound <- interfaces.Inbound{From: from, Payload: payload}
}

// fakeTerminator records every principal it was asked to terminate.
type fakeTerminator struct {
	mu          sync.Mutex
	terminated  []types.Principal
	err         error
	terminateCh chan types.Principal
}

func newFakeTerminator() *fakeTerminator {
	return &fakeTerminator{terminateCh: make(chan types.Principal, 16)}
}

var _ interfaces.Terminator = (*fakeTerminator)(nil)

func (f *fakeTerminator) Terminate(_ context.Context, p types.Principal) error {
	f.mu.Lock()
	f.terminated = append(f.terminated, p)
	err := f.err
	f.mu.Unlock()
	select {
	case f.terminateCh <- p:
	default:
	}
	return err
}
