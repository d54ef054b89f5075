package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameregistry/nameregistry/pkg/interfaces"
	"github.com/nameregistry/nameregistry/pkg/types"
)

func mustListen(t *testing.T, tr *WSTransport) {
	t.Helper()
	require.NoError(t, tr.Listen("127.0.0.1:0"))
	t.Cleanup(func() { _ = tr.Close() })
}

func TestDialHandshakeEstablishesConnection(t *testing.T) {
	a := New("node-a", time.Second)
	b := New("node-b", time.Second)
	mustListen(t, a)
	mustListen(t, b)

	memA, err := a.SubscribeMembership()
	require.NoError(t, err)
	memB, err := b.SubscribeMembership()
	require.NoError(t, err)

	require.NoError(t, b.Dial(context.Background(), a.listener.Addr().String()))

	assertNodeUp(t, memA, "node-b")
	assertNodeUp(t, memB, "node-a")
}

func assertNodeUp(t *testing.T, ch <-chan types.Event, want types.NodeID) {
	t.Helper()
	select {
	case evt := <-ch:
		up, ok := evt.(types.EvtNodeUp)
		require.True(t, ok, "expected EvtNodeUp, got %T", evt)
		assert.Equal(t, want, up.Node)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for node-up from %s", want)
	}
}

func TestSendToDeliversToReceiveEndpoint(t *testing.T) {
	a := New("node-a", time.Second)
	b := New("node-b", time.Second)
	mustListen(t, a)
	mustListen(t, b)

	aInbound, err := a.Receive(interfaces.RegistrarEndpoint)
	require.NoError(t, err)

	memA, _ := a.SubscribeMembership()
	memB, _ := b.SubscribeMembership()
	require.NoError(t, b.Dial(context.Background(), a.listener.Addr().String()))
	assertNodeUp(t, memA, "node-b")
	assertNodeUp(t, memB, "node-a")

	require.NoError(t, b.SendTo("node-a", interfaces.RegistrarEndpoint, []byte("hello")))

	select {
	case inb := <-aInbound:
		assert.Equal(t, types.NodeID("node-b"), inb.From)
		assert.Equal(t, []byte("hello"), inb.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound delivery")
	}
}

func TestSendToUnknownNodeFails(t *testing.T) {
	a := New("node-a", time.Second)
	mustListen(t, a)

	err := a.SendTo("ghost", interfaces.RegistrarEndpoint, []byte("x"))
	assert.Error(t, err)
}

func TestDisconnectEmitsNodeDown(t *testing.T) {
	a := New("node-a", time.Second)
	b := New("node-b", time.Second)
	mustListen(t, a)

	memA, _ := a.SubscribeMembership()
	memB, _ := b.SubscribeMembership()
	require.NoError(t, b.Dial(context.Background(), a.listener.Addr().String()))
	assertNodeUp(t, memA, "node-b")
	assertNodeUp(t, memB, "node-a")

	require.NoError(t, b.Close())

	select {
	case evt := <-memA:
		down, ok := evt.(types.EvtNodeDown)
		require.True(t, ok, "expected EvtNodeDown, got %T", evt)
		assert.Equal(t, types.NodeID("node-b"), down.Node)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for node-down")
	}
}

func TestNodeTotalOrderIsLexicographic(t *testing.T) {
	a := New("node-a", time.Second)
	assert.True(t, a.NodeTotalOrder("node-a", "node-b"))
	assert.False(t, a.NodeTotalOrder("node-b", "node-a"))
}
