package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameregistry/nameregistry/pkg/types"
)

func nodeUp(node types.NodeID) types.Event {
	return types.EvtNodeUp{BaseEvent: types.BaseEvent{EventType: types.EventTypeNodeUp}, Node: node}
}

func TestSubscribeAndEmit(t *testing.T) {
	b := New()
	sub := b.Subscribe(4)

	b.Emit(nodeUp("n1"))

	select {
	case evt := <-sub.Events():
		up, ok := evt.(types.EvtNodeUp)
		require.True(t, ok)
		assert.Equal(t, types.NodeID("n1"), up.Node)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEmitFansOutToEverySubscriber(t *testing.T) {
	b := New()
	sub1 := b.Subscribe(4)
	sub2 := b.Subscribe(4)

	b.Emit(nodeUp("n1"))

	for _, sub := range []*Subscription{sub1, sub2} {
		select {
		case <-sub.Events():
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestEmitDropsOnFullBufferRatherThanBlocking(t *testing.T) {
	b := New()
	sub := b.Subscribe(1)

	done := make(chan struct{})
	go func() {
		// Fill the buffer, then emit twice more; none of this must block
		// the emitter even though nobody is draining sub.
		b.Emit(nodeUp("n1"))
		b.Emit(nodeUp("n2"))
		b.Emit(nodeUp("n3"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber buffer")
	}

	// Only the first event (buffered) is still retrievable.
	evt := <-sub.Events()
	up := evt.(types.EvtNodeUp)
	assert.Equal(t, types.NodeID("n1"), up.Node)
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe(4)
	sub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok, "Events channel should be closed")

	// Emitting after Close must not panic even though the subscription
	// has been removed from the bus.
	assert.NotPanics(t, func() { b.Emit(nodeUp("n1")) })
}

func TestBusCloseClosesAllSubscriptions(t *testing.T) {
	b := New()
	sub1 := b.Subscribe(4)
	sub2 := b.Subscribe(4)

	b.Close()

	_, ok := <-sub1.Events()
	assert.False(t, ok)
	_, ok = <-sub2.Events()
	assert.False(t, ok)
}
