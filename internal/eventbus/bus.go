// Package eventbus implements a small typed publish/subscribe bus used to
// fan node-up/node-down membership events and DOWN notifications out to
// the registrar's mailbox, adapted from internal/core/eventbus/bus.go.
//
// Unlike the teacher's reflect-based multi-type bus, nameregistry only
// ever needs one event stream feeding one consumer (the registrar), so
// this is simplified to a single-topic broadcaster with bounded
// subscriber channels; an event emitted while a subscriber's buffer is
// full is dropped for that subscriber, and events already buffered stay.
package eventbus

import (
	"sync"

	"github.com/nameregistry/nameregistry/pkg/types"
)

// Bus fans out types.Event values to subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	ch chan types.Event
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Subscription is a live subscription; call Close to stop receiving and
// release the channel.
type Subscription struct {
	bus *Bus
	id  int
	ch  chan types.Event
}

// Events returns the channel events are delivered on.
func (s *Subscription) Events() <-chan types.Event { return s.ch }

// Close cancels the subscription.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	close(s.ch)
}

// Subscribe registers a new subscriber with the given channel buffer size.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	sub := &subscription{ch: make(chan types.Event, buffer)}
	b.subs[id] = sub
	return &Subscription{bus: b, id: id, ch: sub.ch}
}

// Emit delivers evt to every current subscriber. A subscriber whose
// buffer is full has the event dropped for it rather than blocking the
// emitter — mirroring the teacher's node.dropCount slow-consumer handling
// in internal/core/eventbus/bus.go, minus the warning counter since this
// bus has exactly one intended consumer (the registrar mailbox adapter).
func (b *Bus) Emit(evt types.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Close shuts down the bus, closing every live subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
