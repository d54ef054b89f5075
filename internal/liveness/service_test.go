package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameregistry/nameregistry/pkg/types"
)

func TestMonitorPrincipalDeliversDownOnTermination(t *testing.T) {
	s := New()
	defer s.Close()

	done := make(chan struct{})
	p := types.Principal{ID: "p1", HomeNode: "n1", Done: done}

	h, err := s.MonitorPrincipal(context.Background(), p)
	require.NoError(t, err)

	close(done)

	select {
	case d := <-s.Down():
		assert.Equal(t, h, d.Handle)
		assert.True(t, d.Principal.Equal(p))
		assert.Equal(t, "terminated", d.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PrincipalDown")
	}
}

func TestDemonitorPrincipalSuppressesDown(t *testing.T) {
	s := New()
	defer s.Close()

	done := make(chan struct{})
	p := types.Principal{ID: "p1", HomeNode: "n1", Done: done}

	h, err := s.MonitorPrincipal(context.Background(), p)
	require.NoError(t, err)

	s.Demonitor(h)
	close(done)

	select {
	case d := <-s.Down():
		t.Fatalf("unexpected DOWN delivered after Demonitor: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMonitorPeerAndNotifyPeerNodeDown(t *testing.T) {
	s := New()
	defer s.Close()

	h, err := s.MonitorPeer(context.Background(), "n2")
	require.NoError(t, err)

	s.NotifyPeerNodeDown("n2", "transport_link_down")

	select {
	case d := <-s.PeerDown():
		assert.Equal(t, h, d.Handle)
		assert.Equal(t, types.NodeID("n2"), d.Node)
		assert.Equal(t, "transport_link_down", d.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PeerDown")
	}
}

func TestNotifyPeerNodeDownIgnoresUnmonitoredNode(t *testing.T) {
	s := New()
	defer s.Close()

	s.NotifyPeerNodeDown("ghost", "transport_link_down")

	select {
	case d := <-s.PeerDown():
		t.Fatalf("unexpected PeerDown for unmonitored node: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDemonitorPeerSuppressesDown(t *testing.T) {
	s := New()
	defer s.Close()

	h, err := s.MonitorPeer(context.Background(), "n2")
	require.NoError(t, err)
	s.Demonitor(h)

	s.NotifyPeerNodeDown("n2", "transport_link_down")

	select {
	case d := <-s.PeerDown():
		t.Fatalf("unexpected PeerDown after Demonitor: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMonitorAfterCloseFails(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	_, err := s.MonitorPrincipal(context.Background(), types.Principal{ID: "p1", HomeNode: "n1"})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.MonitorPeer(context.Background(), "n2")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseCancelsPendingPrincipalWatches(t *testing.T) {
	s := New()
	done := make(chan struct{}) // never closed
	p := types.Principal{ID: "p1", HomeNode: "n1", Done: done}
	_, err := s.MonitorPrincipal(context.Background(), p)
	require.NoError(t, err)

	closed := make(chan error, 1)
	go func() {
		closed <- s.Close()
	}()

	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return; a watch goroutine is leaking")
	}
}
