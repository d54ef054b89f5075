package membership

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameregistry/nameregistry/pkg/types"
)

func TestAddContainsRemove(t *testing.T) {
	s := New(16, time.Minute, nil)

	assert.False(t, s.Contains("n1"))

	s.Add("n1", types.Handle(7))
	assert.True(t, s.Contains("n1"))

	h, ok := s.HandleFor("n1")
	require.True(t, ok)
	assert.Equal(t, types.Handle(7), h)

	h, ok = s.Remove("n1")
	require.True(t, ok)
	assert.Equal(t, types.Handle(7), h)
	assert.False(t, s.Contains("n1"))

	_, ok = s.Remove("n1")
	assert.False(t, ok, "removing an already-absent peer reports false")
}

func TestNodesListsCurrentPeers(t *testing.T) {
	s := New(16, time.Minute, nil)
	s.Add("n1", 1)
	s.Add("n2", 2)

	nodes := s.Nodes()
	assert.ElementsMatch(t, []types.NodeID{"n1", "n2"}, nodes)
}

func TestRecentlyDepartedWindow(t *testing.T) {
	mc := clock.NewMock()
	s := New(16, 30*time.Second, mc)

	s.Add("n1", 1)
	s.Remove("n1")
	assert.True(t, s.RecentlyDeparted("n1"))

	mc.Add(31 * time.Second)
	assert.False(t, s.RecentlyDeparted("n1"), "anti-flap window should have expired")
}

func TestReAddClearsRecentlyDeparted(t *testing.T) {
	mc := clock.NewMock()
	s := New(16, time.Minute, mc)

	s.Add("n1", 1)
	s.Remove("n1")
	assert.True(t, s.RecentlyDeparted("n1"))

	s.Add("n1", 2)
	assert.False(t, s.RecentlyDeparted("n1"), "a reconnected peer is no longer 'recently departed'")
}

func TestNeverSeenPeerIsNotRecentlyDeparted(t *testing.T) {
	s := New(16, time.Minute, nil)
	assert.False(t, s.RecentlyDeparted("ghost"))
}
