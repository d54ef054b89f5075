package nameregistry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nameregistry/nameregistry"
	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/pkg/types"
)

func newTestRegistry(t *testing.T, nodeID string) *nameregistry.Registry {
	t.Helper()
	cfg := config.DefaultConfig(nodeID)
	cfg.Transport.ListenAddr = "127.0.0.1:0"

	reg, err := nameregistry.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func dial(t *testing.T, from, to *nameregistry.Registry, addr string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, from.Dial(ctx, addr))
}

// TestTwoNodeReplication exercises the basic two-node scenario: a name
// registered on one node becomes visible on the other once the sync
// handshake completes, and unregistering propagates the same way.
func TestTwoNodeReplication(t *testing.T) {
	a := newTestRegistry(t, "node-a")
	b := newTestRegistry(t, "node-b")

	addr := listenAddrOf(t, a)
	dial(t, b, a, addr)

	p := types.Principal{ID: "p1", HomeNode: "node-a"}
	ok, err := a.Register("svc-a", p)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		got, ok := b.WhereIs("svc-a")
		return ok && got.Equal(p)
	}, 3*time.Second, 20*time.Millisecond, "svc-a should replicate from node-a to node-b")

	require.NoError(t, a.Unregister("svc-a"))

	require.Eventually(t, func() bool {
		_, ok := b.WhereIs("svc-a")
		return !ok
	}, 3*time.Second, 20*time.Millisecond, "unregister should replicate too")
}

// TestSyncHandshakeCatchesUpPreExistingState verifies that a node joining
// after bindings already exist receives them through the sync handshake,
// not just through subsequent broadcasts.
func TestSyncHandshakeCatchesUpPreExistingState(t *testing.T) {
	a := newTestRegistry(t, "node-a")

	p := types.Principal{ID: "p1", HomeNode: "node-a"}
	ok, err := a.Register("svc-existing", p)
	require.NoError(t, err)
	require.True(t, ok)

	b := newTestRegistry(t, "node-b")
	addr := listenAddrOf(t, a)
	dial(t, b, a, addr)

	require.Eventually(t, func() bool {
		got, ok := b.WhereIs("svc-existing")
		return ok && got.Equal(p)
	}, 3*time.Second, 20*time.Millisecond)
}

// TestThreeNodeMeshConverges checks that in a fully-connected three-node
// mesh a binding registered on one node reaches every other node. A
// registrar forwards only its own local bindings, so each pair of nodes
// is dialed directly.
func TestThreeNodeMeshConverges(t *testing.T) {
	a := newTestRegistry(t, "node-a")
	b := newTestRegistry(t, "node-b")
	c := newTestRegistry(t, "node-c")

	addrA := listenAddrOf(t, a)
	addrB := listenAddrOf(t, b)
	dial(t, b, a, addrA)
	dial(t, c, b, addrB)
	dial(t, c, a, addrA)

	p := types.Principal{ID: "p1", HomeNode: "node-c"}
	ok, err := c.Register("svc-c", p)
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		got, ok := a.WhereIs("svc-c")
		return ok && got.Equal(p)
	}, 5*time.Second, 20*time.Millisecond, "svc-c should reach node-a over its direct link to node-c")
}

// TestClashBetweenTwoNodesConvergesOnOneWinner has both nodes register the
// same name for their own local principal at roughly the same time; after
// the dust settles both sides must agree on exactly one winner.
func TestClashBetweenTwoNodesConvergesOnOneWinner(t *testing.T) {
	a := newTestRegistry(t, "node-a")
	b := newTestRegistry(t, "node-b")

	addr := listenAddrOf(t, a)
	dial(t, b, a, addr)

	pa := types.Principal{ID: "pa", HomeNode: "node-a"}
	pb := types.Principal{ID: "pb", HomeNode: "node-b"}

	okA, err := a.Register("shared", pa)
	require.NoError(t, err)
	require.True(t, okA)

	okB, err := b.Register("shared", pb)
	require.NoError(t, err)
	require.True(t, okB)

	require.Eventually(t, func() bool {
		gotA, okA := a.WhereIs("shared")
		gotB, okB := b.WhereIs("shared")
		return okA && okB && gotA.Equal(gotB)
	}, 5*time.Second, 20*time.Millisecond, "both nodes must converge on the same clash winner")

	got, _ := a.WhereIs("shared")
	assert.Equal(t, types.NodeID("node-a"), got.HomeNode, "node-a sorts first lexicographically and must win")
}

func listenAddrOf(t *testing.T, r *nameregistry.Registry) string {
	t.Helper()
	addr, err := r.ListenAddr()
	require.NoError(t, err)
	return addr
}
