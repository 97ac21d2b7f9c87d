package dtnsim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPacketHops(t *testing.T) {
	pkt := CreatePacket(7, "node1", "node8", 100, 3)
	assert.True(t, math.IsInf(pkt.Deadline, 1))
	_, ok := pkt.LastHop()
	assert.False(t, ok)

	pkt.AddHop("node1")
	pkt.AddHop("node2")
	last, ok := pkt.LastHop()
	assert.True(t, ok)
	assert.Equal(t, "node2", last)

	pkt.SetDelivered("node8", 40)
	assert.True(t, pkt.Delivered)
	assert.Equal(t, 40.0, pkt.DeliveredAt)
	assert.Equal(t, []string{"node1", "node2", "node8"}, pkt.Hops)
}

func TestPacketCloneIsIndependent(t *testing.T) {
	rt := &Route{NextHop: "node2"}
	pkt := CreatePacket(1, "node1", "node8", 100, 0)
	pkt.AddHop("node1")
	pkt.AddPlannedRoute(rt)
	pkt.AddAlternativeRoute(nil)

	cp := pkt.Clone()
	cp.AddHop("node2")
	cp.AddPlannedRoute(rt)
	cp.Hops[0] = "changed"

	assert.Equal(t, []string{"node1"}, pkt.Hops)
	assert.Len(t, pkt.PlannedRoutes, 1)
	assert.Len(t, cp.PlannedRoutes, 2)
	assert.Same(t, pkt.PlannedRoutes[0], cp.PlannedRoutes[0])
	assert.Equal(t, []*Route{nil}, cp.AlternativeRoutes)
}
