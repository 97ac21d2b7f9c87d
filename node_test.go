package dtnsim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcludedNodes(t *testing.T) {
	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	n := sim.Node("node2")

	fresh := CreatePacket(0, "node2", "node8", 100, 0)
	assert.Nil(t, n.excludedNodes(fresh))

	forwarded := CreatePacket(1, "node1", "node8", 100, 0)
	forwarded.AddHop("node1")
	assert.Equal(t, []string{"node1"}, n.excludedNodes(forwarded))

	forwarded.ReturnToSender = true
	assert.Nil(t, n.excludedNodes(forwarded))
}

func TestExcludedNodesBetweenHotspots(t *testing.T) {
	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	hubs := []string{"node1", "node2", "node3"}
	for _, name := range sim.Nodes() {
		sim.Node(name).Hotspots = hubs
	}

	pkt := CreatePacket(0, "node1", "node8", 100, 0)
	pkt.AddHop("node1")
	assert.Equal(t, hubs, sim.Node("node2").excludedNodes(pkt))
	assert.True(t, sim.Node("node2").IsHotspot())

	// a hub that received from a non-hub only excludes the sender
	pkt = CreatePacket(1, "node6", "node1", 100, 0)
	pkt.AddHop("node6")
	assert.Equal(t, []string{"node6"}, sim.Node("node2").excludedNodes(pkt))
}

func TestFeasibility(t *testing.T) {
	sim := newTestSimulator(t, ringPlan(true), new(CGR))
	n := sim.Node("node1")
	n.Cache.LoadAll("node8", 0)
	viaNode2 := n.Cache.Routes("node8")[0]

	pkt := CreatePacket(0, "node1", "node8", 1000, 0)
	assert.True(t, n.feasible(viaNode2, pkt, nil, 0, false))
	assert.False(t, n.feasible(viaNode2, pkt, []string{"node2"}, 0, false), "excluded next hop")
	assert.False(t, n.feasible(viaNode2, pkt, nil, 40, false), "route expired")

	pkt.Deadline = 30
	assert.False(t, n.feasible(viaNode2, pkt, nil, 0, false), "deadline")
	pkt.Deadline = math.Inf(1)

	big := CreatePacket(1, "node1", "node8", 20000, 0)
	assert.False(t, n.feasible(viaNode2, big, nil, 0, true), "route capacity")

	// book the first contact up to the point where pkt no longer fits behind
	filler := CreatePacket(2, "node1", "node2", 59000, 0)
	assert.NoError(t, sim.Contact(viaNode2.FirstHop()).EnqueuePacket(filler, viaNode2, viaNode2))
	assert.False(t, n.feasible(viaNode2, pkt, nil, 0, false))
	assert.True(t, n.feasible(viaNode2, pkt, nil, 0, true), "occupancy ignored")
}

func TestRoutePacketDeliversAtDestination(t *testing.T) {
	sim := newTestSimulator(t, ringPlan(true), new(SCGR))
	rm := new(recordingMonitor)
	sim.RegisterMonitor(rm)

	pkt := CreatePacket(sim.NextPacketID(), "node8", "node8", 100, 0)
	sim.InjectPacket("node8", pkt)
	assert.True(t, pkt.Delivered)
	assert.Equal(t, []string{"node8"}, pkt.Hops)
	assert.Len(t, rm.delivered, 1)
}
