package dtnsim

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// diamondPlan has two disjoint two-hop routes from node1 to node4
func diamondPlan() *ContactPlan {
	cp := CreateContactPlan(1000, 0)
	oneWay := &ContactOpts{OneWay: true}
	cp.AddContact("node1", "node2", 10, 20, oneWay)
	cp.AddContact("node2", "node4", 20, 30, oneWay)
	cp.AddContact("node1", "node3", 40, 50, oneWay)
	cp.AddContact("node3", "node4", 70, 80, oneWay)
	return cp
}

// ringPlan is an eight node scenario with two routes from node1 to node8, one through
// node2 and node6 (only when withRelay is set) and one through node3 and node7
func ringPlan(withRelay bool) *ContactPlan {
	cp := CreateContactPlan(1000, 0)
	for idx := 1; idx <= 8; idx++ {
		cp.AddNode(fmt.Sprintf("node%d", idx))
	}
	cp.AddContact("node1", "node2", 30, 90, nil)
	cp.AddContact("node1", "node3", 0, 100, nil)
	cp.AddContact("node3", "node7", 40, 80, nil)
	cp.AddContact("node6", "node8", 0, 100, nil)
	cp.AddContact("node7", "node8", 30, 90, nil)
	if withRelay {
		cp.AddContact("node2", "node6", 10, 40, nil)
	}
	return cp
}

func mkContact(from, to string, start, end float64) ContactID {
	return ContactID{From: from, To: to, Start: start, End: end, Datarate: 1000, Delay: 0}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestSimulator(t *testing.T, plan *ContactPlan, router Router) *Simulator {
	t.Helper()
	sim := CreateSimulator(t.Name(), quietLogger())
	require.NoError(t, sim.LoadPlan(plan, router, LexicalOrder))
	return sim
}

// recoverSimError runs f and returns the SimError it panics with, if any
func recoverSimError(f func()) (se *SimError) {
	defer func() {
		if r := recover(); r != nil {
			se, _ = r.(*SimError)
		}
	}()
	f()
	return nil
}

// recordingMonitor keeps a log line per event, plus the values tests look at most
type recordingMonitor struct {
	BaseMonitor
	events    []string
	routed    []*Packet
	txStarts  []float64
	bestEDTs  []float64
	noRoute   int
	delivered []*Packet
	started   int
	ended     int
}

func (rm *recordingMonitor) PacketRouted(now float64, pkt *Packet, node string, booked *Route, best *Route, txStart float64) {
	rm.events = append(rm.events, fmt.Sprintf("%g route %d %s via %s", now, pkt.ID, node, booked.NextHop))
	rm.routed = append(rm.routed, pkt)
	rm.txStarts = append(rm.txStarts, txStart)
	if best != nil {
		rm.bestEDTs = append(rm.bestEDTs, best.EDT)
	}
}

func (rm *recordingMonitor) PacketTransmitted(now float64, pkt *Packet, node string) {
	rm.events = append(rm.events, fmt.Sprintf("%g transmit %d %s", now, pkt.ID, node))
}

func (rm *recordingMonitor) PacketDestinationReached(now float64, pkt *Packet, node string) {
	rm.events = append(rm.events, fmt.Sprintf("%g deliver %d %s", now, pkt.ID, node))
	rm.delivered = append(rm.delivered, pkt)
}

func (rm *recordingMonitor) NoRouteFound(now float64, node string, pkt *Packet) {
	rm.events = append(rm.events, fmt.Sprintf("%g noroute %d %s", now, pkt.ID, node))
	rm.noRoute += 1
}

func (rm *recordingMonitor) ContactStarted(now float64, node string, cid ContactID) {
	rm.started += 1
}

func (rm *recordingMonitor) ContactEnded(now float64, node string, cid ContactID) {
	rm.ended += 1
}
