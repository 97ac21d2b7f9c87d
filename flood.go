package dtnsim

// flood.go is the EXPERIMENTAL handling of critical packets. Rather than booking the
// single best route, the node sends an independent copy of the packet over every
// neighbor that currently offers a feasible route to the destination. No planned or
// alternative routes are recorded for flooded copies.

import (
	"golang.org/x/exp/slices"
)

// floodCritical enqueues a clone of pkt on the first contact of each target and returns
// the number of copies sent. With no target the original packet goes to limbo.
func floodCritical(n *Node, pkt *Packet, targets []*Neighbor, now float64) int {
	if len(targets) == 0 {
		n.toLimbo(pkt, now, true)
		return 0
	}
	sent := 0
	for _, nb := range targets {
		if n.enqueue(pkt.Clone(), nb, nb.Route, now) {
			sent += 1
		}
	}
	n.log.Debugf("critical packet %d flooded over %d of %d neighbors", pkt.ID, sent, len(targets))
	return sent
}

// searchFloodTargets finds a route through each of the node's outbound contacts in turn,
// by searching with every other outbound contact suppressed. It returns the best feasible
// route per next hop, best first.
func searchFloodTargets(n *Node, pkt *Packet, excluded []string, now float64) []*Neighbor {
	firstHops := n.graph.Successors(NodeVertex(n.ID))
	cands := newCandidateSet(n.order)

	for _, first := range firstHops {
		if slices.Contains(excluded, first.To) {
			continue
		}
		if _, present := n.Contacts[first]; !present {
			continue
		}
		suppressed := make(map[ContactID]bool)
		for _, other := range firstHops {
			if other != first {
				suppressed[other] = true
			}
		}
		path, _ := FindPath(n.graph, n.ID, pkt.Destination, now,
			&SearchOptions{SuppressedContacts: suppressed, Order: n.order})
		rt := NewRoute(path)
		if rt == nil {
			continue
		}
		if n.feasible(rt, pkt, excluded, now, false) {
			cands.offer(neighborFor(rt))
		}
	}
	return cands.ranked()
}
