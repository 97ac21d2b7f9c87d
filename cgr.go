package dtnsim

// cgr.go implements basic Contact Graph Routing. The first packet towards a destination
// triggers discovery of the full route list, which the node then consults for every later
// packet towards it: the feasible routes are reduced to the best one per next hop and the
// best of those is booked.

// CGR is the basic contact graph router
type CGR struct{}

func (r *CGR) Name() string { return "cgr" }

// ProximateNodes returns the feasible candidate first hops for pkt at node n, best first,
// loading the route list for its destination if the node has none
func (r *CGR) ProximateNodes(n *Node, pkt *Packet, excluded []string, now float64) []*Neighbor {
	dest := pkt.Destination
	if len(n.Cache.Routes(dest)) == 0 {
		n.Cache.LoadAll(dest, now)
	}

	cands := newCandidateSet(n.order)
	for _, rt := range n.Cache.Routes(dest) {
		if n.feasible(rt, pkt, excluded, now, false) {
			cands.offer(neighborFor(rt))
		}
	}
	return cands.ranked()
}

func (r *CGR) Route(n *Node, pkt *Packet, now float64) {
	excluded := n.excludedNodes(pkt)
	candidates := r.ProximateNodes(n, pkt, excluded, now)

	if pkt.Critical {
		floodCritical(n, pkt, candidates, now)
		return
	}

	if len(candidates) == 0 {
		n.toLimbo(pkt, now, true)
		return
	}
	winner := candidates[0]
	if pkt.Source == n.ID {
		pkt.AddPlannedRoute(winner.Route)
	}
	n.enqueue(pkt, winner, winner.Route, now)
}
