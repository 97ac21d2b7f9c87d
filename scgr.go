package dtnsim

// scgr.go implements the incremental variant of contact graph routing. Instead of
// enumerating every route up front, a node extends its route list one search at a time,
// and only when none of the routes it already knows is usable. Each search is first
// confined to a lookahead window sized from the delivery delays seen so far.
//
// For each packet three answers are computed from the same cache: the best route if
// current occupancy were ignored (reported to the monitors as the theoretical best), the
// best route that can actually take the packet now, and the runner-up through a different
// next hop, which is recorded as the packet's alternative.

// SCGR is the incremental, lookahead windowed contact graph router
type SCGR struct{}

func (r *SCGR) Name() string { return "scgr" }

// candidates ranks the feasible first hops known to the cache, refilling it until at
// least 'want' distinct next hops are feasible or no further route exists
func (r *SCGR) candidates(n *Node, pkt *Packet, excluded []string, now float64,
	ignoreCapacity bool, want int) []*Neighbor {

	dest := pkt.Destination
	cands := newCandidateSet(n.order)
	scanned := 0
	for {
		routes := n.Cache.Routes(dest)
		for ; scanned < len(routes); scanned++ {
			if n.feasible(routes[scanned], pkt, excluded, now, ignoreCapacity) {
				cands.offer(neighborFor(routes[scanned]))
			}
		}
		if cands.Len() >= want {
			break
		}
		if n.Cache.Refill(dest, now, true) == nil {
			break
		}
	}
	return cands.ranked()
}

func (r *SCGR) Route(n *Node, pkt *Packet, now float64) {
	excluded := n.excludedNodes(pkt)

	if pkt.Critical {
		floodCritical(n, pkt, searchFloodTargets(n, pkt, excluded, now), now)
		return
	}

	var best *Route
	if theoretical := r.candidates(n, pkt, excluded, now, true, 1); len(theoretical) > 0 {
		best = theoretical[0].Route
	}

	usable := r.candidates(n, pkt, excluded, now, false, 2)
	if len(usable) == 0 {
		n.toLimbo(pkt, now, true)
		return
	}
	winner := usable[0]

	if pkt.Source == n.ID {
		pkt.AddPlannedRoute(winner.Route)
		if len(usable) > 1 {
			pkt.AddAlternativeRoute(usable[1].Route)
		} else {
			pkt.AddAlternativeRoute(nil)
		}
	}
	n.enqueue(pkt, winner, best, now)
}
