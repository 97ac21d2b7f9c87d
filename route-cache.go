package dtnsim

// route-cache.go keeps, for one node, the routes it has discovered towards each
// destination. Every discovered route's limiting contact is suppressed in later searches,
// so successive refills surface progressively different routes. The cache also keeps a
// running mean of route delivery delay per destination, which bounds the lookahead window
// of the incremental search.

import (
	"sort"
)

// DefaultLookaheadWindow bounds windowed searches until a delivery delay has been observed
var DefaultLookaheadWindow float64 = 8000.0

// lookaheadFactor scales the mean delivery delay into the search window
const lookaheadFactor = 1.2

// AvgDeliveryTime summarizes the delivery delays of routes found towards a destination,
// and how often the lookahead window alone was enough to find one
type AvgDeliveryTime struct {
	Mean       float64
	Count      int
	WindowHit  int
	WindowMiss int
}

// observe folds one more delay sample into the running mean
func (adt *AvgDeliveryTime) observe(delay float64) {
	adt.Count += 1
	adt.Mean += (delay - adt.Mean) / float64(adt.Count)
}

type routeList struct {
	routes    []*Route
	excluded  map[ContactID]bool
	exhausted bool
	rdt       AvgDeliveryTime
}

// RouteCache holds the route lists of one node, by destination
type RouteCache struct {
	node    string
	graph   *ContactGraph
	order   NodeOrder
	entries map[string]*routeList
}

// CreateRouteCache is a constructor
func CreateRouteCache(node string, cg *ContactGraph, order NodeOrder) *RouteCache {
	rc := new(RouteCache)
	rc.node = node
	rc.graph = cg
	if order == nil {
		order = LexicalOrder
	}
	rc.order = order
	rc.entries = make(map[string]*routeList)
	return rc
}

func (rc *RouteCache) entry(dest string) *routeList {
	rl, present := rc.entries[dest]
	if !present {
		rl = &routeList{routes: make([]*Route, 0), excluded: make(map[ContactID]bool)}
		rc.entries[dest] = rl
	}
	return rl
}

// Routes returns the routes discovered so far towards dest, in discovery order
func (rc *RouteCache) Routes(dest string) []*Route {
	rl, present := rc.entries[dest]
	if !present {
		return nil
	}
	return rl.routes
}

// Exhausted is true once a search towards dest has come back empty
func (rc *RouteCache) Exhausted(dest string) bool {
	rl, present := rc.entries[dest]
	return present && rl.exhausted
}

func (rc *RouteCache) DeliveryTime(dest string) AvgDeliveryTime {
	rl, present := rc.entries[dest]
	if !present {
		return AvgDeliveryTime{}
	}
	return rl.rdt
}

// Reset forgets every route. It must be called whenever the contact graph changes.
func (rc *RouteCache) Reset() {
	rc.entries = make(map[string]*routeList)
}

// LoadAll discovers every route towards dest that the graph offers from time now,
// returning the number of routes the list holds afterwards
func (rc *RouteCache) LoadAll(dest string, now float64) int {
	rl := rc.entry(dest)
	for !rl.exhausted {
		rc.refill(rl, dest, now, false)
	}
	return len(rl.routes)
}

// Refill discovers one more route towards dest and appends it to the list. In windowed mode
// the search first explores only contacts opening within 1.2 mean delivery delays of now,
// and falls back to the whole graph when that finds nothing. It returns nil when no
// further route exists.
func (rc *RouteCache) Refill(dest string, now float64, windowed bool) *Route {
	return rc.refill(rc.entry(dest), dest, now, windowed)
}

func (rc *RouteCache) refill(rl *routeList, dest string, now float64, windowed bool) *Route {
	if rl.exhausted {
		return nil
	}
	opts := &SearchOptions{SuppressedContacts: rl.excluded, Order: rc.order}

	var path []ContactID
	var dist float64
	if windowed {
		window := DefaultLookaheadWindow
		if rl.rdt.Count > 0 {
			window = lookaheadFactor * rl.rdt.Mean
		}
		opts.Windowed = true
		opts.Lookahead = now + window
		path, dist = FindPath(rc.graph, rc.node, dest, now, opts)
		if path == nil {
			rl.rdt.WindowMiss += 1
			opts.Windowed = false
			path, dist = FindPath(rc.graph, rc.node, dest, now, opts)
		} else {
			rl.rdt.WindowHit += 1
		}
	} else {
		path, dist = FindPath(rc.graph, rc.node, dest, now, opts)
	}

	rt := NewRoute(path)
	if rt == nil {
		rl.exhausted = true
		return nil
	}
	rl.rdt.observe(dist - now)
	rl.excluded[rt.LimitingContact()] = true
	rl.routes = append(rl.routes, rt)
	return rt
}

// candidateSet keeps the best ranked Neighbor per next hop node
type candidateSet struct {
	byHop map[string]*Neighbor
	order NodeOrder
}

func newCandidateSet(order NodeOrder) *candidateSet {
	return &candidateSet{byHop: make(map[string]*Neighbor), order: order}
}

// offer keeps nb if it outranks the candidate already held for its next hop
func (cs *candidateSet) offer(nb *Neighbor) {
	held, present := cs.byHop[nb.NextHop]
	if !present || CompareNeighbors(nb, held, cs.order) < 0 {
		cs.byHop[nb.NextHop] = nb
	}
}

func (cs *candidateSet) Len() int {
	return len(cs.byHop)
}

// ranked lists the candidates best first
func (cs *candidateSet) ranked() []*Neighbor {
	nbs := make([]*Neighbor, 0, len(cs.byHop))
	for _, nb := range cs.byHop {
		nbs = append(nbs, nb)
	}
	sort.Slice(nbs, func(i, j int) bool { return CompareNeighbors(nbs[i], nbs[j], cs.order) < 0 })
	return nbs
}

func (cs *candidateSet) best() *Neighbor {
	var top *Neighbor
	for _, nb := range cs.byHop {
		if top == nil || CompareNeighbors(nb, top, cs.order) < 0 {
			top = nb
		}
	}
	return top
}
