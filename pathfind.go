package dtnsim

// pathfind.go finds earliest-arrival paths through the contact graph. It is Dijkstra's
// algorithm over contacts rather than nodes: the distance of a contact is the earliest
// time a packet can be on it, so the weight of an edge is however long the packet has
// to wait for the next contact to open.
//
// Ties are broken first by hop count, then by the distance reached over the first hop,
// then by the identity of that first hop under the configured node order. The last two
// are inherited from the first edge out of the root and never recomputed, so the winner
// among equal paths does not depend on the order in which the search explores them.

import (
	"cmp"
	"container/heap"
	"math"
)

// SearchOptions prune a search. The zero value searches the whole graph.
type SearchOptions struct {
	// nodes the path may not pass through
	SuppressedNodes []string

	// contacts the path may not use
	SuppressedContacts map[ContactID]bool

	// when Windowed is set only contacts opening strictly before Lookahead are explored
	Windowed  bool
	Lookahead float64

	Order NodeOrder
}

type searchKey struct {
	dist         float64
	hops         int
	firstHopDist float64
	firstHop     ContactID
}

func compareKeys(a, b *searchKey, order NodeOrder) int {
	if c := cmp.Compare(a.dist, b.dist); c != 0 {
		return c
	}
	if c := cmp.Compare(a.hops, b.hops); c != 0 {
		return c
	}
	if c := cmp.Compare(a.firstHopDist, b.firstHopDist); c != 0 {
		return c
	}
	if c := order(a.firstHop.To, b.firstHop.To); c != 0 {
		return c
	}
	if c := order(a.firstHop.From, b.firstHop.From); c != 0 {
		return c
	}
	return CompareContactIDs(a.firstHop, b.firstHop, order)
}

type searchItem struct {
	vertex ContactID
	key    searchKey
}

// searchQueue implements heap.Interface. Entries are never updated in place; an improved
// key is pushed as a new entry and the stale one is skipped when it surfaces.
type searchQueue struct {
	items []*searchItem
	order NodeOrder
}

func (sq *searchQueue) Len() int { return len(sq.items) }

func (sq *searchQueue) Less(i, j int) bool {
	c := compareKeys(&sq.items[i].key, &sq.items[j].key, sq.order)
	if c != 0 {
		return c < 0
	}
	return CompareContactIDs(sq.items[i].vertex, sq.items[j].vertex, sq.order) < 0
}

func (sq *searchQueue) Swap(i, j int) { sq.items[i], sq.items[j] = sq.items[j], sq.items[i] }

func (sq *searchQueue) Push(x any) { sq.items = append(sq.items, x.(*searchItem)) }

func (sq *searchQueue) Pop() any {
	n := len(sq.items)
	item := sq.items[n-1]
	sq.items[n-1] = nil
	sq.items = sq.items[:n-1]
	return item
}

type searchState struct {
	key  searchKey
	prev ContactID
	root bool
}

// FindPath searches for the earliest-arrival path from node src to node dst for a packet
// that is ready at time now. The path runs from src's sentinel to dst's sentinel, both
// included, and the distance is the arrival time at dst. A search from a node to itself
// returns an empty path at distance 0; an unreachable destination returns nil at +Inf.
func FindPath(cg *ContactGraph, src, dst string, now float64, opts *SearchOptions) ([]ContactID, float64) {
	if src == dst {
		return []ContactID{}, 0.0
	}
	if opts == nil {
		opts = new(SearchOptions)
	}
	order := opts.Order
	if order == nil {
		order = cg.nodeOrder
	}

	root := NodeVertex(src)
	terminal := NodeVertex(dst)
	if !cg.Contains(root) || !cg.Contains(terminal) {
		return nil, math.Inf(1)
	}

	visited := make(map[string]bool)
	for _, node := range opts.SuppressedNodes {
		visited[node] = true
	}

	states := make(map[ContactID]*searchState)
	settled := make(map[ContactID]bool)

	rootKey := searchKey{dist: now, hops: 0, firstHopDist: 0, firstHop: root}
	states[root] = &searchState{key: rootKey, root: true}
	pq := &searchQueue{items: make([]*searchItem, 0), order: order}
	heap.Push(pq, &searchItem{vertex: root, key: rootKey})

	found := false
	for pq.Len() > 0 {
		item := heap.Pop(pq).(*searchItem)
		if settled[item.vertex] {
			continue
		}
		settled[item.vertex] = true
		if item.vertex == terminal {
			found = true
			break
		}

		current := item.key
		visited[item.vertex.From] = true

		for _, nb := range cg.Successors(item.vertex) {
			// successors are sorted by descending end time, so nothing further
			// down the list is still open
			if nb.End <= current.dist {
				break
			}
			if opts.Windowed && nb.Start >= opts.Lookahead {
				continue
			}
			if visited[nb.To] || opts.SuppressedContacts[nb] {
				continue
			}
			if nb.IsSentinel() && nb != terminal {
				continue
			}
			if settled[nb] {
				continue
			}

			wait := math.Max(0.0, nb.Start-current.dist)
			cand := searchKey{dist: current.dist + wait, hops: current.hops + 1}
			if item.vertex == root {
				cand.firstHopDist = cand.dist
				cand.firstHop = nb
			} else {
				cand.firstHopDist = current.firstHopDist
				cand.firstHop = current.firstHop
			}

			st, present := states[nb]
			if !present || compareKeys(&cand, &st.key, order) < 0 {
				states[nb] = &searchState{key: cand, prev: item.vertex}
				heap.Push(pq, &searchItem{vertex: nb, key: cand})
			}
		}
	}

	if !found {
		return nil, math.Inf(1)
	}

	// walk back from the terminal
	path := make([]ContactID, 0)
	for v := terminal; ; {
		path = append(path, v)
		st := states[v]
		if st.root {
			break
		}
		v = st.prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, states[terminal].key.dist
}
