package dtnsim

// contact-graph.go builds and maintains the contact graph. Its vertices are contacts
// plus one sentinel per node; an edge from contact A to contact B means a packet that
// arrived over A can continue over B. Vertices live in an arena keyed by ContactID, and
// each slot holds the keys of its successors and predecessors, so the graph carries no
// pointer cycles and any vertex can be relinked in isolation.
//
// Adjacency lists are kept sorted by descending end time so that a search can stop
// scanning a list as soon as it meets a contact that has already closed.

import (
	"cmp"
	"sort"

	"golang.org/x/exp/slices"
)

type vertexSlot struct {
	succ []ContactID
	pred []ContactID
}

// ContactGraph is the time-expanded graph searched by the path finder
type ContactGraph struct {
	vertices map[ContactID]*vertexSlot

	// vertex keys in insertion order, so iteration never depends on map order
	order []ContactID

	nodeOrder NodeOrder
}

// CreateContactGraph builds the graph for every contact in the plan plus a sentinel
// for each of its nodes. Every pair of vertices is compared once.
func CreateContactGraph(plan *ContactPlan, order NodeOrder) *ContactGraph {
	cg := new(ContactGraph)
	if order == nil {
		order = LexicalOrder
	}
	cg.nodeOrder = order
	cg.build(plan)
	return cg
}

// canFollow is the edge rule: B continues from where A arrives, does not
// immediately return to A's sender, and is still open after A opens
func canFollow(a, b ContactID) bool {
	return a.To == b.From && a.From != b.To && b.End > a.Start
}

func (cg *ContactGraph) build(plan *ContactPlan) {
	cg.vertices = make(map[ContactID]*vertexSlot)
	cg.order = make([]ContactID, 0)

	for _, cid := range plan.Contacts {
		cg.addSlot(cid)
	}
	for _, node := range plan.Nodes {
		cg.addSlot(NodeVertex(node))
	}

	for _, a := range cg.order {
		slotA := cg.vertices[a]
		for _, b := range cg.order {
			if canFollow(a, b) {
				slotA.succ = append(slotA.succ, b)
				cg.vertices[b].pred = append(cg.vertices[b].pred, a)
			}
		}
	}

	for _, cid := range cg.order {
		slot := cg.vertices[cid]
		sort.Slice(slot.succ, func(i, j int) bool { return cg.succBefore(slot.succ[i], slot.succ[j]) })
		sort.Slice(slot.pred, func(i, j int) bool { return cg.predBefore(slot.pred[i], slot.pred[j]) })
	}
}

// addSlot inserts an unlinked vertex, ignoring duplicates in the plan
func (cg *ContactGraph) addSlot(cid ContactID) bool {
	if _, present := cg.vertices[cid]; present {
		return false
	}
	cg.vertices[cid] = &vertexSlot{succ: make([]ContactID, 0), pred: make([]ContactID, 0)}
	cg.order = append(cg.order, cid)
	return true
}

// succBefore orders successor lists: latest end time first, then by the peer the
// contact leads to, then by the rest of the identity
func (cg *ContactGraph) succBefore(a, b ContactID) bool {
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c > 0
	}
	if c := cg.nodeOrder(a.To, b.To); c != 0 {
		return c > 0
	}
	return CompareContactIDs(a, b, cg.nodeOrder) > 0
}

// predBefore is the same for predecessor lists, where the peer is the sender
func (cg *ContactGraph) predBefore(a, b ContactID) bool {
	if c := cmp.Compare(a.End, b.End); c != 0 {
		return c > 0
	}
	if c := cg.nodeOrder(a.From, b.From); c != 0 {
		return c > 0
	}
	return CompareContactIDs(a, b, cg.nodeOrder) > 0
}

// insertSorted places cid in list at the position the given order dictates
func insertSorted(list []ContactID, cid ContactID, before func(a, b ContactID) bool) []ContactID {
	idx := sort.Search(len(list), func(i int) bool { return !before(list[i], cid) })
	list = append(list, ContactID{})
	copy(list[idx+1:], list[idx:])
	list[idx] = cid
	return list
}

func removeID(list []ContactID, cid ContactID) []ContactID {
	for idx, v := range list {
		if v == cid {
			return append(list[:idx], list[idx+1:]...)
		}
	}
	return list
}

// Len is the number of vertices, sentinels included
func (cg *ContactGraph) Len() int {
	return len(cg.order)
}

func (cg *ContactGraph) Contains(cid ContactID) bool {
	_, present := cg.vertices[cid]
	return present
}

// Vertices returns the vertex keys in insertion order
func (cg *ContactGraph) Vertices() []ContactID {
	return append(make([]ContactID, 0, len(cg.order)), cg.order...)
}

// Successors returns the vertices that can follow cid. The returned slice belongs
// to the graph and must not be modified.
func (cg *ContactGraph) Successors(cid ContactID) []ContactID {
	slot, present := cg.vertices[cid]
	if !present {
		return nil
	}
	return slot.succ
}

// Predecessors returns the vertices cid can follow
func (cg *ContactGraph) Predecessors(cid ContactID) []ContactID {
	slot, present := cg.vertices[cid]
	if !present {
		return nil
	}
	return slot.pred
}

// AddContact inserts one contact, linking it to the vertices it can follow and be
// followed by
func (cg *ContactGraph) AddContact(cid ContactID) error {
	if !cid.Valid() {
		return newSimError(ErrInvalidArgument, "cannot add malformed contact %v", cid)
	}
	if !cg.addSlot(cid) {
		return newSimError(ErrInvalidArgument, "contact %v already in graph", cid)
	}
	slot := cg.vertices[cid]
	for _, other := range cg.order {
		if other == cid {
			continue
		}
		otherSlot := cg.vertices[other]
		if canFollow(cid, other) {
			slot.succ = insertSorted(slot.succ, other, cg.succBefore)
			otherSlot.pred = insertSorted(otherSlot.pred, cid, cg.predBefore)
		}
		if canFollow(other, cid) {
			slot.pred = insertSorted(slot.pred, other, cg.predBefore)
			otherSlot.succ = insertSorted(otherSlot.succ, cid, cg.succBefore)
		}
	}
	return nil
}

// RemoveContact unlinks one contact from its neighborhood and drops it
func (cg *ContactGraph) RemoveContact(cid ContactID) error {
	if !cid.Valid() {
		return newSimError(ErrInvalidArgument, "cannot remove malformed contact %v", cid)
	}
	if !cg.Contains(cid) {
		return newSimError(ErrNotFound, "contact %v not in graph", cid)
	}
	cg.removeVertex(cid)
	return nil
}

func (cg *ContactGraph) removeVertex(cid ContactID) {
	slot := cg.vertices[cid]
	for _, s := range slot.succ {
		if s == cid {
			continue
		}
		cg.vertices[s].pred = removeID(cg.vertices[s].pred, cid)
	}
	for _, p := range slot.pred {
		if p == cid {
			continue
		}
		cg.vertices[p].succ = removeID(cg.vertices[p].succ, cid)
	}
	delete(cg.vertices, cid)
	cg.order = removeID(cg.order, cid)
}

// RemoveTopologyNode removes every vertex that touches the node, including its
// sentinel, as when the node suffers an outage. It returns the number removed.
func (cg *ContactGraph) RemoveTopologyNode(node string) (int, error) {
	doomed := make([]ContactID, 0)
	for _, cid := range cg.order {
		if cid.From == node || cid.To == node {
			doomed = append(doomed, cid)
		}
	}
	if len(doomed) == 0 {
		return 0, newSimError(ErrNotFound, "node %s not in graph", node)
	}
	for _, cid := range doomed {
		cg.removeVertex(cid)
	}
	return len(doomed), nil
}

// RemoveExpired drops every contact that closed before now. Sentinels never expire.
func (cg *ContactGraph) RemoveExpired(now float64) int {
	doomed := make([]ContactID, 0)
	for _, cid := range cg.order {
		if !cid.IsSentinel() && cid.End < now {
			doomed = append(doomed, cid)
		}
	}
	for _, cid := range doomed {
		cg.removeVertex(cid)
	}
	return len(doomed)
}

// Reinitialize throws the current graph away and builds it again from the plan
func (cg *ContactGraph) Reinitialize(plan *ContactPlan) {
	cg.build(plan)
}

// CheckConsistency verifies that every successor link has its matching predecessor
// link and vice versa, and that every referenced vertex exists
func (cg *ContactGraph) CheckConsistency() error {
	errs := make([]error, 0)
	for _, cid := range cg.order {
		slot := cg.vertices[cid]
		for _, s := range slot.succ {
			sslot, present := cg.vertices[s]
			if !present {
				errs = append(errs, newSimError(ErrNotFound, "%v lists missing successor %v", cid, s))
				continue
			}
			if !slices.Contains(sslot.pred, cid) {
				errs = append(errs, newSimError(ErrInvalidArgument, "%v -> %v has no back link", cid, s))
			}
		}
		for _, p := range slot.pred {
			pslot, present := cg.vertices[p]
			if !present {
				errs = append(errs, newSimError(ErrNotFound, "%v lists missing predecessor %v", cid, p))
				continue
			}
			if !slices.Contains(pslot.succ, cid) {
				errs = append(errs, newSimError(ErrInvalidArgument, "%v <- %v has no forward link", cid, p))
			}
		}
	}
	return ReportErrs(errs)
}
