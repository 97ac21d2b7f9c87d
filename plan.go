package dtnsim

// plan.go holds the contact plan: the nodes of a scenario and the schedule of contacts
// between them. Besides feeding the contact graph, the plan can be viewed as a static
// topology (who ever talks to whom), which is represented with the gonum graph package
// so that static reachability can be checked before a run.

import (
	"math"
	"strings"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// DefaultGroundstationPrefix identifies ground station nodes by name
var DefaultGroundstationPrefix string = "gs"

// ContactPlan is a scenario's node set and contact schedule
type ContactPlan struct {
	DefaultDatarate float64
	DefaultDelay    float64

	Nodes    []string
	Contacts []ContactID

	Hotspots  []string
	Coldspots []string
}

// ContactOpts adjust a contact added with AddContact. Zero values select the
// plan defaults; OneWay suppresses the reverse contact.
type ContactOpts struct {
	Datarate float64
	Delay    float64
	OneWay   bool
}

// CreateContactPlan is a constructor
func CreateContactPlan(datarate, delay float64) *ContactPlan {
	cp := new(ContactPlan)
	cp.DefaultDatarate = datarate
	cp.DefaultDelay = delay
	cp.Clear()
	return cp
}

// Clear drops every node and contact, keeping the defaults
func (cp *ContactPlan) Clear() {
	cp.Nodes = make([]string, 0)
	cp.Contacts = make([]ContactID, 0)
	cp.Hotspots = make([]string, 0)
	cp.Coldspots = make([]string, 0)
}

// AddNode adds an isolated node; adding a known node has no effect
func (cp *ContactPlan) AddNode(node string) {
	if !slices.Contains(cp.Nodes, node) {
		cp.Nodes = append(cp.Nodes, node)
	}
}

// AddContact schedules a contact from node1 to node2 and, unless opts says otherwise,
// the matching contact back. Both nodes are added to the plan. Identical contacts may
// be added more than once; the contact graph keeps one vertex per identity.
func (cp *ContactPlan) AddContact(node1, node2 string, start, end float64, opts *ContactOpts) {
	datarate := cp.DefaultDatarate
	delay := cp.DefaultDelay
	oneWay := false
	if opts != nil {
		if opts.Datarate > 0 {
			datarate = opts.Datarate
		}
		if opts.Delay > 0 {
			delay = opts.Delay
		}
		oneWay = opts.OneWay
	}

	cp.Contacts = append(cp.Contacts, ContactID{From: node1, To: node2, Start: start, End: end,
		Datarate: datarate, Delay: delay})
	if !oneWay {
		cp.Contacts = append(cp.Contacts, ContactID{From: node2, To: node1, Start: start, End: end,
			Datarate: datarate, Delay: delay})
	}
	cp.AddNode(node1)
	cp.AddNode(node2)
}

// GetNodes returns the node names in the order they were added
func (cp *ContactPlan) GetNodes() []string {
	return cp.Nodes
}

// Groundstations returns the nodes whose names start with prefix, or with
// DefaultGroundstationPrefix when prefix is empty
func (cp *ContactPlan) Groundstations(prefix string) []string {
	if prefix == "" {
		prefix = DefaultGroundstationPrefix
	}
	gs := make([]string, 0)
	for _, node := range cp.Nodes {
		if strings.HasPrefix(node, prefix) {
			gs = append(gs, node)
		}
	}
	return gs
}

// OutboundContacts returns the contacts that leave node, in plan order
func (cp *ContactPlan) OutboundContacts(node string) []ContactID {
	out := make([]ContactID, 0)
	for _, cid := range cp.Contacts {
		if cid.From == node {
			out = append(out, cid)
		}
	}
	return out
}

// SetHotspots designates the hub nodes; every other ground station becomes a coldspot
func (cp *ContactPlan) SetHotspots(hotspots []string) {
	cp.Hotspots = append(make([]string, 0, len(hotspots)), hotspots...)
	cp.Coldspots = make([]string, 0)
	for _, gs := range cp.Groundstations("") {
		if !slices.Contains(cp.Hotspots, gs) {
			cp.Coldspots = append(cp.Coldspots, gs)
		}
	}
}

// SetColdspots overrides the derived coldspots, the remote stations that hand their
// traffic to the hotspots
func (cp *ContactPlan) SetColdspots(coldspots []string) {
	cp.Coldspots = append(make([]string, 0, len(coldspots)), coldspots...)
}

// TruncateAt drops contacts that start at or after endTime and shortens those that
// would outlive it, so nothing is scheduled past the end of the simulation
func (cp *ContactPlan) TruncateAt(endTime float64) int {
	if math.IsInf(endTime, 1) {
		return 0
	}
	kept := make([]ContactID, 0, len(cp.Contacts))
	dropped := 0
	for _, cid := range cp.Contacts {
		if cid.Start >= endTime {
			dropped += 1
			continue
		}
		if cid.End > endTime {
			cid.End = endTime
		}
		kept = append(kept, cid)
	}
	cp.Contacts = kept
	return dropped
}

// Validate checks that every contact is well formed and references known nodes
func (cp *ContactPlan) Validate() error {
	errs := make([]error, 0)
	for _, cid := range cp.Contacts {
		if !cid.Valid() {
			errs = append(errs, newSimError(ErrInvalidArgument, "malformed contact %v", cid))
			continue
		}
		if !slices.Contains(cp.Nodes, cid.From) || !slices.Contains(cp.Nodes, cid.To) {
			errs = append(errs, newSimError(ErrNotFound, "contact %v references an unknown node", cid))
		}
	}
	for _, hs := range cp.Hotspots {
		if !slices.Contains(cp.Nodes, hs) {
			errs = append(errs, newSimError(ErrNotFound, "hotspot %s is not a node", hs))
		}
	}
	return ReportErrs(errs)
}

// TopologyGraph builds the static topology: one graph node per plan node (its id is
// the node's position in Nodes) and a directed edge wherever at least one contact exists
func (cp *ContactPlan) TopologyGraph() (*simple.DirectedGraph, map[string]int64) {
	g := simple.NewDirectedGraph()
	ids := make(map[string]int64)
	for idx, node := range cp.Nodes {
		ids[node] = int64(idx)
		g.AddNode(simple.Node(idx))
	}
	for _, cid := range cp.Contacts {
		from, fp := ids[cid.From]
		to, tp := ids[cid.To]
		if !fp || !tp || from == to {
			continue
		}
		if g.HasEdgeFromTo(from, to) {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(from), g.Node(to)))
	}
	return g, ids
}

// StaticHopDistance returns the fewest contacts a packet from src needs to reach dst
// if timing is ignored. The second result is false when dst can never be reached.
// It is a necessary condition only: a pair reachable here may have no time-respecting route.
func (cp *ContactPlan) StaticHopDistance(src, dst string) (int, bool) {
	g, ids := cp.TopologyGraph()
	from, fp := ids[src]
	to, tp := ids[dst]
	if !fp || !tp {
		return 0, false
	}
	if from == to {
		return 0, true
	}
	spTree := path.DijkstraFrom(g.Node(from), g)
	nodes, weight := spTree.To(to)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return 0, false
	}
	return len(nodes) - 1, true
}

// UnreachablePairs lists every ordered pair of distinct nodes with no static path
func (cp *ContactPlan) UnreachablePairs() [][2]string {
	g, ids := cp.TopologyGraph()
	pairs := make([][2]string, 0)
	for _, src := range cp.Nodes {
		spTree := path.DijkstraFrom(g.Node(ids[src]), g)
		for _, dst := range cp.Nodes {
			if src == dst {
				continue
			}
			if nodes, _ := spTree.To(ids[dst]); len(nodes) == 0 {
				pairs = append(pairs, [2]string{src, dst})
			}
		}
	}
	return pairs
}

// nodeNames converts a sequence of topology graph nodes back to plan node names
func (cp *ContactPlan) nodeNames(seq []graph.Node) []string {
	names := make([]string, len(seq))
	for idx, n := range seq {
		names[idx] = cp.Nodes[n.ID()]
	}
	return names
}

// StaticPath returns the node names along a shortest static path from src to dst,
// or nil if there is none
func (cp *ContactPlan) StaticPath(src, dst string) []string {
	g, ids := cp.TopologyGraph()
	from, fp := ids[src]
	to, tp := ids[dst]
	if !fp || !tp {
		return nil
	}
	nodes, _ := path.DijkstraFrom(g.Node(from), g).To(to)
	if len(nodes) == 0 {
		return nil
	}
	return cp.nodeNames(nodes)
}
