package dtnsim

// node.go holds the per-node forwarding state: the node's outbound contacts, its
// route cache, the router that makes its decisions, and the limbo list of packets
// it could not forward

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Router makes the forwarding decision for a packet at a node that is not its destination
type Router interface {
	Name() string
	Route(n *Node, pkt *Packet, now float64)
}

// Node is a physical node of the contact plan
type Node struct {
	ID string

	// outbound contacts, keyed by identity
	Contacts map[ContactID]*Contact

	Router Router
	Cache  *RouteCache

	// nodes designated as high traffic hubs, shared by all nodes
	Hotspots []string

	limbo []*Packet

	graph    *ContactGraph
	eng      *EventEngine
	notifier *MonitorNotifier
	order    NodeOrder
	log      *logrus.Entry
}

// CreateNode is a constructor. The node routes over graph and reports through notifier.
func CreateNode(id string, router Router, cg *ContactGraph, eng *EventEngine,
	notifier *MonitorNotifier, log *logrus.Entry) *Node {
	n := new(Node)
	n.ID = id
	n.Contacts = make(map[ContactID]*Contact)
	n.Router = router
	n.graph = cg
	n.order = cg.nodeOrder
	n.Cache = CreateRouteCache(id, cg, n.order)
	n.Hotspots = make([]string, 0)
	n.limbo = make([]*Packet, 0)
	n.eng = eng
	n.notifier = notifier
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	n.log = log.WithField("node", id)
	return n
}

// AddContact attaches an outbound contact
func (n *Node) AddContact(c *Contact) {
	n.Contacts[c.ID] = c
}

// Limbo returns the packets parked at the node because no route was found for them
func (n *Node) Limbo() []*Packet {
	return n.limbo
}

// IsHotspot reports whether the node is one of the designated hubs
func (n *Node) IsHotspot() bool {
	return slices.Contains(n.Hotspots, n.ID)
}

// InjectPacket introduces a freshly generated packet at the node
func (n *Node) InjectPacket(pkt *Packet) {
	n.notifier.PacketInjected(n.eng.Now(), pkt, n.ID)
	n.RoutePacket(pkt)
}

// RoutePacket is the node's entry point for every packet it receives. A packet that
// has arrived is marked delivered, any other is passed to the router.
func (n *Node) RoutePacket(pkt *Packet) {
	now := n.eng.Now()
	if pkt.Destination == n.ID {
		pkt.SetDelivered(n.ID, now)
		n.notifier.PacketDestinationReached(now, pkt, n.ID)
		return
	}
	n.Router.Route(n, pkt, now)
}

// excludedNodes returns the nodes the packet must not be forwarded to from here.
// The previous hop is excluded unless the packet may return to its sender; if both
// this node and the previous hop are hotspots then all hotspots are excluded, so
// packets do not bounce between hubs.
func (n *Node) excludedNodes(pkt *Packet) []string {
	if pkt.ReturnToSender {
		return nil
	}
	prev, present := pkt.LastHop()
	if !present {
		return nil
	}
	if n.IsHotspot() && slices.Contains(n.Hotspots, prev) {
		return append(make([]string, 0, len(n.Hotspots)), n.Hotspots...)
	}
	return []string{prev}
}

// feasible applies the per-decision filters to a cached route. With ignoreCapacity the
// current occupancy of the first contact is not consulted.
func (n *Node) feasible(rt *Route, pkt *Packet, excluded []string, now float64, ignoreCapacity bool) bool {
	if rt.ToTime <= now {
		return false
	}
	if rt.EDT >= pkt.Deadline {
		return false
	}
	if rt.Capacity < pkt.Size {
		return false
	}
	if slices.Contains(excluded, rt.NextHop) {
		return false
	}
	c, present := n.Contacts[rt.FirstHop()]
	if !present {
		return false
	}
	if !ignoreCapacity && !c.IsCapacitySufficient(pkt, now) {
		return false
	}
	return true
}

// toLimbo parks a packet the node cannot forward. notify is false when the refusal
// has already been reported.
func (n *Node) toLimbo(pkt *Packet, now float64, notify bool) {
	n.limbo = append(n.limbo, pkt)
	n.log.Warnf("packet %d to %s parked in limbo at %g", pkt.ID, pkt.Destination, now)
	if notify {
		n.notifier.NoRouteFound(now, n.ID, pkt)
	}
}

// enqueue books pkt on the first contact of the chosen route, falling back to limbo if
// the contact refuses it
func (n *Node) enqueue(pkt *Packet, nb *Neighbor, best *Route, now float64) bool {
	c := n.Contacts[nb.Contact]
	if err := c.EnqueuePacket(pkt, nb.Route, best); err != nil {
		n.log.Debugf("enqueue of packet %d on %v refused: %v", pkt.ID, nb.Contact, err)
		n.toLimbo(pkt, now, false)
		return false
	}
	n.log.Debugf("packet %d to %s booked on %v, edt %g", pkt.ID, pkt.Destination, nb.Contact, nb.Route.EDT)
	return true
}
