package dtnsim

// packet.go defines the unit of data that is routed through the contact plan

import (
	"math"
)

// Packet carries the routing state of a bundle. Its routing history is mutated by
// every forwarding decision until it reaches its destination or lands in limbo.
type Packet struct {
	ID          int
	Source      string
	Destination string

	// size in bits
	Size float64

	// absolute time by which the packet must be delivered, +Inf when unconstrained
	Deadline float64

	// critical packets are flooded over every feasible neighbor
	Critical bool

	// when false the packet is never sent back to the node it came from
	ReturnToSender bool

	// sequence of nodes the packet left from, plus the destination once delivered
	Hops []string

	// routes the source node booked for the packet, and the runner-up routes
	PlannedRoutes     []*Route
	AlternativeRoutes []*Route

	CreatedAt   float64
	Delivered   bool
	DeliveredAt float64
}

// CreatePacket is a constructor
func CreatePacket(id int, src, dst string, size float64, now float64) *Packet {
	pkt := new(Packet)
	pkt.ID = id
	pkt.Source = src
	pkt.Destination = dst
	pkt.Size = size
	pkt.Deadline = math.Inf(1)
	pkt.Hops = make([]string, 0)
	pkt.PlannedRoutes = make([]*Route, 0)
	pkt.AlternativeRoutes = make([]*Route, 0)
	pkt.CreatedAt = now
	return pkt
}

// AddHop records that the packet left the named node
func (pkt *Packet) AddHop(node string) {
	pkt.Hops = append(pkt.Hops, node)
}

// LastHop returns the most recent hop, if any
func (pkt *Packet) LastHop() (string, bool) {
	if len(pkt.Hops) == 0 {
		return "", false
	}
	return pkt.Hops[len(pkt.Hops)-1], true
}

// SetDelivered marks the packet complete at node
func (pkt *Packet) SetDelivered(node string, now float64) {
	pkt.AddHop(node)
	pkt.Delivered = true
	pkt.DeliveredAt = now
}

func (pkt *Packet) AddPlannedRoute(rt *Route) {
	pkt.PlannedRoutes = append(pkt.PlannedRoutes, rt)
}

// AddAlternativeRoute records the runner-up route; nil records that there was none
func (pkt *Packet) AddAlternativeRoute(rt *Route) {
	pkt.AlternativeRoutes = append(pkt.AlternativeRoutes, rt)
}

// Clone returns a copy that shares no mutable state with pkt. Routes are
// immutable once computed and so are shared by reference.
func (pkt *Packet) Clone() *Packet {
	cp := new(Packet)
	*cp = *pkt
	cp.Hops = append(make([]string, 0, len(pkt.Hops)), pkt.Hops...)
	cp.PlannedRoutes = append(make([]*Route, 0, len(pkt.PlannedRoutes)), pkt.PlannedRoutes...)
	cp.AlternativeRoutes = append(make([]*Route, 0, len(pkt.AlternativeRoutes)), pkt.AlternativeRoutes...)
	return cp
}
