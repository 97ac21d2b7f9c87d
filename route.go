package dtnsim

// route.go turns a path found in the contact graph into a Route, whose characteristics
// (delivery time, capacity, validity) are fixed once computed, and ranks the candidate
// first hops a node chooses between when it forwards a packet

import (
	"cmp"
	"fmt"
	"math"
	"strings"
)

// Route is a sequence of contacts leading from the deciding node to a destination
type Route struct {
	Hops []ContactID

	// earliest delivery time: the latest opening time among the hops
	EDT float64

	// the most bits that fit through every hop after the route becomes usable
	Capacity float64

	// the route is valid until its first hop to close does so
	ToTime float64

	HopCount int
	NextHop  string
}

// NewRoute computes the characteristics of a path returned by FindPath. Sentinel
// vertices are dropped; a path without real contacts yields nil.
func NewRoute(path []ContactID) *Route {
	hops := make([]ContactID, 0, len(path))
	for _, cid := range path {
		if !cid.IsSentinel() {
			hops = append(hops, cid)
		}
	}
	if len(hops) == 0 {
		return nil
	}

	rt := new(Route)
	rt.Hops = hops
	rt.HopCount = len(hops)
	rt.NextHop = hops[0].To
	rt.Capacity = math.Inf(1)
	rt.ToTime = math.Inf(1)

	running := 0.0
	for _, hop := range hops {
		running = math.Max(running, hop.Start)
		rt.Capacity = math.Min(rt.Capacity, (hop.End-running)*hop.Datarate)
		rt.ToTime = math.Min(rt.ToTime, hop.End)
	}
	rt.EDT = running
	return rt
}

// FirstHop is the contact the deciding node would enqueue on
func (rt *Route) FirstHop() ContactID {
	return rt.Hops[0]
}

// LimitingContact returns the first hop whose end time bounds the route's validity.
// Every route has one by construction; not finding it means the route was corrupted.
func (rt *Route) LimitingContact() ContactID {
	for _, hop := range rt.Hops {
		if hop.End == rt.ToTime {
			return hop
		}
	}
	panic(newSimError(ErrLimitingContact, "no hop of route %s ends at %g", rt.String(), rt.ToTime))
}

func (rt *Route) String() string {
	hops := make([]string, len(rt.Hops))
	for idx, hop := range rt.Hops {
		hops[idx] = hop.String()
	}
	return fmt.Sprintf("edt=%g cap=%g to=%g hops=%d [%s]", rt.EDT, rt.Capacity, rt.ToTime,
		rt.HopCount, strings.Join(hops, " "))
}

// Neighbor is one candidate first hop of a forwarding decision
type Neighbor struct {
	Contact ContactID
	NextHop string
	Route   *Route
}

func neighborFor(rt *Route) *Neighbor {
	return &Neighbor{Contact: rt.FirstHop(), NextHop: rt.NextHop, Route: rt}
}

// CompareNeighbors ranks candidates: earlier delivery first, then fewer hops, then the
// earlier opening first hop, then the next hop node under the node order
func CompareNeighbors(a, b *Neighbor, order NodeOrder) int {
	if c := cmp.Compare(a.Route.EDT, b.Route.EDT); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Route.HopCount, b.Route.HopCount); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Contact.Start, b.Contact.Start); c != 0 {
		return c
	}
	if c := order(a.NextHop, b.NextHop); c != 0 {
		return c
	}
	return CompareContactIDs(a.Contact, b.Contact, order)
}
