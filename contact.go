package dtnsim

// contact.go models the runtime state of one scheduled link: how much it can still
// carry, when the next packet can start transmitting, and how many packets wait on it.
// Enqueued packets are handed to the peer node by an event scheduled at the end of
// their transmission.

import (
	"math"
)

// HandOverFunc delivers a packet to the named node at the current simulated time
type HandOverFunc func(peer string, pkt *Packet)

// Contact holds the mutable state of the link named by ID
type Contact struct {
	ID ContactID

	// residual capacity in bits
	capacity float64

	// earliest time the next enqueued packet can begin transmission
	nxtEnqueueTime float64

	queueLen int

	eng      *EventEngine
	notifier *MonitorNotifier
	handOver HandOverFunc

	// lifecycle events (start, end) and hand-offs use different runners, so that a
	// hand-off that lands exactly on the end of the contact does not collide with it
	lifecycleRID int
	transmitRID  int
}

// CreateContact is a constructor
func CreateContact(cid ContactID) *Contact {
	c := new(Contact)
	c.ID = cid
	c.capacity = cid.Capacity()
	c.nxtEnqueueTime = cid.Start
	c.lifecycleRID = -1
	c.transmitRID = -1
	return c
}

// Register connects the contact to the engine that times its hand-offs, the notifier
// that reports on it, and the function that delivers packets to its peer
func (c *Contact) Register(eng *EventEngine, notifier *MonitorNotifier, handOver HandOverFunc) {
	c.eng = eng
	c.notifier = notifier
	c.handOver = handOver
	c.lifecycleRID = eng.RegisterRunner(c, contactRun)
	c.transmitRID = eng.NewRunnerID()
}

func (c *Contact) From() string { return c.ID.From }
func (c *Contact) To() string   { return c.ID.To }

// ResidualCapacity is the number of bits that can still be booked
func (c *Contact) ResidualCapacity() float64 {
	return c.capacity
}

func (c *Contact) NextEnqueueTime() float64 {
	return c.nxtEnqueueTime
}

// QueueLength is the number of packets booked but not yet handed over
func (c *Contact) QueueLength() int {
	return c.queueLen
}

// Utilization is the fraction of the contact's full capacity that has been booked
func (c *Contact) Utilization() float64 {
	total := c.ID.Capacity()
	if total <= 0 {
		return 0.0
	}
	return 1.0 - c.capacity/total
}

// IsCapacitySufficient reports whether pkt could still be transmitted in full before
// the contact closes. Rounding the transmission time down and adding one unit makes the
// test at most one unit conservative, and never optimistic.
func (c *Contact) IsCapacitySufficient(pkt *Packet, now float64) bool {
	start := math.Max(now, c.nxtEnqueueTime)
	return start+math.Floor(pkt.Size/c.ID.Datarate)+1 <= c.ID.End
}

// EnqueuePacket books pkt on the contact following route 'booked'; 'best' is the best
// route ignoring current occupancy, passed through to the monitors. Callers are expected
// to have checked IsCapacitySufficient; if it does not hold the packet is refused with an
// ErrCapacityOverflow error and the contact is left unchanged. A packet without a positive
// size would not advance the transmission cursor and is refused with ErrInvalidArgument.
func (c *Contact) EnqueuePacket(pkt *Packet, booked *Route, best *Route) error {
	now := c.eng.Now()
	if booked == nil {
		return newSimError(ErrInvalidArgument, "packet %d offered to %v without a route", pkt.ID, c.ID)
	}
	if pkt.Size <= 0 {
		c.notifier.NoRouteFound(now, c.ID.From, pkt)
		return newSimError(ErrInvalidArgument, "packet %d has non-positive size %g", pkt.ID, pkt.Size)
	}
	if !c.IsCapacitySufficient(pkt, now) {
		c.notifier.NoRouteFound(now, c.ID.From, pkt)
		return newSimError(ErrCapacityOverflow, "packet %d (%g bits) does not fit on %v", pkt.ID, pkt.Size, c.ID)
	}

	pkt.AddHop(c.ID.From)
	c.queueLen += 1
	c.capacity -= pkt.Size

	txStart := math.Max(now, c.nxtEnqueueTime)
	c.nxtEnqueueTime = txStart + pkt.Size/c.ID.Datarate

	c.eng.RegisterEvent(c.nxtEnqueueTime, c.transmitRID, c, pkt, handOverPacket)
	c.notifier.PacketRouted(now, pkt, c.ID.From, booked, best, txStart)
	return nil
}

// handOverPacket fires when a packet has been fully transmitted
func handOverPacket(eng *EventEngine, context any, data any) any {
	c := context.(*Contact)
	pkt := data.(*Packet)
	c.notifier.PacketTransmitted(eng.Now(), pkt, c.ID.From)
	c.handOver(c.ID.To, pkt)
	c.queueLen -= 1
	return nil
}

// contactRun is the lifecycle runner's entry point at time 0
func contactRun(eng *EventEngine, context any, data any) any {
	c := context.(*Contact)
	eng.RegisterEvent(c.ID.Start, c.lifecycleRID, c, nil, contactStart)
	return nil
}

func contactStart(eng *EventEngine, context any, data any) any {
	c := context.(*Contact)
	c.notifier.ContactStarted(eng.Now(), c.ID.From, c.ID)
	eng.RegisterEvent(c.ID.End, c.lifecycleRID, c, nil, contactEnd)
	return nil
}

func contactEnd(eng *EventEngine, context any, data any) any {
	c := context.(*Contact)
	c.notifier.ContactEnded(eng.Now(), c.ID.From, c.ID)
	return nil
}
