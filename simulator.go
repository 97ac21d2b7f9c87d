// Package dtnsim is a discrete-event simulator of Contact Graph Routing in delay and
// disruption tolerant networks. Nodes exchange packets over scheduled, time-bounded,
// capacity-bounded contacts; each node decides where to forward a packet by searching
// a time-expanded graph of the contact plan.
package dtnsim

// simulator.go has the code that builds the simulation data structures from a contact
// plan and runs them

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Simulator owns everything that takes part in one run
type Simulator struct {
	Name     string
	Engine   *EventEngine
	Notifier *MonitorNotifier
	Plan     *ContactPlan
	Graph    *ContactGraph
	Router   Router

	nodes        map[string]*Node
	nodeOrder    []string
	contacts     map[ContactID]*Contact
	contactOrder []ContactID
	generators   []PacketGenerator

	pktCounter    int
	started       bool
	progressSteps int
	pruneExpired  bool

	log *logrus.Entry
}

// CreateSimulator is a constructor. A nil logger selects the logrus standard logger.
func CreateSimulator(name string, logger *logrus.Logger) *Simulator {
	sim := new(Simulator)
	sim.Name = name
	sim.Engine = CreateEventEngine()
	sim.Notifier = CreateMonitorNotifier()
	sim.nodes = make(map[string]*Node)
	sim.nodeOrder = make([]string, 0)
	sim.contacts = make(map[ContactID]*Contact)
	sim.contactOrder = make([]ContactID, 0)
	sim.generators = make([]PacketGenerator, 0)
	sim.progressSteps = 1
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	sim.log = logger.WithField("sim", name)
	return sim
}

// CreateRouter returns the router with the given name
func CreateRouter(name string) (Router, error) {
	switch name {
	case "cgr":
		return new(CGR), nil
	case "", "scgr":
		return new(SCGR), nil
	}
	return nil, newSimError(ErrInvalidArgument, "unknown router %q", name)
}

// SetProgressSteps splits Run into n slices, logging progress after each
func (sim *Simulator) SetProgressSteps(n int) {
	if n < 1 {
		n = 1
	}
	sim.progressSteps = n
}

// SetPruneExpired makes the simulator drop contacts from the contact graph as they end
func (sim *Simulator) SetPruneExpired(prune bool) {
	if prune && !sim.pruneExpired {
		sim.Notifier.AddSubscriber(&expiryPruner{sim: sim})
	}
	sim.pruneExpired = prune
}

// LoadPlan builds the contact graph, one Node per plan node and one Contact per plan
// contact, all routing with router and breaking ties with order
func (sim *Simulator) LoadPlan(plan *ContactPlan, router Router, order NodeOrder) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	sim.Plan = plan
	sim.Router = router
	sim.Graph = CreateContactGraph(plan, order)

	for _, name := range plan.Nodes {
		n := CreateNode(name, router, sim.Graph, sim.Engine, sim.Notifier, sim.log)
		n.Hotspots = plan.Hotspots
		if err := sim.RegisterNode(n); err != nil {
			return err
		}
	}
	for _, cid := range plan.Contacts {
		if _, present := sim.contacts[cid]; present {
			continue
		}
		if err := sim.RegisterContact(CreateContact(cid)); err != nil {
			return err
		}
	}
	sim.log.WithFields(logrus.Fields{
		"router":   router.Name(),
		"nodes":    len(sim.nodes),
		"contacts": len(sim.contacts),
		"vertices": sim.Graph.Len(),
	}).Info("contact plan loaded")
	return nil
}

// RegisterNode adds a node; names must be unique
func (sim *Simulator) RegisterNode(n *Node) error {
	if _, present := sim.nodes[n.ID]; present {
		return newSimError(ErrInvalidArgument, "node %s registered twice", n.ID)
	}
	sim.nodes[n.ID] = n
	sim.nodeOrder = append(sim.nodeOrder, n.ID)
	return nil
}

// RegisterContact attaches a contact to its sending node and starts its lifecycle
func (sim *Simulator) RegisterContact(c *Contact) error {
	n, present := sim.nodes[c.ID.From]
	if !present {
		return newSimError(ErrUnknownNode, "contact %v leaves unknown node", c.ID)
	}
	if _, present := sim.nodes[c.ID.To]; !present {
		return newSimError(ErrUnknownNode, "contact %v reaches unknown node", c.ID)
	}
	if _, present := sim.contacts[c.ID]; present {
		return newSimError(ErrInvalidArgument, "contact %v registered twice", c.ID)
	}
	sim.contacts[c.ID] = c
	sim.contactOrder = append(sim.contactOrder, c.ID)
	n.AddContact(c)
	c.Register(sim.Engine, sim.Notifier, sim.HandOver)
	return nil
}

// RegisterGenerator starts a packet generator
func (sim *Simulator) RegisterGenerator(g PacketGenerator) {
	sim.generators = append(sim.generators, g)
	g.Register(sim)
}

// RegisterMonitor subscribes m to the run's events
func (sim *Simulator) RegisterMonitor(m Monitor) {
	sim.Notifier.AddSubscriber(m)
}

// Node returns the named node, or nil
func (sim *Simulator) Node(name string) *Node {
	return sim.nodes[name]
}

// Contact returns the contact with the given identity, or nil
func (sim *Simulator) Contact(cid ContactID) *Contact {
	return sim.contacts[cid]
}

// Nodes returns the node names in registration order
func (sim *Simulator) Nodes() []string {
	return sim.nodeOrder
}

// NextPacketID hands out packet ids, unique within the run
func (sim *Simulator) NextPacketID() int {
	id := sim.pktCounter
	sim.pktCounter += 1
	return id
}

// HandOver delivers pkt to the named node at the current time. Contacts only reach
// registered nodes, so an unknown peer means the simulator was assembled incorrectly.
func (sim *Simulator) HandOver(peer string, pkt *Packet) {
	n, present := sim.nodes[peer]
	if !present {
		panic(newSimError(ErrUnknownNode, "packet %d handed to unknown node %s", pkt.ID, peer))
	}
	n.RoutePacket(pkt)
}

// InjectPacket introduces a new packet at node src
func (sim *Simulator) InjectPacket(src string, pkt *Packet) {
	n, present := sim.nodes[src]
	if !present {
		panic(newSimError(ErrUnknownNode, "packet %d injected at unknown node %s", pkt.ID, src))
	}
	n.InjectPacket(pkt)
}

// RemoveNode simulates the outage of a node: every contact touching it leaves the
// contact graph and all cached routes are discarded
func (sim *Simulator) RemoveNode(name string) error {
	removed, err := sim.Graph.RemoveTopologyNode(name)
	if err != nil {
		return err
	}
	sim.ResetRouteCaches()
	sim.log.Infof("node %s removed from the contact graph with %d vertices", name, removed)
	return nil
}

// AddContact schedules a new contact during a run. It joins the contact graph at once,
// so all cached routes are discarded.
func (sim *Simulator) AddContact(cid ContactID) error {
	if err := sim.Graph.AddContact(cid); err != nil {
		return err
	}
	if err := sim.RegisterContact(CreateContact(cid)); err != nil {
		_ = sim.Graph.RemoveContact(cid)
		return err
	}
	sim.ResetRouteCaches()
	return nil
}

// ResetRouteCaches makes every node forget the routes it discovered
func (sim *Simulator) ResetRouteCaches() {
	for _, name := range sim.nodeOrder {
		sim.nodes[name].Cache.Reset()
	}
}

// Run advances the simulation by duration milliseconds. Fatal conditions raised while
// the run is in progress end it and are returned; the simulator is not usable afterwards.
func (sim *Simulator) Run(duration float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SimError)
			if !ok {
				panic(r)
			}
			sim.log.Errorf("run aborted at %g: %v", sim.Engine.Now(), se)
			err = se
		}
	}()

	start := sim.Engine.Now()
	if !sim.started {
		sim.started = true
		sim.Notifier.SimulationStarted(start)
	}
	until := start + duration
	step := duration / float64(sim.progressSteps)
	for idx := 1; idx <= sim.progressSteps; idx++ {
		limit := start + step*float64(idx)
		if idx == sim.progressSteps || math.IsInf(duration, 1) {
			limit = until
		}
		sim.Engine.Run(limit)
		if sim.progressSteps > 1 {
			sim.log.Infof("progress %d/%d at %g, %d events dispatched", idx, sim.progressSteps,
				limit, sim.Engine.Dispatched())
		}
		if limit == until {
			break
		}
	}
	sim.Notifier.SimulationEnded(until)

	stats := sim.Stats()
	sim.log.WithFields(logrus.Fields{
		"generated":   stats.Generated,
		"limbo":       stats.InLimbo,
		"incontacts":  stats.InContacts,
		"utilization": stats.Utilization,
	}).Info("run finished")
	return nil
}

// Stats is a snapshot of packet and contact occupancy
type Stats struct {
	Generated   int     `json:"generated" yaml:"generated"`
	InLimbo     int     `json:"inlimbo" yaml:"inlimbo"`
	InContacts  int     `json:"incontacts" yaml:"incontacts"`
	Utilization float64 `json:"utilization" yaml:"utilization"` // percent of all contact capacity booked
}

func (sim *Simulator) Stats() Stats {
	st := Stats{Generated: sim.pktCounter}
	for _, name := range sim.nodeOrder {
		st.InLimbo += len(sim.nodes[name].Limbo())
	}
	total, booked := 0.0, 0.0
	for _, cid := range sim.contactOrder {
		c := sim.contacts[cid]
		st.InContacts += c.QueueLength()
		total += cid.Capacity()
		booked += cid.Capacity() - c.ResidualCapacity()
	}
	if total > 0 {
		st.Utilization = 100.0 * booked / total
	}
	return st
}

// UtilizationList returns the utilization of every contact in percent, in plan order.
// With excludeHotspotLinks, contacts between two hotspots are left out.
func (sim *Simulator) UtilizationList(excludeHotspotLinks bool) []float64 {
	util := make([]float64, 0, len(sim.contactOrder))
	for _, cid := range sim.contactOrder {
		if excludeHotspotLinks && sim.Plan != nil && isHotspotLink(sim.Plan.Hotspots, cid) {
			continue
		}
		util = append(util, 100.0*sim.contacts[cid].Utilization())
	}
	return util
}

func isHotspotLink(hotspots []string, cid ContactID) bool {
	from, to := false, false
	for _, hs := range hotspots {
		from = from || hs == cid.From
		to = to || hs == cid.To
	}
	return from && to
}

// expiryPruner removes contacts from the contact graph when they end. Cached routes
// need no reset: a route through an ended contact is past its validity and is never chosen.
type expiryPruner struct {
	BaseMonitor
	sim *Simulator
}

func (ep *expiryPruner) ContactEnded(now float64, node string, cid ContactID) {
	if !ep.sim.pruneExpired || !ep.sim.Graph.Contains(cid) {
		return
	}
	if err := ep.sim.Graph.RemoveContact(cid); err != nil {
		ep.sim.log.Warnf("pruning %v: %v", cid, err)
	}
}
