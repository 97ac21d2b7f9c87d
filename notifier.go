package dtnsim

// notifier.go defines the observer interface through which the simulator reports what
// happens to packets and contacts, and the notifier that fans events out to subscribers

// Monitor receives simulator events. Implementations embed BaseMonitor and
// override the hooks they care about.
type Monitor interface {
	PacketRouted(now float64, pkt *Packet, node string, booked *Route, best *Route, txStart float64)
	PacketTransmitted(now float64, pkt *Packet, node string)
	PacketDestinationReached(now float64, pkt *Packet, node string)
	PacketInjected(now float64, pkt *Packet, node string)
	NoRouteFound(now float64, node string, pkt *Packet)
	ContactStarted(now float64, node string, cid ContactID)
	ContactEnded(now float64, node string, cid ContactID)
	SimulationStarted(now float64)
	SimulationEnded(now float64)
}

// BaseMonitor implements every Monitor hook as a no-op
type BaseMonitor struct{}

func (BaseMonitor) PacketRouted(float64, *Packet, string, *Route, *Route, float64) {}
func (BaseMonitor) PacketTransmitted(float64, *Packet, string)                   {}
func (BaseMonitor) PacketDestinationReached(float64, *Packet, string)            {}
func (BaseMonitor) PacketInjected(float64, *Packet, string)                      {}
func (BaseMonitor) NoRouteFound(float64, string, *Packet)                        {}
func (BaseMonitor) ContactStarted(float64, string, ContactID)                    {}
func (BaseMonitor) ContactEnded(float64, string, ContactID)                      {}
func (BaseMonitor) SimulationStarted(float64)                                    {}
func (BaseMonitor) SimulationEnded(float64)                                      {}

// MonitorNotifier forwards each event to its subscribers in subscription order
type MonitorNotifier struct {
	subscribers []Monitor
}

// CreateMonitorNotifier is a constructor
func CreateMonitorNotifier() *MonitorNotifier {
	mn := new(MonitorNotifier)
	mn.subscribers = make([]Monitor, 0)
	return mn
}

func (mn *MonitorNotifier) AddSubscriber(m Monitor) {
	mn.subscribers = append(mn.subscribers, m)
}

// RemoveSubscriber drops m, returning false if it was not subscribed
func (mn *MonitorNotifier) RemoveSubscriber(m Monitor) bool {
	for idx, sub := range mn.subscribers {
		if sub == m {
			mn.subscribers = append(mn.subscribers[:idx], mn.subscribers[idx+1:]...)
			return true
		}
	}
	return false
}

func (mn *MonitorNotifier) Subscribers() int {
	return len(mn.subscribers)
}

func (mn *MonitorNotifier) PacketRouted(now float64, pkt *Packet, node string, booked *Route, best *Route, txStart float64) {
	for _, sub := range mn.subscribers {
		sub.PacketRouted(now, pkt, node, booked, best, txStart)
	}
}

func (mn *MonitorNotifier) PacketTransmitted(now float64, pkt *Packet, node string) {
	for _, sub := range mn.subscribers {
		sub.PacketTransmitted(now, pkt, node)
	}
}

func (mn *MonitorNotifier) PacketDestinationReached(now float64, pkt *Packet, node string) {
	for _, sub := range mn.subscribers {
		sub.PacketDestinationReached(now, pkt, node)
	}
}

func (mn *MonitorNotifier) PacketInjected(now float64, pkt *Packet, node string) {
	for _, sub := range mn.subscribers {
		sub.PacketInjected(now, pkt, node)
	}
}

func (mn *MonitorNotifier) NoRouteFound(now float64, node string, pkt *Packet) {
	for _, sub := range mn.subscribers {
		sub.NoRouteFound(now, node, pkt)
	}
}

func (mn *MonitorNotifier) ContactStarted(now float64, node string, cid ContactID) {
	for _, sub := range mn.subscribers {
		sub.ContactStarted(now, node, cid)
	}
}

func (mn *MonitorNotifier) ContactEnded(now float64, node string, cid ContactID) {
	for _, sub := range mn.subscribers {
		sub.ContactEnded(now, node, cid)
	}
}

func (mn *MonitorNotifier) SimulationStarted(now float64) {
	for _, sub := range mn.subscribers {
		sub.SimulationStarted(now)
	}
}

func (mn *MonitorNotifier) SimulationEnded(now float64) {
	for _, sub := range mn.subscribers {
		sub.SimulationEnded(now)
	}
}
