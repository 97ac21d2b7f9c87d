package dtnsim

// monitor.go exposes the packet and contact events of a run as Prometheus metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsMonitor counts packet events and tracks delivery delay
type MetricsMonitor struct {
	BaseMonitor
	gatherer prometheus.Gatherer

	PacketsInjected    prometheus.Counter
	PacketsRouted      prometheus.Counter
	PacketsTransmitted prometheus.Counter
	PacketsDelivered   prometheus.Counter
	NoRoute            prometheus.Counter
	ContactsActive     prometheus.Gauge
	DeliveryDelay      prometheus.Histogram
}

// NewMetricsMonitor registers the simulator metrics against the provided registerer,
// or the default one when reg is nil
func NewMetricsMonitor(reg prometheus.Registerer) (*MetricsMonitor, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	mm := &MetricsMonitor{gatherer: gatherer}

	var err error
	counters := []struct {
		dst  *prometheus.Counter
		name string
		help string
	}{
		{&mm.PacketsInjected, "dtnsim_packets_injected_total", "Packets introduced at their source node."},
		{&mm.PacketsRouted, "dtnsim_packets_routed_total", "Packets booked on a contact."},
		{&mm.PacketsTransmitted, "dtnsim_packets_transmitted_total", "Packets fully transmitted over a contact."},
		{&mm.PacketsDelivered, "dtnsim_packets_delivered_total", "Packets that reached their destination."},
		{&mm.NoRoute, "dtnsim_no_route_found_total", "Forwarding decisions that found no usable route."},
	}
	for _, c := range counters {
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: c.name, Help: c.help})
		*c.dst, err = registerCounter(reg, counter, c.name)
		if err != nil {
			return nil, err
		}
	}

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dtnsim_contacts_active",
		Help: "Contacts currently open.",
	})
	mm.ContactsActive, err = registerGauge(reg, active, "dtnsim_contacts_active")
	if err != nil {
		return nil, err
	}

	delay := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtnsim_delivery_delay_ms",
		Help:    "Simulated time from packet creation to delivery.",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	})
	mm.DeliveryDelay, err = registerHistogram(reg, delay, "dtnsim_delivery_delay_ms")
	if err != nil {
		return nil, err
	}
	return mm, nil
}

// Gatherer returns the Prometheus gatherer associated with the monitor
func (mm *MetricsMonitor) Gatherer() prometheus.Gatherer {
	if mm == nil {
		return nil
	}
	return mm.gatherer
}

func (mm *MetricsMonitor) PacketInjected(now float64, pkt *Packet, node string) {
	mm.PacketsInjected.Inc()
}

func (mm *MetricsMonitor) PacketRouted(now float64, pkt *Packet, node string, booked *Route, best *Route, txStart float64) {
	mm.PacketsRouted.Inc()
}

func (mm *MetricsMonitor) PacketTransmitted(now float64, pkt *Packet, node string) {
	mm.PacketsTransmitted.Inc()
}

func (mm *MetricsMonitor) PacketDestinationReached(now float64, pkt *Packet, node string) {
	mm.PacketsDelivered.Inc()
	mm.DeliveryDelay.Observe(now - pkt.CreatedAt)
}

func (mm *MetricsMonitor) NoRouteFound(now float64, node string, pkt *Packet) {
	mm.NoRoute.Inc()
}

func (mm *MetricsMonitor) ContactStarted(now float64, node string, cid ContactID) {
	mm.ContactsActive.Inc()
}

func (mm *MetricsMonitor) ContactEnded(now float64, node string, cid ContactID) {
	mm.ContactsActive.Dec()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
