package dtnsim

// stats.go records the fate of every packet in a run and summarizes delivery performance

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// PacketRecord is what the DeliveryMonitor remembers about one packet
type PacketRecord struct {
	ID          int      `json:"id" yaml:"id"`
	Source      string   `json:"source" yaml:"source"`
	Destination string   `json:"destination" yaml:"destination"`
	CreatedAt   float64  `json:"createdat" yaml:"createdat"`
	Delivered   bool     `json:"delivered" yaml:"delivered"`
	DeliveredAt float64  `json:"deliveredat" yaml:"deliveredat"`
	Hops        []string `json:"hops" yaml:"hops"`
	Routes      []string `json:"routes,omitempty" yaml:"routes,omitempty"`

	// copies of a flooded packet that arrived after the first
	Duplicates int `json:"duplicates,omitempty" yaml:"duplicates,omitempty"`
}

// Summary aggregates the PacketRecords of a run
type Summary struct {
	Injected      int     `json:"injected" yaml:"injected"`
	Delivered     int     `json:"delivered" yaml:"delivered"`
	DeliveryRatio float64 `json:"deliveryratio" yaml:"deliveryratio"`
	MeanDelay     float64 `json:"meandelay" yaml:"meandelay"`
	StdDevDelay   float64 `json:"stddevdelay" yaml:"stddevdelay"`
	P95Delay      float64 `json:"p95delay" yaml:"p95delay"`
	MeanHops      float64 `json:"meanhops" yaml:"meanhops"`
	NoRouteEvents int     `json:"noroute" yaml:"noroute"`
}

// DeliveryMonitor keeps a PacketRecord for every injected packet
type DeliveryMonitor struct {
	BaseMonitor
	records map[int]*PacketRecord
	noRoute int
}

// CreateDeliveryMonitor is a constructor
func CreateDeliveryMonitor() *DeliveryMonitor {
	dm := new(DeliveryMonitor)
	dm.records = make(map[int]*PacketRecord)
	return dm
}

func (dm *DeliveryMonitor) PacketInjected(now float64, pkt *Packet, node string) {
	dm.records[pkt.ID] = &PacketRecord{ID: pkt.ID, Source: pkt.Source, Destination: pkt.Destination,
		CreatedAt: pkt.CreatedAt}
}

func (dm *DeliveryMonitor) PacketDestinationReached(now float64, pkt *Packet, node string) {
	rec, present := dm.records[pkt.ID]
	if !present {
		rec = &PacketRecord{ID: pkt.ID, Source: pkt.Source, Destination: pkt.Destination, CreatedAt: pkt.CreatedAt}
		dm.records[pkt.ID] = rec
	}
	if rec.Delivered {
		rec.Duplicates += 1
		return
	}
	rec.Delivered = true
	rec.DeliveredAt = now
	rec.Hops = append(make([]string, 0, len(pkt.Hops)), pkt.Hops...)
	for _, rt := range pkt.PlannedRoutes {
		rec.Routes = append(rec.Routes, rt.String())
	}
}

func (dm *DeliveryMonitor) NoRouteFound(now float64, node string, pkt *Packet) {
	dm.noRoute += 1
}

// Records returns the packet records ordered by packet id
func (dm *DeliveryMonitor) Records() []*PacketRecord {
	ids := make([]int, 0, len(dm.records))
	for id := range dm.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	recs := make([]*PacketRecord, len(ids))
	for idx, id := range ids {
		recs[idx] = dm.records[id]
	}
	return recs
}

// Summary computes the delivery ratio and delay statistics over the delivered packets
func (dm *DeliveryMonitor) Summary() Summary {
	sum := Summary{Injected: len(dm.records), NoRouteEvents: dm.noRoute}
	delays := make([]float64, 0)
	hops := make([]float64, 0)
	for _, rec := range dm.Records() {
		if !rec.Delivered {
			continue
		}
		delays = append(delays, rec.DeliveredAt-rec.CreatedAt)
		hops = append(hops, float64(len(rec.Hops)-1))
	}
	sum.Delivered = len(delays)
	if sum.Injected > 0 {
		sum.DeliveryRatio = float64(sum.Delivered) / float64(sum.Injected)
	}
	if len(delays) == 0 {
		return sum
	}
	sum.MeanDelay, sum.StdDevDelay = stat.MeanStdDev(delays, nil)
	if len(delays) == 1 {
		sum.StdDevDelay = 0
	}
	sort.Float64s(delays)
	sum.P95Delay = stat.Quantile(0.95, stat.Empirical, delays, nil)
	sum.MeanHops = stat.Mean(hops, nil)
	return sum
}

// Fingerprint renders every record in a canonical text form; two runs with equal
// fingerprints treated every packet identically
func (dm *DeliveryMonitor) Fingerprint() string {
	var sb strings.Builder
	for _, rec := range dm.Records() {
		fmt.Fprintf(&sb, "%d %s->%s delivered=%t at=%g hops=%s routes=%s\n", rec.ID, rec.Source,
			rec.Destination, rec.Delivered, rec.DeliveredAt, strings.Join(rec.Hops, ","),
			strings.Join(rec.Routes, "|"))
	}
	return sb.String()
}
