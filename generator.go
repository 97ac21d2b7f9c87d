package dtnsim

// generator.go holds the packet generators that drive a run. Each generator is an
// event runner of its own: it is registered with the simulator's engine and injects
// packets at its source nodes at the times its cadence dictates.
//   - BatchGenerator injects a fixed number of packets per source/target pair at each of a list of times
//   - ContinuousGenerator injects one packet per pair every size/rate milliseconds over a window
//   - PoissonGenerator injects single packets between random pairs with exponential gaps

import (
	"math"
	"sort"

	"github.com/iti/rngstream"
)

// PacketGenerator is the interface the simulator uses to start a generator
type PacketGenerator interface {
	Name() string
	Register(sim *Simulator)
	Generated() int
}

// PacketTemplate holds the attributes shared by every packet a generator creates
type PacketTemplate struct {
	Size float64

	// time to live: the deadline is the creation time plus TTL; 0 means no deadline
	TTL float64

	Critical       bool
	ReturnToSender bool
}

func (tmpl *PacketTemplate) create(sim *Simulator, src, dst string, now float64) *Packet {
	pkt := CreatePacket(sim.NextPacketID(), src, dst, tmpl.Size, now)
	if tmpl.TTL > 0 {
		pkt.Deadline = now + tmpl.TTL
	}
	pkt.Critical = tmpl.Critical
	pkt.ReturnToSender = tmpl.ReturnToSender
	return pkt
}

// injectPairs creates count packets for every source/target pair with distinct nodes
func injectPairs(sim *Simulator, tmpl *PacketTemplate, sources, targets []string, count int, now float64) int {
	made := 0
	for _, src := range sources {
		for _, dst := range targets {
			if src == dst {
				continue
			}
			for idx := 0; idx < count; idx++ {
				sim.InjectPacket(src, tmpl.create(sim, src, dst, now))
				made += 1
			}
		}
	}
	return made
}

// BatchGenerator injects Count packets per pair at each of Times
type BatchGenerator struct {
	GenName string
	PacketTemplate
	Count   int
	Sources []string
	Targets []string
	Times   []float64

	sim       *Simulator
	rid       int
	generated int
}

// CreateBatchGenerator is a constructor. Duplicate times are merged.
func CreateBatchGenerator(name string, tmpl PacketTemplate, count int, sources, targets []string,
	times []float64) *BatchGenerator {
	bg := new(BatchGenerator)
	bg.GenName = name
	bg.PacketTemplate = tmpl
	bg.Count = count
	bg.Sources = sources
	bg.Targets = targets

	sorted := append(make([]float64, 0, len(times)), times...)
	sort.Float64s(sorted)
	bg.Times = make([]float64, 0, len(sorted))
	for idx, t := range sorted {
		if idx == 0 || t != sorted[idx-1] {
			bg.Times = append(bg.Times, t)
		}
	}
	return bg
}

func (bg *BatchGenerator) Name() string   { return bg.GenName }
func (bg *BatchGenerator) Generated() int { return bg.generated }

func (bg *BatchGenerator) Register(sim *Simulator) {
	bg.sim = sim
	bg.rid = sim.Engine.RegisterRunner(bg, batchRun)
}

func batchRun(eng *EventEngine, context any, data any) any {
	bg := context.(*BatchGenerator)
	for _, t := range bg.Times {
		eng.RegisterEvent(t, bg.rid, bg, nil, batchInject)
	}
	return nil
}

func batchInject(eng *EventEngine, context any, data any) any {
	bg := context.(*BatchGenerator)
	bg.generated += injectPairs(bg.sim, &bg.PacketTemplate, bg.Sources, bg.Targets, bg.Count, eng.Now())
	return nil
}

// ContinuousGenerator injects a packet per pair every Size/Rate milliseconds, the first
// one period after Start and none after End
type ContinuousGenerator struct {
	GenName string
	PacketTemplate
	Rate    float64
	Sources []string
	Targets []string
	Start   float64
	End     float64

	sim       *Simulator
	rid       int
	period    float64
	generated int
}

// CreateContinuousGenerator is a constructor
func CreateContinuousGenerator(name string, tmpl PacketTemplate, rate float64, sources, targets []string,
	start, end float64) *ContinuousGenerator {
	cg := new(ContinuousGenerator)
	cg.GenName = name
	cg.PacketTemplate = tmpl
	cg.Rate = rate
	cg.Sources = sources
	cg.Targets = targets
	cg.Start = start
	cg.End = end
	cg.period = tmpl.Size / rate
	return cg
}

func (cg *ContinuousGenerator) Name() string   { return cg.GenName }
func (cg *ContinuousGenerator) Generated() int { return cg.generated }

func (cg *ContinuousGenerator) Register(sim *Simulator) {
	cg.sim = sim
	cg.rid = sim.Engine.RegisterRunner(cg, continuousRun)
}

func continuousRun(eng *EventEngine, context any, data any) any {
	cg := context.(*ContinuousGenerator)
	if cg.period <= 0 || math.IsInf(cg.period, 0) || math.IsNaN(cg.period) {
		return nil
	}
	if first := cg.Start + cg.period; first <= cg.End {
		eng.RegisterEvent(first, cg.rid, cg, nil, continuousInject)
	}
	return nil
}

func continuousInject(eng *EventEngine, context any, data any) any {
	cg := context.(*ContinuousGenerator)
	now := eng.Now()
	cg.generated += injectPairs(cg.sim, &cg.PacketTemplate, cg.Sources, cg.Targets, 1, now)
	if nxt := now + cg.period; nxt <= cg.End {
		eng.RegisterEvent(nxt, cg.rid, cg, nil, continuousInject)
	}
	return nil
}

// PoissonGenerator injects single packets between randomly drawn source/target pairs,
// with exponentially distributed gaps of mean MeanGap between Start and End.
// Draws come from an rngstream stream named after the generator.
type PoissonGenerator struct {
	GenName string
	PacketTemplate
	MeanGap float64
	Sources []string
	Targets []string
	Start   float64
	End     float64

	sim       *Simulator
	rid       int
	rngstrm   *rngstream.RngStream
	generated int
}

// CreatePoissonGenerator is a constructor
func CreatePoissonGenerator(name string, tmpl PacketTemplate, meanGap float64, sources, targets []string,
	start, end float64) *PoissonGenerator {
	pg := new(PoissonGenerator)
	pg.GenName = name
	pg.PacketTemplate = tmpl
	pg.MeanGap = meanGap
	pg.Sources = sources
	pg.Targets = targets
	pg.Start = start
	pg.End = end
	pg.rngstrm = rngstream.New(name)
	return pg
}

func (pg *PoissonGenerator) Name() string   { return pg.GenName }
func (pg *PoissonGenerator) Generated() int { return pg.generated }

func (pg *PoissonGenerator) Register(sim *Simulator) {
	pg.sim = sim
	pg.rid = sim.Engine.RegisterRunner(pg, poissonRun)
}

// gap samples an exponential inter-arrival time, always strictly positive
func (pg *PoissonGenerator) gap() float64 {
	u01 := pg.rngstrm.RandU01()
	g := -math.Log(1.0-u01) * pg.MeanGap
	if g <= 0 {
		g = math.SmallestNonzeroFloat64
	}
	return g
}

func poissonRun(eng *EventEngine, context any, data any) any {
	pg := context.(*PoissonGenerator)
	if pg.MeanGap <= 0 || len(pg.Sources) == 0 || len(pg.Targets) == 0 {
		return nil
	}
	if first := pg.Start + pg.gap(); first <= pg.End {
		eng.RegisterEvent(first, pg.rid, pg, nil, poissonInject)
	}
	return nil
}

func poissonInject(eng *EventEngine, context any, data any) any {
	pg := context.(*PoissonGenerator)
	now := eng.Now()
	src := pg.Sources[pg.rngstrm.RandInt(0, len(pg.Sources)-1)]
	dst := pg.Targets[pg.rngstrm.RandInt(0, len(pg.Targets)-1)]
	if src != dst {
		pg.sim.InjectPacket(src, pg.create(pg.sim, src, dst, now))
		pg.generated += 1
	}
	if nxt := now + pg.gap(); nxt <= pg.End {
		eng.RegisterEvent(nxt, pg.rid, pg, nil, poissonInject)
	}
	return nil
}
