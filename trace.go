package dtnsim

// trace.go gathers a per-packet trace of a run: every injection, booking, transmission,
// delivery and routing failure, stamped with simulated time, and writes it out for
// post-run analysis

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strconv"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

type TraceInst struct {
	TraceTime string `json:"tracetime" yaml:"tracetime"`
	TraceType string `json:"tracetype" yaml:"tracetype"`
	TraceStr  string `json:"tracestr" yaml:"tracestr"`
}

// NameType is a an entry in a dictionary created for a trace
// that maps object id numbers to a (name,type) pair
type NameType struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// TraceManager gathers information about the execution of a simulation. Traces are
// kept per packet id; node names are referenced by the integer ids in NameByID.
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// identifier of the run that produced the trace
	RunID string `json:"runid" yaml:"runid"`

	// text name associated with each objID
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, by packet id
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`

	idByName map[string]int
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.NameByID = make(map[int]NameType)
	tm.Traces = make(map[int][]TraceInst)
	tm.idByName = make(map[string]int)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// AddTrace stores a trace record under the given packet id
func (tm *TraceManager) AddTrace(vrt vrtime.Time, pktID int, trace TraceInst) {
	if !tm.InUse {
		return
	}
	tm.Traces[pktID] = append(tm.Traces[pktID], trace)
}

// AddName is used to add an element to the id -> (name,type) dictionary for the trace file
func (tm *TraceManager) AddName(id int, name string, objDesc string) {
	if tm.InUse {
		_, present := tm.NameByID[id]
		if present {
			panic("duplicated id in AddName")
		}
		tm.NameByID[id] = NameType{Name: name, Type: objDesc}
		tm.idByName[name] = id
	}
}

// NameID returns the id a name was registered under, or -1
func (tm *TraceManager) NameID(name string) int {
	id, present := tm.idByName[name]
	if !present {
		return -1
	}
	return id
}

// Records returns the number of trace records gathered
func (tm *TraceManager) Records() int {
	total := 0
	for _, traces := range tm.Traces {
		total += len(traces)
	}
	return total
}

// WriteToFile stores the Traces struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
// With globalOrder set all records are merged into a single list ordered by time.
func (tm *TraceManager) WriteToFile(filename string, globalOrder bool) error {
	if !tm.InUse {
		return nil
	}
	out := tm
	if globalOrder {
		out = new(TraceManager)
		out.InUse = tm.InUse
		out.ExpName = tm.ExpName
		out.RunID = tm.RunID
		out.NameByID = make(map[int]NameType)
		for key, value := range tm.NameByID {
			out.NameByID[key] = value
		}
		ids := make([]int, 0, len(tm.Traces))
		for id := range tm.Traces {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		merged := make([]TraceInst, 0)
		for _, id := range ids {
			merged = append(merged, tm.Traces[id]...)
		}
		sort.SliceStable(merged, func(i, j int) bool {
			v1, _ := strconv.ParseFloat(merged[i].TraceTime, 64)
			v2, _ := strconv.ParseFloat(merged[j].TraceTime, 64)
			return v1 < v2
		})
		out.Traces = map[int][]TraceInst{0: merged}
	}

	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error
	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*out)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*out, "", "\t")
	} else {
		return newSimError(ErrInvalidArgument, "unrecognized extension on %s", filename)
	}
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// PacketTrace saves information about one event in the life of a packet
type PacketTrace struct {
	Time     float64 `yaml:"time"`     // time in seconds
	Ticks    int64   `yaml:"ticks"`    // ticks variable of time
	Priority int64   `yaml:"priority"` // priority field of time-stamp
	PacketID int     `yaml:"packetid"`
	ObjID    int     `yaml:"objid"` // id of the node the event happened at
	Op       string  `yaml:"op"`    // "inject", "route", "transmit", "deliver", "noroute"
	NextHop  string  `yaml:"nexthop,omitempty"`
	EDT      float64 `yaml:"edt,omitempty"`
}

func (ptr *PacketTrace) Serialize() string {
	bytes, merr := yaml.Marshal(*ptr)
	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// AddPacketTrace creates a record of the trace using its calling arguments, and stores it.
// now is in simulated milliseconds.
func AddPacketTrace(tm *TraceManager, now float64, pkt *Packet, node string, op string, rt *Route) {
	if !tm.InUse {
		return
	}
	vrt := vrtime.SecondsToTime(now / 1000.0)
	ptr := new(PacketTrace)
	ptr.Time = vrt.Seconds()
	ptr.Ticks = vrt.Ticks()
	ptr.Priority = vrt.Pri()
	ptr.PacketID = pkt.ID
	ptr.ObjID = tm.NameID(node)
	ptr.Op = op
	if rt != nil {
		ptr.NextHop = rt.NextHop
		ptr.EDT = rt.EDT
	}

	traceTime := strconv.FormatFloat(ptr.Time, 'f', -1, 64)
	trcInst := TraceInst{TraceTime: traceTime, TraceType: "packet", TraceStr: ptr.Serialize()}
	tm.AddTrace(vrt, pkt.ID, trcInst)
}

// TraceMonitor feeds packet events to a TraceManager
type TraceMonitor struct {
	BaseMonitor
	tm *TraceManager
}

// CreateTraceMonitor is a constructor; the nodes are entered in the trace's name dictionary
func CreateTraceMonitor(tm *TraceManager, nodes []string) *TraceMonitor {
	for idx, node := range nodes {
		tm.AddName(idx, node, "node")
	}
	return &TraceMonitor{tm: tm}
}

func (tmon *TraceMonitor) PacketInjected(now float64, pkt *Packet, node string) {
	AddPacketTrace(tmon.tm, now, pkt, node, "inject", nil)
}

func (tmon *TraceMonitor) PacketRouted(now float64, pkt *Packet, node string, booked *Route, best *Route, txStart float64) {
	AddPacketTrace(tmon.tm, now, pkt, node, "route", booked)
}

func (tmon *TraceMonitor) PacketTransmitted(now float64, pkt *Packet, node string) {
	AddPacketTrace(tmon.tm, now, pkt, node, "transmit", nil)
}

func (tmon *TraceMonitor) PacketDestinationReached(now float64, pkt *Packet, node string) {
	AddPacketTrace(tmon.tm, now, pkt, node, "deliver", nil)
}

func (tmon *TraceMonitor) NoRouteFound(now float64, node string, pkt *Packet) {
	AddPacketTrace(tmon.tm, now, pkt, node, "noroute", nil)
}
