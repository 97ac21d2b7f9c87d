package dtnsim

// desc-plan.go has the serializable description of a contact plan and the code
// that reads and writes it. Two formats are understood:
//   - the native description (PlanDesc), stored as yaml or json, selected by file extension
//   - the json output of the DTN time-varying-graph tools, in either its legacy form (a list of
//     vertices, contacts as [start, end, x] in seconds, always bidirectional) or its current
//     form (a map of vertices, seven-item contacts carrying their own capacity and delay)

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

// ContactDesc describes one scheduled contact
type ContactDesc struct {
	From     string  `json:"from" yaml:"from"`
	To       string  `json:"to" yaml:"to"`
	Start    float64 `json:"start" yaml:"start"`
	End      float64 `json:"end" yaml:"end"`
	Datarate float64 `json:"datarate,omitempty" yaml:"datarate,omitempty"`
	Delay    float64 `json:"delay,omitempty" yaml:"delay,omitempty"`

	// when true the reverse contact is scheduled as well
	Bidirectional bool `json:"bidirectional" yaml:"bidirectional"`
}

// PlanDesc is the file representation of a ContactPlan
type PlanDesc struct {
	Name            string        `json:"name" yaml:"name"`
	DefaultDatarate float64       `json:"defaultdatarate" yaml:"defaultdatarate"`
	DefaultDelay    float64       `json:"defaultdelay" yaml:"defaultdelay"`
	Nodes           []string      `json:"nodes" yaml:"nodes"`
	Hotspots        []string      `json:"hotspots,omitempty" yaml:"hotspots,omitempty"`
	Contacts        []ContactDesc `json:"contacts" yaml:"contacts"`
}

// CreatePlanDesc is a constructor
func CreatePlanDesc(name string) *PlanDesc {
	pd := new(PlanDesc)
	pd.Name = name
	pd.Nodes = make([]string, 0)
	pd.Hotspots = make([]string, 0)
	pd.Contacts = make([]ContactDesc, 0)
	return pd
}

// WriteToFile stores the PlanDesc struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (pd *PlanDesc) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*pd)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*pd, "", "\t")
	} else {
		return newSimError(ErrInvalidArgument, "unrecognized extension on %s", filename)
	}

	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// ReadPlanDesc deserializes a byte slice holding a representation of a PlanDesc struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadPlanDesc(filename string, useYAML bool, dict []byte) (*PlanDesc, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := PlanDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// ContactPlanFromDesc builds a plan from its description, defaulting contact rates
// and delays to the description's defaults
func ContactPlanFromDesc(pd *PlanDesc) (*ContactPlan, error) {
	cp := CreateContactPlan(pd.DefaultDatarate, pd.DefaultDelay)
	for _, node := range pd.Nodes {
		cp.AddNode(node)
	}
	for _, cd := range pd.Contacts {
		cp.AddContact(cd.From, cd.To, cd.Start, cd.End,
			&ContactOpts{Datarate: cd.Datarate, Delay: cd.Delay, OneWay: !cd.Bidirectional})
	}
	cp.SetHotspots(pd.Hotspots)
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Desc returns the description of the plan, one one-way ContactDesc per contact
func (cp *ContactPlan) Desc(name string) *PlanDesc {
	pd := CreatePlanDesc(name)
	pd.DefaultDatarate = cp.DefaultDatarate
	pd.DefaultDelay = cp.DefaultDelay
	pd.Nodes = append(pd.Nodes, cp.Nodes...)
	pd.Hotspots = append(pd.Hotspots, cp.Hotspots...)
	for _, cid := range cp.Contacts {
		pd.Contacts = append(pd.Contacts, ContactDesc{From: cid.From, To: cid.To, Start: cid.Start,
			End: cid.End, Datarate: cid.Datarate, Delay: cid.Delay})
	}
	return pd
}

// tvgEdge is an edge of a time-varying-graph file; its contacts are decoded
// according to the file's form
type tvgEdge struct {
	Vertices []string          `json:"vertices"`
	Contacts []json.RawMessage `json:"contacts"`
}

type tvgFile struct {
	Vertices json.RawMessage `json:"vertices"`
	Edges    []tvgEdge       `json:"edges"`
	Hotspots []string        `json:"hotspots"`
}

// ParseTVG builds a plan from the json output of the time-varying-graph tools. Times
// in the file are in seconds and are converted to milliseconds. Contacts starting at or
// after endTime are ignored and those outliving it are shortened.
func ParseTVG(data []byte, endTime, datarate, delay float64) (*ContactPlan, error) {
	var tvg tvgFile
	if err := json.Unmarshal(data, &tvg); err != nil {
		return nil, err
	}
	cp := CreateContactPlan(datarate, delay)

	// the legacy form lists vertices, the current one maps them to their attributes
	var legacyVertices []string
	var vertexMap map[string][]string
	legacy := true
	if err := json.Unmarshal(tvg.Vertices, &legacyVertices); err != nil {
		if merr := json.Unmarshal(tvg.Vertices, &vertexMap); merr != nil {
			return nil, newSimError(ErrInvalidArgument, "tvg vertices are neither a list nor a map")
		}
		legacy = false
	}

	if legacy {
		for _, node := range legacyVertices {
			cp.AddNode(node)
		}
	} else {
		// the map has no order of its own; take it from the edges, then the rest sorted
		for _, edge := range tvg.Edges {
			for _, node := range edge.Vertices {
				if _, present := vertexMap[node]; present {
					cp.AddNode(node)
				}
			}
		}
		for _, node := range sortedKeys(vertexMap) {
			cp.AddNode(node)
		}
	}

	errs := make([]error, 0)
	for _, edge := range tvg.Edges {
		if len(edge.Vertices) != 2 {
			errs = append(errs, newSimError(ErrInvalidArgument, "tvg edge with %d vertices", len(edge.Vertices)))
			continue
		}
		for _, raw := range edge.Contacts {
			var err error
			if legacy {
				err = cp.addLegacyTVGContact(edge.Vertices[0], edge.Vertices[1], raw, endTime)
			} else {
				err = cp.addTVGContact(raw, endTime)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := ReportErrs(errs); err != nil {
		return nil, err
	}

	if tvg.Hotspots != nil {
		cp.SetHotspots(tvg.Hotspots)
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func secondsToMillis(s float64) float64 {
	return math.Round(s * 1000)
}

func (cp *ContactPlan) addLegacyTVGContact(node1, node2 string, raw json.RawMessage, endTime float64) error {
	var item []float64
	if err := json.Unmarshal(raw, &item); err != nil || len(item) != 3 {
		return newSimError(ErrInvalidArgument, "legacy tvg contact %s is not three numbers", string(raw))
	}
	start, end := secondsToMillis(item[0]), secondsToMillis(item[1])
	if start >= endTime {
		return nil
	}
	cp.AddContact(node1, node2, start, math.Min(end, endTime), nil)
	return nil
}

// addTVGContact decodes [from, to, start, end, [[t, capacity]], delay, x]. The predicted
// capacity is turned into the constant rate that would carry it over the whole window.
func (cp *ContactPlan) addTVGContact(raw json.RawMessage, endTime float64) error {
	var item []json.RawMessage
	if err := json.Unmarshal(raw, &item); err != nil || len(item) != 7 {
		return newSimError(ErrInvalidArgument, "tvg contact %s does not have seven items", string(raw))
	}
	var from, to string
	var startS, endS, delay float64
	var capacity [][]float64
	errs := []error{
		json.Unmarshal(item[0], &from),
		json.Unmarshal(item[1], &to),
		json.Unmarshal(item[2], &startS),
		json.Unmarshal(item[3], &endS),
		json.Unmarshal(item[4], &capacity),
		json.Unmarshal(item[5], &delay),
	}
	if err := ReportErrs(errs); err != nil {
		return newSimError(ErrInvalidArgument, "tvg contact %s: %v", string(raw), err)
	}
	if len(capacity) != 1 || len(capacity[0]) != 2 || endS <= startS {
		return newSimError(ErrInvalidArgument, "tvg contact %s has a malformed capacity", string(raw))
	}

	start, end := secondsToMillis(startS), secondsToMillis(endS)
	if start >= endTime {
		return nil
	}
	datarate := math.Round(capacity[0][1] / (1000 * (endS - startS)))
	cp.AddContact(from, to, start, math.Min(end, endTime),
		&ContactOpts{Datarate: datarate, Delay: delay, OneWay: true})
	return nil
}

// LoadContactPlan reads a plan from a file or from an in-memory document, but not both.
// Native descriptions are recognized by a .yaml/.yml extension or a "contacts" key; anything
// else is parsed as time-varying-graph json with the given defaults.
func LoadContactPlan(filename string, dict []byte, endTime, datarate, delay float64) (*ContactPlan, error) {
	if filename != "" && len(dict) > 0 {
		return nil, newSimError(ErrAmbiguousSource, "plan given both as file %s and as a string", filename)
	}
	if filename == "" && len(dict) == 0 {
		return nil, errors.New("no contact plan source given")
	}

	pathExt := path.Ext(filename)
	useYAML := pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"
	if len(dict) == 0 {
		var err error
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	native := useYAML
	if !native {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(dict, &fields); err != nil {
			return nil, err
		}
		_, native = fields["contacts"]
	}

	if !native {
		return ParseTVG(dict, endTime, datarate, delay)
	}

	pd, err := ReadPlanDesc(filename, useYAML, dict)
	if err != nil {
		return nil, err
	}
	if pd.DefaultDatarate == 0 {
		pd.DefaultDatarate = datarate
	}
	if pd.DefaultDelay == 0 {
		pd.DefaultDelay = delay
	}
	cp, err := ContactPlanFromDesc(pd)
	if err != nil {
		return nil, err
	}
	cp.TruncateAt(endTime)
	return cp, nil
}
