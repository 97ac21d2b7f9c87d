package dtnsim

// config.go defines the experiment configuration: which plan to load, which router to
// use, how long to run, and which packet generators to start. Like the plan description
// it is stored as yaml or json, selected by file extension.

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// generator kinds understood by BuildExperiment
var GeneratorKinds = []string{"batch", "continuous", "poisson"}

// GeneratorDesc configures one packet generator. Which fields apply depends on Kind:
// batch uses Count and Times, continuous uses Rate, Start and End, poisson uses
// MeanGap, Start and End.
type GeneratorDesc struct {
	Name           string    `json:"name" yaml:"name"`
	Kind           string    `json:"kind" yaml:"kind"`
	Sources        []string  `json:"sources" yaml:"sources"`
	Targets        []string  `json:"targets" yaml:"targets"`
	Size           float64   `json:"size" yaml:"size"`
	TTL            float64   `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Critical       bool      `json:"critical,omitempty" yaml:"critical,omitempty"`
	ReturnToSender bool      `json:"returntosender,omitempty" yaml:"returntosender,omitempty"`
	Count          int       `json:"count,omitempty" yaml:"count,omitempty"`
	Times          []float64 `json:"times,omitempty" yaml:"times,omitempty"`
	Rate           float64   `json:"rate,omitempty" yaml:"rate,omitempty"`
	MeanGap        float64   `json:"meangap,omitempty" yaml:"meangap,omitempty"`
	Start          float64   `json:"start,omitempty" yaml:"start,omitempty"`
	End            float64   `json:"end,omitempty" yaml:"end,omitempty"`
}

// ExpCfg is the description of an experiment
type ExpCfg struct {
	// name of the experiment
	Name string `json:"name" yaml:"name"`

	// "cgr" or "scgr"
	Router string `json:"router" yaml:"router"`

	// contact plan file; relative names are taken relative to the configuration file
	PlanFile string `json:"planfile" yaml:"planfile"`

	// used for contacts whose rate or delay the plan does not give
	DefaultDatarate float64 `json:"defaultdatarate" yaml:"defaultdatarate"`
	DefaultDelay    float64 `json:"defaultdelay" yaml:"defaultdelay"`

	// simulated milliseconds to run; contacts are truncated to this horizon
	Duration float64 `json:"duration" yaml:"duration"`

	ProgressSteps int  `json:"progresssteps,omitempty" yaml:"progresssteps,omitempty"`
	PruneExpired  bool `json:"pruneexpired,omitempty" yaml:"pruneexpired,omitempty"`

	// tie-break order over node names, "lexical" (default) or "reverse"
	NodeOrder string `json:"nodeorder,omitempty" yaml:"nodeorder,omitempty"`

	// logrus level name
	LogLevel string `json:"loglevel,omitempty" yaml:"loglevel,omitempty"`

	// when given, a packet trace is written here (.yaml or .json)
	TraceFile string `json:"tracefile,omitempty" yaml:"tracefile,omitempty"`

	// register Prometheus metrics for the run
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	Generators []GeneratorDesc `json:"generators" yaml:"generators"`
}

// CreateExpCfg is a constructor
func CreateExpCfg(name string) *ExpCfg {
	cfg := new(ExpCfg)
	cfg.Name = name
	cfg.Router = "scgr"
	cfg.Generators = make([]GeneratorDesc, 0)
	return cfg
}

// AddGenerator appends a generator description
func (cfg *ExpCfg) AddGenerator(gd GeneratorDesc) {
	cfg.Generators = append(cfg.Generators, gd)
}

// Validate checks the configuration on its own, reporting every problem found
func (cfg *ExpCfg) Validate() error {
	errs := make([]error, 0)
	if cfg.Name == "" {
		errs = append(errs, fmt.Errorf("experiment has no name"))
	}
	if _, err := CreateRouter(cfg.Router); err != nil {
		errs = append(errs, err)
	}
	if _, err := NodeOrderByName(cfg.NodeOrder); err != nil {
		errs = append(errs, err)
	}
	if cfg.PlanFile == "" {
		errs = append(errs, fmt.Errorf("experiment %s names no plan file", cfg.Name))
	}
	if cfg.Duration <= 0 {
		errs = append(errs, fmt.Errorf("experiment %s has non-positive duration %g", cfg.Name, cfg.Duration))
	}
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			errs = append(errs, err)
		}
	}

	names := make([]string, 0)
	for idx, gd := range cfg.Generators {
		label := gd.Name
		if label == "" {
			label = fmt.Sprintf("generator %d", idx)
		} else if slices.Contains(names, gd.Name) {
			errs = append(errs, fmt.Errorf("generator name %s used twice", gd.Name))
		}
		names = append(names, gd.Name)

		if !slices.Contains(GeneratorKinds, gd.Kind) {
			errs = append(errs, fmt.Errorf("%s has unknown kind %q", label, gd.Kind))
			continue
		}
		if gd.Size <= 0 {
			errs = append(errs, fmt.Errorf("%s has non-positive packet size", label))
		}
		if len(gd.Sources) == 0 || len(gd.Targets) == 0 {
			errs = append(errs, fmt.Errorf("%s needs sources and targets", label))
		}
		switch gd.Kind {
		case "batch":
			if gd.Count <= 0 || len(gd.Times) == 0 {
				errs = append(errs, fmt.Errorf("%s needs a positive count and at least one time", label))
			}
		case "continuous":
			if gd.Rate <= 0 || gd.End < gd.Start {
				errs = append(errs, fmt.Errorf("%s needs a positive rate and start <= end", label))
			}
		case "poisson":
			if gd.MeanGap <= 0 || gd.End < gd.Start {
				errs = append(errs, fmt.Errorf("%s needs a positive mean gap and start <= end", label))
			}
		}
	}
	return ReportErrs(errs)
}

// ValidateAgainstPlan checks that every generator endpoint is a node of the plan
func (cfg *ExpCfg) ValidateAgainstPlan(plan *ContactPlan) error {
	errs := make([]error, 0)
	for _, gd := range cfg.Generators {
		for _, node := range append(append([]string{}, gd.Sources...), gd.Targets...) {
			if !slices.Contains(plan.Nodes, node) {
				errs = append(errs, newSimError(ErrUnknownNode, "generator %s references node %s", gd.Name, node))
			}
		}
	}
	return ReportErrs(errs)
}

// WriteToFile stores the ExpCfg struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (cfg *ExpCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*cfg)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*cfg, "", "\t")
	} else {
		return newSimError(ErrInvalidArgument, "unrecognized extension on %s", filename)
	}

	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// ReadExpCfg deserializes a byte slice holding a representation of an ExpCfg struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  A deserialized representation is returned, or an error if one is generated
// from a file read or the deserialization.
func ReadExpCfg(filename string, useYAML bool, dict []byte) (*ExpCfg, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := ExpCfg{}
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

// IsYAMLFile reports whether the file name carries a yaml extension
func IsYAMLFile(filename string) bool {
	pathExt := path.Ext(filename)
	return pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"
}
