package dtnsim

// experiment.go assembles a complete run from an experiment configuration: the plan,
// the simulator, the generators and the monitors that observe it

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Experiment is a configured, ready to run simulation
type Experiment struct {
	Cfg      *ExpCfg
	Sim      *Simulator
	Delivery *DeliveryMonitor
	Metrics  *MetricsMonitor
	Trace    *TraceManager
	RunID    string

	traceFile string
}

// Report summarizes a finished experiment
type Report struct {
	RunID       string    `json:"runid" yaml:"runid"`
	Name        string    `json:"name" yaml:"name"`
	Router      string    `json:"router" yaml:"router"`
	Duration    float64   `json:"duration" yaml:"duration"`
	Stats       Stats     `json:"stats" yaml:"stats"`
	Summary     Summary   `json:"summary" yaml:"summary"`
	Utilization []float64 `json:"utilization" yaml:"utilization"`
}

// ExperimentRunID derives the run id from the experiment's identifying fields, so the
// same experiment always reports under the same id
func ExperimentRunID(cfg *ExpCfg) string {
	key := cfg.Name + "|" + cfg.Router + "|" + cfg.PlanFile
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// BuildExperiment validates cfg, loads its plan (relative to baseDir), and wires the
// simulator, generators and monitors. Metrics are registered with reg when the
// configuration asks for them.
func BuildExperiment(cfg *ExpCfg, baseDir string, reg prometheus.Registerer, logger *logrus.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.LogLevel != "" {
		level, _ := logrus.ParseLevel(cfg.LogLevel)
		logger.SetLevel(level)
	}

	planFile := cfg.PlanFile
	if !filepath.IsAbs(planFile) {
		planFile = filepath.Join(baseDir, planFile)
	}
	plan, err := LoadContactPlan(planFile, nil, cfg.Duration, cfg.DefaultDatarate, cfg.DefaultDelay)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateAgainstPlan(plan); err != nil {
		return nil, err
	}

	router, _ := CreateRouter(cfg.Router)
	order, _ := NodeOrderByName(cfg.NodeOrder)

	exp := new(Experiment)
	exp.Cfg = cfg
	exp.RunID = ExperimentRunID(cfg)
	exp.Sim = CreateSimulator(cfg.Name, logger)
	exp.Sim.log = exp.Sim.log.WithField("run", exp.RunID)
	if err := exp.Sim.LoadPlan(plan, router, order); err != nil {
		return nil, err
	}
	exp.Sim.SetProgressSteps(cfg.ProgressSteps)
	exp.Sim.SetPruneExpired(cfg.PruneExpired)

	exp.Delivery = CreateDeliveryMonitor()
	exp.Sim.RegisterMonitor(exp.Delivery)

	if cfg.Metrics {
		exp.Metrics, err = NewMetricsMonitor(reg)
		if err != nil {
			return nil, err
		}
		exp.Sim.RegisterMonitor(exp.Metrics)
	}

	exp.Trace = CreateTraceManager(cfg.Name, cfg.TraceFile != "")
	exp.Trace.RunID = exp.RunID
	if exp.Trace.Active() {
		exp.Sim.RegisterMonitor(CreateTraceMonitor(exp.Trace, plan.Nodes))
		exp.traceFile = cfg.TraceFile
		if !filepath.IsAbs(exp.traceFile) {
			exp.traceFile = filepath.Join(baseDir, exp.traceFile)
		}
	}

	for idx, gd := range cfg.Generators {
		for _, src := range gd.Sources {
			for _, dst := range gd.Targets {
				if src == dst {
					continue
				}
				if _, reachable := plan.StaticHopDistance(src, dst); !reachable {
					exp.Sim.log.Warnf("generator %s: %s can never reach %s", gd.Name, src, dst)
				}
			}
		}
		exp.Sim.RegisterGenerator(createGenerator(gd, idx))
	}
	return exp, nil
}

func createGenerator(gd GeneratorDesc, idx int) PacketGenerator {
	name := gd.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", gd.Kind, idx)
	}
	tmpl := PacketTemplate{Size: gd.Size, TTL: gd.TTL, Critical: gd.Critical, ReturnToSender: gd.ReturnToSender}
	switch gd.Kind {
	case "batch":
		return CreateBatchGenerator(name, tmpl, gd.Count, gd.Sources, gd.Targets, gd.Times)
	case "continuous":
		return CreateContinuousGenerator(name, tmpl, gd.Rate, gd.Sources, gd.Targets, gd.Start, gd.End)
	default:
		return CreatePoissonGenerator(name, tmpl, gd.MeanGap, gd.Sources, gd.Targets, gd.Start, gd.End)
	}
}

// Run executes the experiment for its configured duration, writes the trace if one
// was requested, and reports the outcome
func (exp *Experiment) Run() (*Report, error) {
	if err := exp.Sim.Run(exp.Cfg.Duration); err != nil {
		return nil, err
	}
	if exp.Trace.Active() {
		if err := exp.Trace.WriteToFile(exp.traceFile, true); err != nil {
			return nil, err
		}
	}
	return exp.Report(), nil
}

// Report describes the state of the experiment now
func (exp *Experiment) Report() *Report {
	return &Report{
		RunID:       exp.RunID,
		Name:        exp.Cfg.Name,
		Router:      exp.Sim.Router.Name(),
		Duration:    exp.Cfg.Duration,
		Stats:       exp.Sim.Stats(),
		Summary:     exp.Delivery.Summary(),
		Utilization: exp.Sim.UtilizationList(true),
	}
}
