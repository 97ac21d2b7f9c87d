package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/iti/dtnsim"
)

// RunResult is the payload of the run command.
type RunResult struct {
	Report  *dtnsim.Report     `json:"report"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <experiment>",
		Short: "Run the experiment described by a yaml or json file",
		Long: `Run a simulation experiment.

The experiment file names the contact plan, the router (cgr or scgr), the
duration and the packet generators. Relative file names inside it are taken
relative to the experiment file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExperiment(opts *RootOptions, expFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cfg, err := dtnsim.ReadExpCfg(expFile, dtnsim.IsYAMLFile(expFile), nil)
	if err != nil {
		return fmt.Errorf("reading experiment %s: %w", expFile, err)
	}
	// --verbose outranks the experiment's own loglevel
	if opts.Verbose {
		cfg.LogLevel = ""
	}

	reg := prometheus.NewRegistry()
	logger := newLogger(opts, cmd.ErrOrStderr())
	exp, err := dtnsim.BuildExperiment(cfg, filepath.Dir(expFile), reg, logger)
	if err != nil {
		return err
	}
	report, err := exp.Run()
	if err != nil {
		return err
	}

	result := &RunResult{Report: report}
	if exp.Metrics != nil {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		result.Metrics = metricValues(families)
	}

	return formatter.Success(result, func(w io.Writer) {
		writeReport(w, result)
	})
}

// metricValues flattens counters and gauges into name -> value; histograms
// contribute their sample count and sum
func metricValues(families []*dto.MetricFamily) map[string]float64 {
	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				values[mf.GetName()] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				values[mf.GetName()] = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				values[mf.GetName()+"_count"] = float64(m.GetHistogram().GetSampleCount())
				values[mf.GetName()+"_sum"] = m.GetHistogram().GetSampleSum()
			}
		}
	}
	return values
}

func writeReport(w io.Writer, result *RunResult) {
	rep := result.Report
	fmt.Fprintf(w, "experiment %s (%s), run %s\n", rep.Name, rep.Router, rep.RunID)
	fmt.Fprintf(w, "  duration      %g ms\n", rep.Duration)
	fmt.Fprintf(w, "  injected      %d\n", rep.Summary.Injected)
	fmt.Fprintf(w, "  delivered     %d (%.1f%%)\n", rep.Summary.Delivered, 100*rep.Summary.DeliveryRatio)
	fmt.Fprintf(w, "  mean delay    %.3f ms (sd %.3f, p95 %.3f)\n", rep.Summary.MeanDelay,
		rep.Summary.StdDevDelay, rep.Summary.P95Delay)
	fmt.Fprintf(w, "  mean hops     %.2f\n", rep.Summary.MeanHops)
	fmt.Fprintf(w, "  no route      %d\n", rep.Summary.NoRouteEvents)
	fmt.Fprintf(w, "  in limbo      %d\n", rep.Stats.InLimbo)
	fmt.Fprintf(w, "  in contacts   %d\n", rep.Stats.InContacts)
	fmt.Fprintf(w, "  utilization   %.2f%%\n", rep.Stats.Utilization)

	if len(result.Metrics) == 0 {
		return
	}
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "metrics")
	for _, name := range names {
		fmt.Fprintf(w, "  %-36s %g\n", name, result.Metrics[name])
	}
}
