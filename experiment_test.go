package dtnsim

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadExperiment(t *testing.T) *ExpCfg {
	t.Helper()
	cfg, err := ReadExpCfg(filepath.Join("testdata", "experiment.yaml"), true, nil)
	require.NoError(t, err)
	return cfg
}

func TestExperimentRun(t *testing.T) {
	cfg := loadExperiment(t)
	exp, err := BuildExperiment(cfg, "testdata", prometheus.NewRegistry(), quietLogger())
	require.NoError(t, err)
	require.NotNil(t, exp.Metrics)
	assert.Equal(t, ExperimentRunID(cfg), exp.RunID)

	report, err := exp.Run()
	require.NoError(t, err)
	assert.Equal(t, "ring-batch", report.Name)
	assert.Equal(t, "scgr", report.Router)
	assert.Equal(t, 200.0, report.Duration)
	assert.Equal(t, 4, report.Summary.Injected)
	assert.Equal(t, 4, report.Summary.Delivered)
	assert.Equal(t, 1.0, report.Summary.DeliveryRatio)
	assert.Equal(t, 4, report.Stats.Generated)
	assert.Zero(t, report.Stats.InLimbo)
	assert.Len(t, report.Utilization, 12)
}

func TestExperimentRunIDIsStable(t *testing.T) {
	cfg := loadExperiment(t)
	id := ExperimentRunID(cfg)
	assert.Equal(t, id, ExperimentRunID(loadExperiment(t)))
	cfg.Router = "cgr"
	assert.NotEqual(t, id, ExperimentRunID(cfg))
}

func TestExperimentWritesTrace(t *testing.T) {
	cfg := loadExperiment(t)
	cfg.Metrics = false
	cfg.TraceFile = filepath.Join(t.TempDir(), "trace.yaml")
	exp, err := BuildExperiment(cfg, "testdata", nil, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, exp.Metrics)

	_, err = exp.Run()
	require.NoError(t, err)
	assert.FileExists(t, cfg.TraceFile)
	assert.Equal(t, exp.RunID, exp.Trace.RunID)
	assert.Positive(t, exp.Trace.Records())
}

func TestBuildExperimentErrors(t *testing.T) {
	bad, err := ReadExpCfg(filepath.Join("testdata", "bad-experiment.yaml"), true, nil)
	require.NoError(t, err)
	_, err = BuildExperiment(bad, "testdata", nil, quietLogger())
	assert.Error(t, err)

	cfg := loadExperiment(t)
	cfg.Generators[0].Targets = []string{"node9"}
	_, err = BuildExperiment(cfg, "testdata", prometheus.NewRegistry(), quietLogger())
	assert.ErrorContains(t, err, "references node")

	cfg = loadExperiment(t)
	cfg.PlanFile = "missing.yaml"
	_, err = BuildExperiment(cfg, "testdata", prometheus.NewRegistry(), quietLogger())
	assert.Error(t, err)
}

func TestCreateGeneratorNames(t *testing.T) {
	gd := GeneratorDesc{Kind: "continuous", Rate: 10, Size: 100}
	assert.Equal(t, "continuous-3", createGenerator(gd, 3).Name())
	gd.Name = "steady"
	assert.IsType(t, &ContinuousGenerator{}, createGenerator(gd, 0))
	assert.IsType(t, &PoissonGenerator{}, createGenerator(GeneratorDesc{Kind: "poisson", MeanGap: 1}, 0))
	assert.IsType(t, &BatchGenerator{}, createGenerator(GeneratorDesc{Kind: "batch"}, 0))
}
