package explore

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rix0rrr/cdk-reflect/core"
	"github.com/rix0rrr/cdk-reflect/corpus"
	"github.com/rix0rrr/cdk-reflect/eval/memhost"
	"github.com/rix0rrr/cdk-reflect/extract"
	"github.com/rix0rrr/cdk-reflect/model"
	"github.com/rix0rrr/cdk-reflect/pkg/logging"
	"github.com/rix0rrr/cdk-reflect/pkg/metrics"
	"github.com/rix0rrr/cdk-reflect/testkit"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	log, err := logging.NewLogger(logging.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func testMetrics() *metrics.PrometheusMetrics {
	return metrics.NewPrometheusMetrics(prometheus.NewRegistry())
}

func stackModel(t *testing.T) *model.Registry {
	t.Helper()
	m, err := extract.ExtractDistributions(testkit.StackRegistry())
	require.NoError(t, err)
	return m
}

func TestExploreWithoutEvaluation(t *testing.T) {
	m := stackModel(t)
	e := New(m, nil, nil, testLogger(t), testMetrics(), nil)

	report, err := e.Explore(context.Background(), "m.Stack", Options{
		Seed: 1, Variants: 2, Rounds: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rounds)
	assert.Zero(t, report.Evaluated)
	require.NotNil(t, report.Final)
	stack, ok := report.Final.(*core.ClassInstantiation)
	require.True(t, ok)
	assert.Equal(t, "m.Stack", stack.FQN)
}

func TestExploreDeterministicForSeed(t *testing.T) {
	m := stackModel(t)

	run := func() core.Value {
		e := New(m, nil, nil, testLogger(t), testMetrics(), nil)
		report, err := e.Explore(context.Background(), "m.Stack", Options{
			Seed: 42, Variants: 2, Rounds: 4,
		})
		require.NoError(t, err)
		return report.Final
	}

	assert.True(t, core.Equal(run(), run()))
}

func TestExploreEvaluatesAndAdvances(t *testing.T) {
	m := stackModel(t)
	e := New(m, testkit.StackHost(), nil, testLogger(t), testMetrics(), nil)

	report, err := e.Explore(context.Background(), "m.Stack", Options{
		Seed: 1, Variants: 1, Rounds: 3, Evaluate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Evaluated)
	assert.Equal(t, 3, report.Successes)
	assert.Empty(t, report.FailureHistogram)

	// The session advanced through accepted candidates: the final id is a
	// later construct id than the minimal one.
	final := report.Final.(*core.ClassInstantiation)
	id := final.Arguments[1].(*core.PrimitiveValue)
	assert.NotEqual(t, "MyConstruct1", id.Str)
}

func TestExploreNeverAdvancesThroughFailures(t *testing.T) {
	m := stackModel(t)

	// A host that only accepts the very first construct id rejects every
	// mutated candidate.
	host := memhost.New(nil)
	host.AddCallable("m.App", func([]any) (any, error) { return "app", nil })
	host.AddCallable("m.Stack", func(args []any) (any, error) {
		if id, _ := args[1].(string); id != "MyConstruct1" {
			return nil, fmt.Errorf("unexpected id %v", args[1])
		}
		return "stack", nil
	})

	e := New(m, host, nil, testLogger(t), testMetrics(), nil)
	report, err := e.Explore(context.Background(), "m.Stack", Options{
		Seed: 1, Variants: 1, Rounds: 3, Evaluate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Evaluated)
	assert.Zero(t, report.Successes)
	assert.Equal(t, 3, report.FailureHistogram["host-rejected"])

	// The current value stayed at the minimal one.
	final := report.Final.(*core.ClassInstantiation)
	assert.Equal(t, "MyConstruct1", final.Arguments[1].(*core.PrimitiveValue).Str)
}

func TestExploreWritesCorpus(t *testing.T) {
	m := stackModel(t)
	store, err := corpus.NewStore(t.TempDir())
	require.NoError(t, err)

	e := New(m, testkit.StackHost(), store, testLogger(t), testMetrics(), nil)
	report, err := e.Explore(context.Background(), "m.Stack", Options{
		Seed: 1, Variants: 1, Rounds: 2, Evaluate: true,
	})
	require.NoError(t, err)
	require.Equal(t, 2, report.Successes)

	paths, err := store.List()
	require.NoError(t, err)
	// Minimal value plus one accepted candidate per round, minus dedup.
	assert.NotEmpty(t, paths)
	assert.GreaterOrEqual(t, len(paths), 2)

	for _, p := range paths {
		v, err := corpus.Load(p)
		require.NoError(t, err)
		require.NotNil(t, v)
	}
}

func TestExploreCallbacksFire(t *testing.T) {
	m := stackModel(t)
	e := New(m, nil, nil, testLogger(t), testMetrics(), nil)

	var candidates, rounds int
	_, err := e.Explore(context.Background(), "m.Stack", Options{
		Seed: 1, Variants: 1, Rounds: 2,
		OnCandidate: func(core.Value, any, error) { candidates++ },
		OnRound:     func(int, int, int) { rounds++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rounds)
	assert.Equal(t, 2, candidates)
}

func TestExploreUnknownFqn(t *testing.T) {
	m := stackModel(t)
	e := New(m, nil, nil, testLogger(t), testMetrics(), nil)
	_, err := e.Explore(context.Background(), "m.Missing", Options{Seed: 1})
	assert.ErrorIs(t, err, core.ErrModelNotFound)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Equal(t, 1, cfg.Variants)
	assert.Equal(t, "info", cfg.LogLevel)
}
