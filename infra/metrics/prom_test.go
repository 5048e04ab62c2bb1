package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/medrota/rosterd/core/metrics"
	"github.com/medrota/rosterd/core/model"
)

func TestPromSinkRecordSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	built, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	sink, ok := built.(*PromSink)
	require.True(t, ok)

	scope := model.Scope{SectionID: "icu", ServiceID: "surgery", Role: "nurse"}
	require.NoError(t, sink.RecordSolve(coremetrics.SolveRecord{
		Scope:          scope,
		Stage:          coremetrics.StageOptimize,
		Score:          2.5,
		Violations:     3,
		HardViolations: 1,
		Feasible:       true,
		Duration:       2 * time.Second,
	}))

	expected := `
# HELP roster_sink_solves_total Total number of recorded solve stages
# TYPE roster_sink_solves_total counter
roster_sink_solves_total{feasible="true",scope="icu/surgery/nurse",stage="optimize"} 1
`
	require.NoError(t, testutil.CollectAndCompare(sink.solves, strings.NewReader(expected)))

	key := scope.Key()
	assert.Equal(t, 2.5, testutil.ToFloat64(sink.score.WithLabelValues(key, "optimize")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.violations.WithLabelValues(key, "optimize", "hard")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.violations.WithLabelValues(key, "optimize", "soft")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.duration))
}

func TestPromSinkRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	// A second registration reuses the existing collectors instead of failing.
	again, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	assert.NotNil(t, again)
}
