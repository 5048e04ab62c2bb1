package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/medrota/rosterd/core/metrics"
	"github.com/medrota/rosterd/core/model"
)

func TestInfluxSinkRecordSolve(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	rec := coremetrics.SolveRecord{
		RunID:          "run-1",
		Scope:          model.Scope{SectionID: "icu", ServiceID: "surgery", Role: "nurse"},
		Year:           2026,
		Month:          time.March,
		Stage:          coremetrics.StageOptimize,
		Score:          1.5,
		SeedScore:      3,
		Violations:     2,
		HardViolations: 1,
		Assignments:    62,
		Iterations:     40,
		Feasible:       true,
		Duration:       150 * time.Millisecond,
		Time:           now,
	}
	require.NoError(t, sink.RecordSolve(rec))

	expected := write.NewPointWithMeasurement("roster_solve").
		AddTag("scope", "icu/surgery/nurse").
		AddTag("stage", "optimize").
		AddTag("run_id", "run-1").
		AddTag("feasible", "true").
		AddTag("component", "solver_manager").
		AddField("year", 2026).
		AddField("month", 3).
		AddField("score", 1.5).
		AddField("seed_score", 3.0).
		AddField("violations", 2).
		AddField("hard_violations", 1).
		AddField("assignments", 62).
		AddField("iterations", 40).
		AddField("cancelled", false).
		AddField("duration_ms", 150.0).
		SetTime(now)
	assert.Equal(t,
		strings.TrimSpace(write.PointToLineProtocol(expected, time.Nanosecond)),
		strings.TrimSpace(body))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	var healthChecked bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			healthChecked = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "token", "org", "bucket")

	assert.True(t, healthChecked)
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatal("expected fallback sink when the health check fails")
	}
	assert.IsType(t, coremetrics.NopSink{}, sink)
}

func TestNewInfluxSinkWithFallbackHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"influxdb","status":"pass"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")

	influx, ok := sink.(*InfluxSink)
	require.True(t, ok, "expected the real sink when the instance is healthy")
	influx.Close()
}
