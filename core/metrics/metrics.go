// Package metrics defines the observability contract of the scheduling
// engine. Sinks live under infra; the core only emits records.
package metrics

import (
	"time"

	"github.com/medrota/rosterd/core/model"
)

// Solve stages reported to sinks.
const (
	StageDraft    = "draft"
	StageOptimize = "optimize"
	StageEvaluate = "evaluate"
)

// SolveRecord captures one solve stage outcome.
type SolveRecord struct {
	RunID          string
	Scope          model.Scope
	Year           int
	Month          time.Month
	Stage          string
	Score          float64
	SeedScore      float64
	Violations     int
	HardViolations int
	Assignments    int
	Iterations     int
	Feasible       bool
	Cancelled      bool
	Duration       time.Duration
	Time           time.Time
}

// Sink records solve outcomes for observability purposes.
type Sink interface {
	RecordSolve(rec SolveRecord) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordSolve(SolveRecord) error { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
