package metrics

import (
	"strconv"

	coremetrics "github.com/medrota/rosterd/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solve outcomes in Prometheus metrics.
type PromSink struct {
	solves     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	score      *prometheus.GaugeVec
	violations *prometheus.GaugeVec
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_sink_solves_total",
		Help: "Total number of recorded solve stages",
	}, []string{"scope", "stage", "feasible"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "roster_sink_solve_duration_seconds",
		Help:    "Wall-clock duration of a solve stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope", "stage"})
	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roster_sink_score",
		Help: "Weighted violation score of the latest solve per scope and stage",
	}, []string{"scope", "stage"})
	violations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "roster_sink_violations",
		Help: "Violation count of the latest solve per scope, stage and severity",
	}, []string{"scope", "stage", "severity"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(score); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			score = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(violations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			violations = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{solves: solves, duration: duration, score: score, violations: violations}, nil
}

// RecordSolve updates the counters and gauges for one solve stage.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	scope := rec.Scope.Key()
	s.solves.WithLabelValues(scope, rec.Stage, strconv.FormatBool(rec.Feasible)).Inc()
	s.duration.WithLabelValues(scope, rec.Stage).Observe(rec.Duration.Seconds())
	s.score.WithLabelValues(scope, rec.Stage).Set(rec.Score)
	s.violations.WithLabelValues(scope, rec.Stage, "hard").Set(float64(rec.HardViolations))
	s.violations.WithLabelValues(scope, rec.Stage, "soft").Set(float64(rec.Violations - rec.HardViolations))
	return nil
}
