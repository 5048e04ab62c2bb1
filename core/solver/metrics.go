package solver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	solvesTotal     *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	residualGauge   prometheus.Gauge
	upstreamRetries *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Gauge, *prometheus.CounterVec) {
	solves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_solves_total",
			Help: "Number of solve stages executed",
		},
		[]string{"stage"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roster_solve_duration_seconds",
			Help:    "Wall time per solve stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	residual := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roster_residual_violations",
			Help: "Residual violations of the most recent optimization",
		},
	)
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_upstream_retries_total",
			Help: "Retries against external collaborators",
		},
		[]string{"upstream"},
	)
	return solves, dur, residual, retries
}

func init() {
	solvesTotal, solveDuration, residualGauge, upstreamRetries = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers solver metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used. Registering twice on
// the same registry reuses the existing collectors.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{solvesTotal, solveDuration, residualGauge, upstreamRetries} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
