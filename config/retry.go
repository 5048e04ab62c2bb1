package config

import (
	"time"

	"github.com/medrota/rosterd/core/solver"
)

// RetryConfig defines upstream call retry behavior.
type RetryConfig struct {
	// Attempts is the number of tries per upstream call.
	Attempts int `json:"attempts"`
	// BackoffMS is the base delay between attempts in milliseconds.
	BackoffMS int `json:"backoff_ms"`
	// TimeoutMS bounds each attempt in milliseconds.
	TimeoutMS int `json:"timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *RetryConfig) SetDefaults() {
	if c.Attempts == 0 {
		c.Attempts = 3
	}
	if c.BackoffMS == 0 {
		c.BackoffMS = 200
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 5000
	}
}

// Solver converts the section to the solver retry settings.
func (c RetryConfig) Solver() solver.RetryConfig {
	return solver.RetryConfig{
		Attempts: c.Attempts,
		Backoff:  time.Duration(c.BackoffMS) * time.Millisecond,
		Timeout:  time.Duration(c.TimeoutMS) * time.Millisecond,
	}
}
