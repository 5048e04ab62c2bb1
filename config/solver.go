package config

import (
	"fmt"

	"github.com/medrota/rosterd/core/optimize"
	"github.com/medrota/rosterd/core/rules"
)

// SolverConfig defines tuning knobs for the scheduling engine.
type SolverConfig struct {
	// MaxIterations bounds the optimizer search loop.
	MaxIterations int `json:"max_iterations"`
	// LeavePolicy selects how approved leave conflicts are scored: "hard" or "soft".
	LeavePolicy string `json:"leave_policy"`
	// RequireEligibility rejects assignments for roles or capabilities a person lacks.
	RequireEligibility bool `json:"require_eligibility"`
	// TargetHours biases optimization toward this monthly hour load per person.
	TargetHours float64 `json:"target_hours"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = optimize.DefaultMaxIterations
	}
	if c.LeavePolicy == "" {
		c.LeavePolicy = rules.LeavePolicyHard
	}
}

// Validate checks mandatory fields.
func (c SolverConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.LeavePolicy != rules.LeavePolicyHard && c.LeavePolicy != rules.LeavePolicySoft {
		return fmt.Errorf("unknown leave policy %s", c.LeavePolicy)
	}
	if c.TargetHours < 0 {
		return fmt.Errorf("target_hours must not be negative")
	}
	return nil
}
