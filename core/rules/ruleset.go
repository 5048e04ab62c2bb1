package rules

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/medrota/rosterd/core/model"
)

// Rule identifiers used in violations and weight lookups.
const (
	RuleNoDoubleShift = "noDoubleShiftPerDay"
	RuleConsecutive   = "consecutiveDays"
	RuleMinRest       = "minRestHours"
	RuleMaxWeekly     = "maxWeeklyHours"
	RuleMaxDaily      = "maxDailyHours"
	RuleLeave         = "leaveRules"
	RuleCoverage      = "coverage"
	RuleEligibility   = "personnelRules"
)

// NightFollowUpMin24Hours enforces a 24 hour rest after night-coded shifts,
// overriding the generic MinRestHours bound.
const NightFollowUpMin24Hours = "min24hours"

// Leave policies. Hard blocks assignment, soft only flags it.
const (
	LeavePolicyHard = "hard"
	LeavePolicySoft = "soft"
)

// BasicRules holds the numeric and boolean caps of a rule set. Zero values
// disable the corresponding check, except MaxConsecutiveDays which must be at
// least one when set.
type BasicRules struct {
	MaxConsecutiveDays  int     `json:"max_consecutive_days"`
	MinRestHours        float64 `json:"min_rest_hours"`
	MaxWeeklyHours      float64 `json:"max_weekly_hours"`
	MaxDailyHours       float64 `json:"max_daily_hours"`
	NoDoubleShiftPerDay bool    `json:"no_double_shift_per_day"`
	NightShiftFollowUp  string  `json:"night_shift_follow_up,omitempty"`
}

// Validate enforces the rule set invariants: bounds are never negative and
// the consecutive-day cap is at least one.
func (b BasicRules) Validate() error {
	if b.MaxConsecutiveDays < 1 {
		return model.ValidationError{Field: "maxConsecutiveDays", Reason: "must be at least 1"}
	}
	if b.MinRestHours < 0 {
		return model.ValidationError{Field: "minRestHours", Reason: "must not be negative"}
	}
	if b.MaxWeeklyHours < 0 {
		return model.ValidationError{Field: "maxWeeklyHours", Reason: "must not be negative"}
	}
	if b.MaxDailyHours < 0 {
		return model.ValidationError{Field: "maxDailyHours", Reason: "must not be negative"}
	}
	if b.NightShiftFollowUp != "" && b.NightShiftFollowUp != NightFollowUpMin24Hours {
		return model.ValidationError{Field: "nightShiftFollowUp", Reason: fmt.Sprintf("unknown mode %q", b.NightShiftFollowUp)}
	}
	return nil
}

// LeaveRules configures how approved leave interacts with assignment.
type LeaveRules struct {
	// Policy is the default leave policy for runs that do not override it.
	Policy string `json:"policy,omitempty"`
}

// CoverageRule overrides the minimum headcount of a row for every day.
type CoverageRule struct {
	RowID     string `json:"row_id"`
	MinPerDay int    `json:"min_per_day"`
}

// TaskRequirement raises the minimum headcount of a row on a specific day.
// Day zero applies the requirement to every day of the month.
type TaskRequirement struct {
	RowID     string `json:"row_id"`
	Day       int    `json:"day,omitempty"`
	MinPerDay int    `json:"min_per_day"`
}

// PersonnelRules restricts which people may serve a row, by role and by
// required capabilities. Rows absent from both maps accept anyone.
type PersonnelRules struct {
	AllowedRoles         map[string][]string `json:"allowed_roles,omitempty"`
	RequiredCapabilities map[string][]string `json:"required_capabilities,omitempty"`
}

// Eligible reports whether the person may serve the given row.
func (p PersonnelRules) Eligible(person model.Person, rowID string) bool {
	if roles, ok := p.AllowedRoles[rowID]; ok && len(roles) > 0 {
		found := false
		for _, r := range roles {
			if r == person.Role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, c := range p.RequiredCapabilities[rowID] {
		if !person.Can(c) {
			return false
		}
	}
	return true
}

// HolidayPolicy decides how holidays scale required coverage. Half and arife
// days scale headcount by HalfDayFactor; full days drop coverage entirely
// when ExemptFullDays is set.
type HolidayPolicy struct {
	ExemptFullDays bool    `json:"exempt_full_days"`
	HalfDayFactor  float64 `json:"half_day_factor,omitempty"`
}

func (p HolidayPolicy) factor() float64 {
	if p.HalfDayFactor <= 0 || p.HalfDayFactor > 1 {
		return 0.5
	}
	return p.HalfDayFactor
}

// RuleSet bundles every scheduling rule for one scope. It is a plain value:
// solvers receive a snapshot per invocation and never share mutable rule
// state. Unknown rule keys coming from older or newer documents are preserved
// in Extensions so round-tripping through the rule store is lossless.
type RuleSet struct {
	Scope      model.Scope                `json:"scope"`
	Version    int                        `json:"version"`
	Basic      BasicRules                 `json:"basic_rules"`
	Leave      LeaveRules                 `json:"leave_rules"`
	Shift      []CoverageRule             `json:"shift_rules,omitempty"`
	Tasks      []TaskRequirement          `json:"task_requirements,omitempty"`
	Personnel  PersonnelRules             `json:"personnel_rules"`
	Holiday    HolidayPolicy              `json:"holiday_policy"`
	Weights    map[string]float64         `json:"weights,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

// Default returns a rule set with conservative hospital defaults.
func Default(scope model.Scope) RuleSet {
	return RuleSet{
		Scope: scope,
		Basic: BasicRules{
			MaxConsecutiveDays:  6,
			MinRestHours:        11,
			MaxWeeklyHours:      56,
			MaxDailyHours:       24,
			NoDoubleShiftPerDay: true,
		},
		Leave:   LeaveRules{Policy: LeavePolicyHard},
		Holiday: HolidayPolicy{HalfDayFactor: 0.5},
	}
}

// Validate checks the rule set at the store boundary so the solver hot path
// can trust its invariants.
func (rs RuleSet) Validate() error {
	if err := rs.Basic.Validate(); err != nil {
		return err
	}
	if p := rs.Leave.Policy; p != "" && p != LeavePolicyHard && p != LeavePolicySoft {
		return model.ValidationError{Field: "leavePolicy", Reason: fmt.Sprintf("unknown policy %q", p)}
	}
	for _, c := range rs.Shift {
		if c.RowID == "" {
			return model.ValidationError{Field: "shiftRules.rowId", Reason: "missing"}
		}
		if c.MinPerDay < 0 {
			return model.ValidationError{Field: "shiftRules.minPerDay", Reason: "must not be negative"}
		}
	}
	for _, t := range rs.Tasks {
		if t.RowID == "" {
			return model.ValidationError{Field: "taskRequirements.rowId", Reason: "missing"}
		}
		if t.Day < 0 {
			return model.ValidationError{Field: "taskRequirements.day", Reason: "must not be negative"}
		}
		if t.MinPerDay < 0 {
			return model.ValidationError{Field: "taskRequirements.minPerDay", Reason: "must not be negative"}
		}
	}
	for id, w := range rs.Weights {
		if w < 0 {
			return model.ValidationError{Field: "weights." + id, Reason: "must not be negative"}
		}
	}
	return nil
}

// Clone returns a deep copy, used for the applied-rules audit snapshot and
// for copy-on-read isolation of in-flight solves.
func (rs RuleSet) Clone() RuleSet {
	cp := rs
	cp.Shift = append([]CoverageRule(nil), rs.Shift...)
	cp.Tasks = append([]TaskRequirement(nil), rs.Tasks...)
	if rs.Weights != nil {
		cp.Weights = make(map[string]float64, len(rs.Weights))
		for k, v := range rs.Weights {
			cp.Weights[k] = v
		}
	}
	if rs.Personnel.AllowedRoles != nil {
		cp.Personnel.AllowedRoles = make(map[string][]string, len(rs.Personnel.AllowedRoles))
		for k, v := range rs.Personnel.AllowedRoles {
			cp.Personnel.AllowedRoles[k] = append([]string(nil), v...)
		}
	}
	if rs.Personnel.RequiredCapabilities != nil {
		cp.Personnel.RequiredCapabilities = make(map[string][]string, len(rs.Personnel.RequiredCapabilities))
		for k, v := range rs.Personnel.RequiredCapabilities {
			cp.Personnel.RequiredCapabilities[k] = append([]string(nil), v...)
		}
	}
	if rs.Extensions != nil {
		cp.Extensions = make(map[string]json.RawMessage, len(rs.Extensions))
		for k, v := range rs.Extensions {
			cp.Extensions[k] = append(json.RawMessage(nil), v...)
		}
	}
	return cp
}

// Weight returns the score weight for a rule. Rules without an explicit
// weight count as one.
func (rs RuleSet) Weight(ruleID string) float64 {
	if w, ok := rs.Weights[ruleID]; ok {
		return w
	}
	return 1
}

// RequiredFor returns the plain (pre-holiday) headcount requirement for a row
// on a given day: the row's own minimum, raised by shift rules and by task
// requirements matching the day.
func (rs RuleSet) RequiredFor(row model.ShiftRow, day int) int {
	required := row.MinHeadcount
	for _, c := range rs.Shift {
		if c.RowID == row.ID && c.MinPerDay > required {
			required = c.MinPerDay
		}
	}
	for _, t := range rs.Tasks {
		if t.RowID != row.ID {
			continue
		}
		if t.Day != 0 && t.Day != day {
			continue
		}
		if t.MinPerDay > required {
			required = t.MinPerDay
		}
	}
	return required
}

// EffectiveRequired applies the holiday policy on top of RequiredFor.
func (rs RuleSet) EffectiveRequired(row model.ShiftRow, day int, kind model.HolidayKind, isHoliday bool) int {
	required := rs.RequiredFor(row, day)
	if !isHoliday || required == 0 {
		return required
	}
	switch kind {
	case model.HolidayFull:
		if rs.Holiday.ExemptFullDays {
			return 0
		}
		return required
	case model.HolidayHalf, model.HolidayArife:
		return int(math.Ceil(float64(required) * rs.Holiday.factor()))
	default:
		return required
	}
}
