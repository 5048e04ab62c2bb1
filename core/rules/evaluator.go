package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/medrota/rosterd/core/model"
)

// Input carries everything Evaluate needs. All fields are read-only
// snapshots; Evaluate never mutates them.
type Input struct {
	Rules    RuleSet
	Schedule model.Schedule
	Calendar model.Calendar
	Staff    []model.Person
	Rows     []model.ShiftRow
	// Leaves maps person IDs to approved leave dates.
	Leaves map[string][]time.Time
	// LeavePolicy overrides the rule set's default policy for this run.
	LeavePolicy        string
	RequireEligibility bool
}

// Report is the evaluation outcome: ordered violations, per-rule counts and
// the weighted scalar score.
type Report struct {
	Violations []model.Violation  `json:"violations"`
	Score      float64            `json:"score"`
	Counts     map[string]int     `json:"counts"`
	Weights    map[string]float64 `json:"weights"`
}

// Feasible reports whether the evaluated schedule satisfies every hard rule.
func (r Report) Feasible() bool { return !model.HasHard(r.Violations) }

// categoryRank fixes the reporting order of rule families. Violations are
// sorted by this rank first so test assertions are reproducible.
var categoryRank = map[string]int{
	RuleNoDoubleShift: 0,
	RuleConsecutive:   1,
	RuleMinRest:       2,
	RuleMaxWeekly:     3,
	RuleMaxDaily:      4,
	RuleLeave:         5,
	RuleCoverage:      6,
	RuleEligibility:   7,
}

// span is one assignment anchored to absolute time.
type span struct {
	asn   model.Assignment
	start time.Time
	end   time.Time
	hours float64
	night bool
}

type evaluation struct {
	in       Input
	days     int
	rowsByID map[string]model.ShiftRow
	// perPerson holds each person's spans ordered chronologically.
	perPerson map[string][]span
	personIDs []string
	// hoursByDay holds per-person shift hours indexed by day (1-based).
	hoursByDay map[string][]float64
	leaveDays  map[string]map[int]bool
	out        []model.Violation
}

// Evaluate scores a candidate schedule against a rule set and calendar
// snapshot. It is a pure function: identical inputs always produce identical
// violations and score, which is what makes standalone rule testing
// trustworthy.
func Evaluate(in Input) Report {
	e := &evaluation{
		in:         in,
		days:       model.DaysIn(in.Schedule.Year, in.Schedule.Month),
		rowsByID:   make(map[string]model.ShiftRow, len(in.Rows)),
		perPerson:  make(map[string][]span),
		hoursByDay: make(map[string][]float64),
		leaveDays:  make(map[string]map[int]bool),
	}
	for _, r := range in.Rows {
		e.rowsByID[r.ID] = r
	}
	e.index()

	e.checkDoubleShift()
	e.checkConsecutiveDays()
	e.checkRestHours()
	e.checkWeeklyHours()
	e.checkDailyHours()
	e.checkLeaves()
	e.checkCoverage()
	e.checkEligibility()

	sort.SliceStable(e.out, func(i, j int) bool {
		a, b := e.out[i], e.out[j]
		if categoryRank[a.RuleID] != categoryRank[b.RuleID] {
			return categoryRank[a.RuleID] < categoryRank[b.RuleID]
		}
		if a.FromDay != b.FromDay {
			return a.FromDay < b.FromDay
		}
		if a.PersonID != b.PersonID {
			return a.PersonID < b.PersonID
		}
		return a.RowID < b.RowID
	})

	rep := Report{
		Violations: e.out,
		Counts:     make(map[string]int),
		Weights:    make(map[string]float64),
	}
	for _, v := range e.out {
		rep.Counts[v.RuleID]++
	}
	for id, n := range rep.Counts {
		w := in.Rules.Weight(id)
		rep.Weights[id] = w
		rep.Score += w * float64(n)
	}
	return rep
}

func (e *evaluation) index() {
	sched := e.in.Schedule
	for _, a := range sched.Assignments {
		row, known := e.rowsByID[a.RowID]
		sp := span{asn: a}
		if known {
			sp.start = row.StartOn(sched.Year, sched.Month, a.Day)
			sp.end = row.EndOn(sched.Year, sched.Month, a.Day)
			sp.hours = row.Hours()
			sp.night = row.Night
		} else {
			// Unknown rows keep their calendar position but carry no
			// hours, so hour-based rules skip them.
			sp.start = time.Date(sched.Year, sched.Month, a.Day, 0, 0, 0, 0, time.UTC)
			sp.end = sp.start
		}
		e.perPerson[a.PersonID] = append(e.perPerson[a.PersonID], sp)
		hrs, ok := e.hoursByDay[a.PersonID]
		if !ok {
			hrs = make([]float64, e.days+1)
			e.hoursByDay[a.PersonID] = hrs
		}
		hrs[a.Day] += sp.hours
	}
	for id := range e.perPerson {
		e.personIDs = append(e.personIDs, id)
		sp := e.perPerson[id]
		sort.Slice(sp, func(i, j int) bool {
			if !sp[i].start.Equal(sp[j].start) {
				return sp[i].start.Before(sp[j].start)
			}
			return sp[i].asn.RowID < sp[j].asn.RowID
		})
	}
	sort.Strings(e.personIDs)

	sched = e.in.Schedule
	for pid, dates := range e.in.Leaves {
		for _, d := range dates {
			d = d.UTC()
			if d.Year() != sched.Year || d.Month() != sched.Month {
				continue
			}
			if e.leaveDays[pid] == nil {
				e.leaveDays[pid] = make(map[int]bool)
			}
			e.leaveDays[pid][d.Day()] = true
		}
	}
}

func (e *evaluation) add(v model.Violation) { e.out = append(e.out, v) }

func (e *evaluation) checkDoubleShift() {
	if !e.in.Rules.Basic.NoDoubleShiftPerDay {
		return
	}
	for _, pid := range e.personIDs {
		perDay := make(map[int]int)
		for _, sp := range e.perPerson[pid] {
			perDay[sp.asn.Day]++
		}
		days := make([]int, 0, len(perDay))
		for d, n := range perDay {
			if n > 1 {
				days = append(days, d)
			}
		}
		sort.Ints(days)
		for _, d := range days {
			e.add(model.Violation{
				RuleID:   RuleNoDoubleShift,
				Severity: model.SeverityHard,
				FromDay:  d,
				ToDay:    d,
				PersonID: pid,
				Message:  fmt.Sprintf("%s holds %d shifts on day %d", pid, perDay[d], d),
			})
		}
	}
}

func (e *evaluation) checkConsecutiveDays() {
	max := e.in.Rules.Basic.MaxConsecutiveDays
	if max < 1 {
		return
	}
	for _, pid := range e.personIDs {
		assigned := make([]bool, e.days+2)
		for _, sp := range e.perPerson[pid] {
			assigned[sp.asn.Day] = true
		}
		run := 0
		for d := 1; d <= e.days+1; d++ {
			if d <= e.days && assigned[d] {
				run++
				continue
			}
			if run > max {
				e.add(model.Violation{
					RuleID:   RuleConsecutive,
					Severity: model.SeverityHard,
					FromDay:  d - run,
					ToDay:    d - 1,
					PersonID: pid,
					Message:  fmt.Sprintf("%s works %d consecutive days (max %d)", pid, run, max),
				})
			}
			run = 0
		}
	}
}

func (e *evaluation) checkRestHours() {
	basic := e.in.Rules.Basic
	nightRule := basic.NightShiftFollowUp == NightFollowUpMin24Hours
	if basic.MinRestHours <= 0 && !nightRule {
		return
	}
	for _, pid := range e.personIDs {
		spans := e.perPerson[pid]
		for i := 1; i < len(spans); i++ {
			prev, next := spans[i-1], spans[i]
			if prev.hours == 0 || next.hours == 0 {
				continue
			}
			required := basic.MinRestHours
			if nightRule && prev.night && required < 24 {
				required = 24
			}
			if required <= 0 {
				continue
			}
			gap := next.start.Sub(prev.end).Hours()
			if gap < required {
				e.add(model.Violation{
					RuleID:   RuleMinRest,
					Severity: model.SeverityHard,
					FromDay:  prev.asn.Day,
					ToDay:    next.asn.Day,
					PersonID: pid,
					Message:  fmt.Sprintf("%s rests %.1fh between days %d and %d (min %.1fh)", pid, gap, prev.asn.Day, next.asn.Day, required),
				})
			}
		}
	}
}

func (e *evaluation) checkWeeklyHours() {
	max := e.in.Rules.Basic.MaxWeeklyHours
	if max <= 0 {
		return
	}
	for _, pid := range e.personIDs {
		hrs := e.hoursByDay[pid]
		// Offending overlapping windows collapse into one violation per
		// stretch so a single busy week is not counted seven times.
		runFrom := 0
		runTo := 0
		flush := func() {
			if runFrom == 0 {
				return
			}
			e.add(model.Violation{
				RuleID:   RuleMaxWeekly,
				Severity: model.SeverityHard,
				FromDay:  runFrom,
				ToDay:    runTo,
				PersonID: pid,
				Message:  fmt.Sprintf("%s exceeds %.0fh in the 7-day window starting day %d", pid, max, runFrom),
			})
			runFrom = 0
		}
		for start := 1; start+6 <= e.days; start++ {
			var sum float64
			for d := start; d <= start+6; d++ {
				sum += hrs[d]
			}
			if sum > max {
				if runFrom == 0 {
					runFrom = start
				}
				runTo = start + 6
			} else {
				flush()
			}
		}
		flush()
	}
}

func (e *evaluation) checkDailyHours() {
	max := e.in.Rules.Basic.MaxDailyHours
	if max <= 0 {
		return
	}
	for _, pid := range e.personIDs {
		hrs := e.hoursByDay[pid]
		for d := 1; d <= e.days; d++ {
			if hrs[d] > max {
				e.add(model.Violation{
					RuleID:   RuleMaxDaily,
					Severity: model.SeverityHard,
					FromDay:  d,
					ToDay:    d,
					PersonID: pid,
					Message:  fmt.Sprintf("%s works %.1fh on day %d (max %.1fh)", pid, hrs[d], d, max),
				})
			}
		}
	}
}

// effectiveLeavePolicy resolves the run override against the rule set
// default. Leave blocks assignment only under the hard policy.
func (e *evaluation) effectiveLeavePolicy() string {
	if e.in.LeavePolicy != "" {
		return e.in.LeavePolicy
	}
	if e.in.Rules.Leave.Policy != "" {
		return e.in.Rules.Leave.Policy
	}
	return LeavePolicySoft
}

func (e *evaluation) checkLeaves() {
	severity := model.SeveritySoft
	if e.effectiveLeavePolicy() == LeavePolicyHard {
		severity = model.SeverityHard
	}
	for _, pid := range e.personIDs {
		blocked := e.leaveDays[pid]
		if len(blocked) == 0 {
			continue
		}
		for _, sp := range e.perPerson[pid] {
			if blocked[sp.asn.Day] {
				e.add(model.Violation{
					RuleID:   RuleLeave,
					Severity: severity,
					FromDay:  sp.asn.Day,
					ToDay:    sp.asn.Day,
					PersonID: pid,
					RowID:    sp.asn.RowID,
					Message:  fmt.Sprintf("%s is on approved leave on day %d", pid, sp.asn.Day),
				})
			}
		}
	}
}

func (e *evaluation) checkCoverage() {
	sched := e.in.Schedule
	assigned := make(map[model.SlotKey]int)
	for _, a := range sched.Assignments {
		assigned[a.Slot()]++
	}
	for _, row := range e.in.Rows {
		for d := 1; d <= e.days; d++ {
			date := time.Date(sched.Year, sched.Month, d, 0, 0, 0, 0, time.UTC)
			kind, isHoliday := e.in.Calendar.KindFor(date)
			required := e.in.Rules.EffectiveRequired(row, d, kind, isHoliday)
			if required == 0 {
				continue
			}
			got := assigned[model.SlotKey{Day: d, RowID: row.ID}]
			if got < required {
				e.add(model.Violation{
					RuleID:   RuleCoverage,
					Severity: model.SeverityHard,
					FromDay:  d,
					ToDay:    d,
					RowID:    row.ID,
					Count:    required - got,
					Message:  fmt.Sprintf("row %s needs %d on day %d, has %d", row.ID, required, d, got),
				})
			}
		}
	}
}

func (e *evaluation) checkEligibility() {
	if !e.in.RequireEligibility {
		return
	}
	staff := make(map[string]model.Person, len(e.in.Staff))
	for _, p := range e.in.Staff {
		staff[p.ID] = p
	}
	for _, pid := range e.personIDs {
		for _, sp := range e.perPerson[pid] {
			person, known := staff[pid]
			if known && e.in.Rules.Personnel.Eligible(person, sp.asn.RowID) {
				continue
			}
			msg := fmt.Sprintf("%s is not eligible for row %s", pid, sp.asn.RowID)
			if !known {
				msg = fmt.Sprintf("%s is not part of the staff list", pid)
			}
			e.add(model.Violation{
				RuleID:   RuleEligibility,
				Severity: model.SeverityHard,
				FromDay:  sp.asn.Day,
				ToDay:    sp.asn.Day,
				PersonID: pid,
				RowID:    sp.asn.RowID,
				Message:  msg,
			})
		}
	}
}
