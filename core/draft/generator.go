// Package draft produces the fast first-pass schedule a solve starts from.
package draft

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/medrota/rosterd/core/logger"
	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// Request carries the inputs of one draft generation. Pins, staff and leave
// data are snapshots; the generator never reaches out to external stores.
type Request struct {
	Scope model.Scope
	Year  int
	Month time.Month
	// Role limits the considered staff when set.
	Role  string
	Rows  []model.ShiftRow
	Staff []model.Person
	Pins  []model.Pin
	// Leaves maps person IDs to approved leave dates.
	Leaves map[string][]time.Time
	// Basic caps are consulted so the draft does not hand the optimizer
	// avoidable hard violations. Personnel gates eligibility filtering.
	Basic     rules.BasicRules
	Personnel rules.PersonnelRules

	LeavePolicy        string
	ForcePins          bool
	RequireEligibility bool
}

// Meta summarizes a generated draft.
type Meta struct {
	StaffCount  int     `json:"staff_count"`
	RowCount    int     `json:"row_count"`
	DaysInMonth int     `json:"days_in_month"`
	FilledSlots int     `json:"filled_slots"`
	OpenSlots   int     `json:"open_slots"`
	PinnedSlots int     `json:"pinned_slots"`
	HoursMean   float64 `json:"hours_mean"`
	HoursStdDev float64 `json:"hours_stddev"`
}

// Draft is a first-pass schedule plus its summary metadata.
type Draft struct {
	Schedule model.Schedule `json:"schedule"`
	Meta     Meta           `json:"meta"`
}

// Generator builds drafts with a deterministic least-assigned-hours
// heuristic.
type Generator struct {
	log logger.Logger
}

// NewGenerator returns a Generator. A nil logger falls back to a no-op one.
func NewGenerator(log logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop{}
	}
	return &Generator{log: log}
}

// state tracks cumulative facts about the schedule under construction.
type state struct {
	year  int
	month time.Month
	days  int
	basic rules.BasicRules

	assignedDay map[string]map[int]bool
	hoursByDay  map[string][]float64
	totalHours  map[string]float64
	spans       map[string][]spanRef
}

type spanRef struct {
	day   int
	start time.Time
	end   time.Time
	night bool
}

func newState(req Request, days int) *state {
	return &state{
		year:        req.Year,
		month:       req.Month,
		days:        days,
		basic:       req.Basic,
		assignedDay: make(map[string]map[int]bool),
		hoursByDay:  make(map[string][]float64),
		totalHours:  make(map[string]float64),
		spans:       make(map[string][]spanRef),
	}
}

func (s *state) place(pid string, day int, row model.ShiftRow) {
	if s.assignedDay[pid] == nil {
		s.assignedDay[pid] = make(map[int]bool)
	}
	s.assignedDay[pid][day] = true
	hrs := s.hoursByDay[pid]
	if hrs == nil {
		hrs = make([]float64, s.days+1)
		s.hoursByDay[pid] = hrs
	}
	hrs[day] += row.Hours()
	s.totalHours[pid] += row.Hours()
	s.spans[pid] = append(s.spans[pid], spanRef{
		day:   day,
		start: row.StartOn(s.year, s.month, day),
		end:   row.EndOn(s.year, s.month, day),
		night: row.Night,
	})
}

// fits checks the cheap feasibility rules for placing pid on row at day:
// double booking, the consecutive-day cap, rest hours including the night
// follow-up, and the daily/weekly hour caps.
func (s *state) fits(pid string, day int, row model.ShiftRow) bool {
	if s.assignedDay[pid][day] {
		return false
	}
	if max := s.basic.MaxConsecutiveDays; max >= 1 {
		run := 1
		for d := day - 1; d >= 1 && s.assignedDay[pid][d]; d-- {
			run++
		}
		for d := day + 1; d <= s.days && s.assignedDay[pid][d]; d++ {
			run++
		}
		if run > max {
			return false
		}
	}
	nightRule := s.basic.NightShiftFollowUp == rules.NightFollowUpMin24Hours
	if s.basic.MinRestHours > 0 || nightRule {
		start := row.StartOn(s.year, s.month, day)
		end := row.EndOn(s.year, s.month, day)
		for _, sp := range s.spans[pid] {
			if sp.day < day-2 || sp.day > day+2 {
				continue
			}
			required := s.basic.MinRestHours
			var gap float64
			switch {
			case !sp.end.After(start):
				// The existing span comes first; a night shift there
				// stretches the bound to a full day off.
				if nightRule && sp.night && required < 24 {
					required = 24
				}
				gap = start.Sub(sp.end).Hours()
			case !end.After(sp.start):
				// The candidate comes first, so its own night flag
				// decides the bound.
				if nightRule && row.Night && required < 24 {
					required = 24
				}
				gap = sp.start.Sub(end).Hours()
			default:
				return false // overlapping spans
			}
			if required > 0 && gap < required {
				return false
			}
		}
	}
	if max := s.basic.MaxDailyHours; max > 0 {
		if hrs := s.hoursByDay[pid]; hrs != nil && hrs[day]+row.Hours() > max {
			return false
		} else if hrs == nil && row.Hours() > max {
			return false
		}
	}
	if max := s.basic.MaxWeeklyHours; max > 0 {
		hrs := s.hoursByDay[pid]
		for start := day - 6; start <= day; start++ {
			if start < 1 || start+6 > s.days {
				continue
			}
			sum := row.Hours()
			if hrs != nil {
				for d := start; d <= start+6; d++ {
					sum += hrs[d]
				}
			}
			if sum > max {
				return false
			}
		}
	}
	return true
}

// Generate produces a deterministic first-pass schedule. Empty staff or row
// lists degrade to an empty draft rather than an error.
func (g *Generator) Generate(req Request) (Draft, error) {
	if err := model.ValidateYearMonth(req.Year, req.Month); err != nil {
		return Draft{}, err
	}
	for _, row := range req.Rows {
		if err := row.Validate(); err != nil {
			return Draft{}, err
		}
	}
	for _, p := range req.Staff {
		if err := p.Validate(); err != nil {
			return Draft{}, err
		}
	}

	days := model.DaysIn(req.Year, req.Month)
	sched := model.NewSchedule(req.Scope, req.Year, req.Month)
	st := newState(req, days)

	staff := make([]model.Person, 0, len(req.Staff))
	for _, p := range req.Staff {
		if req.Role != "" && p.Role != req.Role {
			continue
		}
		staff = append(staff, p)
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })

	rows := append([]model.ShiftRow(nil), req.Rows...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	rowsByID := make(map[string]model.ShiftRow, len(rows))
	for _, r := range rows {
		rowsByID[r.ID] = r
	}

	leaveDays := make(map[string]map[int]bool)
	hardLeave := req.LeavePolicy == rules.LeavePolicyHard
	for pid, dates := range req.Leaves {
		for _, d := range dates {
			d = d.UTC()
			if d.Year() != req.Year || d.Month() != req.Month {
				continue
			}
			if leaveDays[pid] == nil {
				leaveDays[pid] = make(map[int]bool)
			}
			leaveDays[pid][d.Day()] = true
		}
	}

	pinned := make(map[model.SlotKey]model.Pin)
	if req.ForcePins {
		for _, p := range req.Pins {
			if p.Day < 1 || p.Day > days {
				return Draft{}, model.ValidationError{Field: "pin.day", Reason: "outside month"}
			}
			pinned[p.Slot()] = p
		}
		for _, slot := range sortedSlots(pinned) {
			p := pinned[slot]
			sched.Set(p.Assignment())
			if row, ok := rowsByID[p.RowID]; ok {
				st.place(p.PersonID, p.Day, row)
			}
		}
	}

	open := 0
	for day := 1; day <= days; day++ {
		for _, row := range rows {
			if row.MinHeadcount < 1 {
				continue
			}
			slot := model.SlotKey{Day: day, RowID: row.ID}
			if _, isPinned := pinned[slot]; isPinned {
				continue
			}
			pid, found := pickCandidate(staff, st, leaveDays, hardLeave, req, row, day)
			if !found {
				open++
				continue
			}
			sched.Set(model.Assignment{Day: day, PersonID: pid, RowID: row.ID})
			st.place(pid, day, row)
		}
	}
	sched.Sort()

	meta := Meta{
		StaffCount:  len(staff),
		RowCount:    len(rows),
		DaysInMonth: days,
		FilledSlots: len(sched.Assignments),
		OpenSlots:   open,
		PinnedSlots: len(pinned),
	}
	meta.HoursMean, meta.HoursStdDev = hoursBalance(staff, st.totalHours)
	g.log.Infof("draft %d-%02d: %d slots filled, %d open", req.Year, req.Month, meta.FilledSlots, open)

	return Draft{Schedule: sched, Meta: meta}, nil
}

// pickCandidate returns the eligible person with the least cumulative hours,
// ties broken by person ID so identical inputs yield identical drafts.
func pickCandidate(staff []model.Person, st *state, leaveDays map[string]map[int]bool, hardLeave bool, req Request, row model.ShiftRow, day int) (string, bool) {
	best := ""
	bestHours := math.Inf(1)
	for _, p := range staff {
		if hardLeave && leaveDays[p.ID][day] {
			continue
		}
		if req.RequireEligibility && !req.Personnel.Eligible(p, row.ID) {
			continue
		}
		if !st.fits(p.ID, day, row) {
			continue
		}
		if h := st.totalHours[p.ID]; h < bestHours {
			best = p.ID
			bestHours = h
		}
	}
	return best, best != ""
}

func sortedSlots(pinned map[model.SlotKey]model.Pin) []model.SlotKey {
	slots := make([]model.SlotKey, 0, len(pinned))
	for s := range pinned {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].RowID < slots[j].RowID
	})
	return slots
}

// hoursBalance summarizes how evenly monthly hours are spread over the staff.
func hoursBalance(staff []model.Person, totals map[string]float64) (mean, stddev float64) {
	if len(staff) == 0 {
		return 0, 0
	}
	hours := make([]float64, len(staff))
	for i, p := range staff {
		hours[i] = totals[p.ID]
	}
	mean = stat.Mean(hours, nil)
	if len(hours) > 1 {
		stddev = stat.StdDev(hours, nil)
	}
	return mean, stddev
}
