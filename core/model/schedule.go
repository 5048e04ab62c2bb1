package model

import (
	"sort"
	"time"
)

// Assignment fills one roster slot: person on row on a 1-based day of the
// schedule's month.
type Assignment struct {
	Day      int    `json:"day"`
	PersonID string `json:"person_id"`
	RowID    string `json:"row_id"`
}

// SlotKey identifies a roster slot independent of who occupies it.
type SlotKey struct {
	Day   int
	RowID string
}

// Slot returns the assignment's slot key.
func (a Assignment) Slot() SlotKey { return SlotKey{Day: a.Day, RowID: a.RowID} }

// Schedule is an ordered set of assignments for one scope, year and month.
// At most one assignment exists per (day, row). A schedule produced by a solve
// is never mutated afterwards; solvers operate on clones.
type Schedule struct {
	Scope       Scope        `json:"scope"`
	Year        int          `json:"year"`
	Month       time.Month   `json:"month"`
	Assignments []Assignment `json:"assignments"`
}

// NewSchedule returns an empty schedule for the given scope and month.
func NewSchedule(scope Scope, year int, month time.Month) Schedule {
	return Schedule{Scope: scope, Year: year, Month: month}
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	cp := s
	cp.Assignments = append([]Assignment(nil), s.Assignments...)
	return cp
}

// At returns the assignment occupying (day, rowID), if any.
func (s Schedule) At(day int, rowID string) (Assignment, bool) {
	for _, a := range s.Assignments {
		if a.Day == day && a.RowID == rowID {
			return a, true
		}
	}
	return Assignment{}, false
}

// Set places the assignment, replacing any existing occupant of its slot.
func (s *Schedule) Set(a Assignment) {
	for i, cur := range s.Assignments {
		if cur.Day == a.Day && cur.RowID == a.RowID {
			s.Assignments[i] = a
			return
		}
	}
	s.Assignments = append(s.Assignments, a)
}

// Remove deletes the assignment at (day, rowID). It is a no-op when the slot
// is empty.
func (s *Schedule) Remove(day int, rowID string) {
	for i, cur := range s.Assignments {
		if cur.Day == day && cur.RowID == rowID {
			s.Assignments = append(s.Assignments[:i], s.Assignments[i+1:]...)
			return
		}
	}
}

// ByPerson groups assignments per person, each group ordered by day then row.
func (s Schedule) ByPerson() map[string][]Assignment {
	out := make(map[string][]Assignment)
	for _, a := range s.Assignments {
		out[a.PersonID] = append(out[a.PersonID], a)
	}
	for id := range out {
		group := out[id]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Day != group[j].Day {
				return group[i].Day < group[j].Day
			}
			return group[i].RowID < group[j].RowID
		})
	}
	return out
}

// Sort orders assignments by day ascending, ties broken by row then person.
// All solvers sort before returning so output is reproducible.
func (s *Schedule) Sort() {
	sort.Slice(s.Assignments, func(i, j int) bool {
		a, b := s.Assignments[i], s.Assignments[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.RowID != b.RowID {
			return a.RowID < b.RowID
		}
		return a.PersonID < b.PersonID
	})
}

// Validate checks the schedule bounds and the one-assignment-per-slot
// invariant.
func (s Schedule) Validate() error {
	if err := ValidateYearMonth(s.Year, s.Month); err != nil {
		return err
	}
	days := DaysIn(s.Year, s.Month)
	seen := make(map[SlotKey]struct{}, len(s.Assignments))
	for _, a := range s.Assignments {
		if a.Day < 1 || a.Day > days {
			return ValidationError{Field: "day", Reason: "outside month"}
		}
		if a.PersonID == "" {
			return ValidationError{Field: "personId", Reason: "missing"}
		}
		if a.RowID == "" {
			return ValidationError{Field: "rowId", Reason: "missing"}
		}
		if _, dup := seen[a.Slot()]; dup {
			return ValidationError{Field: "assignments", Reason: "duplicate slot " + a.RowID}
		}
		seen[a.Slot()] = struct{}{}
	}
	return nil
}
