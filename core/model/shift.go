package model

import "time"

// ShiftRow describes one duty row of the roster: a task with a code, a label
// and the clock span it occupies. MinHeadcount is the number of people the row
// requires per day; zero means the row is optional coverage.
type ShiftRow struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Label        string `json:"label"`
	StartHour    int    `json:"start_hour"`
	EndHour      int    `json:"end_hour"`
	MinHeadcount int    `json:"min_headcount"`
	// Night marks rows whose shift is night-coded. The rest-hour rule can
	// enforce a longer follow-up gap after such shifts.
	Night bool `json:"night,omitempty"`
}

// Hours returns the shift length in hours. Spans crossing midnight are
// supported (EndHour <= StartHour wraps to the next day).
func (r ShiftRow) Hours() float64 {
	span := r.EndHour - r.StartHour
	if span <= 0 {
		span += 24
	}
	return float64(span)
}

// StartOn anchors the shift start to the given calendar day.
func (r ShiftRow) StartOn(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, r.StartHour, 0, 0, 0, time.UTC)
}

// EndOn anchors the shift end to the given calendar day, rolling over to the
// next day for spans crossing midnight.
func (r ShiftRow) EndOn(year int, month time.Month, day int) time.Time {
	return r.StartOn(year, month, day).Add(time.Duration(r.Hours() * float64(time.Hour)))
}

// Validate checks the row definition.
func (r ShiftRow) Validate() error {
	if r.ID == "" {
		return ValidationError{Field: "rowId", Reason: "missing"}
	}
	if r.StartHour < 0 || r.StartHour > 23 {
		return ValidationError{Field: "startHour", Reason: "must be within [0,23]"}
	}
	if r.EndHour < 0 || r.EndHour > 23 {
		return ValidationError{Field: "endHour", Reason: "must be within [0,23]"}
	}
	if r.MinHeadcount < 0 {
		return ValidationError{Field: "minHeadcount", Reason: "must not be negative"}
	}
	return nil
}
