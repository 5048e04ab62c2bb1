package model

import (
	"sort"
	"time"
)

// HolidayKind classifies how a holiday affects required coverage.
type HolidayKind string

const (
	// HolidayFull is a full public holiday. Coverage may be exempted
	// entirely depending on the RuleSet's holiday policy.
	HolidayFull HolidayKind = "full"
	// HolidayArife is the eve of a religious holiday, worked as a half day.
	HolidayArife HolidayKind = "arife"
	// HolidayHalf is an administrative half working day.
	HolidayHalf HolidayKind = "half"
)

// Holiday classifies a single calendar date.
type Holiday struct {
	Date time.Time   `json:"date"`
	Kind HolidayKind `json:"kind"`
}

// Calendar is an immutable per-date holiday lookup built from an ordered
// holiday sequence. The zero value is a calendar with no holidays.
type Calendar struct {
	kinds map[string]HolidayKind
}

const calendarDateLayout = "2006-01-02"

// NewCalendar builds a calendar snapshot from the given holidays. Later
// entries for the same date win, matching the store's unique-date constraint.
func NewCalendar(holidays []Holiday) Calendar {
	c := Calendar{kinds: make(map[string]HolidayKind, len(holidays))}
	for _, h := range holidays {
		c.kinds[h.Date.UTC().Format(calendarDateLayout)] = h.Kind
	}
	return c
}

// KindFor returns the holiday classification of the given date.
func (c Calendar) KindFor(date time.Time) (HolidayKind, bool) {
	if c.kinds == nil {
		return "", false
	}
	k, ok := c.kinds[date.UTC().Format(calendarDateLayout)]
	return k, ok
}

// Holidays returns the calendar content ordered by date.
func (c Calendar) Holidays() []Holiday {
	out := make([]Holiday, 0, len(c.kinds))
	for key, kind := range c.kinds {
		d, err := time.Parse(calendarDateLayout, key)
		if err != nil {
			continue
		}
		out = append(out, Holiday{Date: d, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
