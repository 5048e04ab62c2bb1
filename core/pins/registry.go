// Package pins holds planner-forced assignments that solving must preserve.
package pins

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medrota/rosterd/core/model"
)

// Roster is the reference universe a registry validates pins against.
type Roster struct {
	Year  int
	Month time.Month
	Staff []model.Person
	Rows  []model.ShiftRow
}

// Registry stores the pins of one scope+month. Add upserts by (day, row) so a
// planner re-pinning an occupied slot wins; Remove is idempotent. All methods
// are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	days   int
	people map[string]bool
	rows   map[string]bool
	pins   map[model.SlotKey]model.Pin
}

// NewRegistry creates a registry validating against the given roster.
func NewRegistry(roster Roster) *Registry {
	r := &Registry{
		days:   model.DaysIn(roster.Year, roster.Month),
		people: make(map[string]bool, len(roster.Staff)),
		rows:   make(map[string]bool, len(roster.Rows)),
		pins:   make(map[model.SlotKey]model.Pin),
	}
	for _, p := range roster.Staff {
		r.people[p.ID] = true
	}
	for _, row := range roster.Rows {
		r.rows[row.ID] = true
	}
	return r
}

// Add validates and registers the pin, replacing any pin already occupying
// the same (day, row) slot. A pin without an ID is assigned one. The stored
// pin is returned.
func (r *Registry) Add(p model.Pin) (model.Pin, error) {
	if p.Day < 1 || p.Day > r.days {
		return model.Pin{}, model.ValidationError{Field: "day", Reason: "outside month"}
	}
	if p.PersonID == "" {
		return model.Pin{}, model.ValidationError{Field: "personId", Reason: "missing"}
	}
	if p.RowID == "" {
		return model.Pin{}, model.ValidationError{Field: "rowId", Reason: "missing"}
	}
	if !r.people[p.PersonID] {
		return model.Pin{}, model.ValidationError{Field: "personId", Reason: "unknown person " + p.PersonID}
	}
	if !r.rows[p.RowID] {
		return model.Pin{}, model.ValidationError{Field: "rowId", Reason: "unknown row " + p.RowID}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.mu.Lock()
	r.pins[p.Slot()] = p
	r.mu.Unlock()
	return p, nil
}

// Remove drops the pin with the given ID. Removing an absent pin is a no-op.
func (r *Registry) Remove(pinID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for slot, p := range r.pins {
		if p.ID == pinID {
			delete(r.pins, slot)
			return
		}
	}
}

// List returns the pins ordered by day ascending, ties broken by row ID, so
// downstream consumers see a deterministic sequence.
func (r *Registry) List() []model.Pin {
	r.mu.RLock()
	out := make([]model.Pin, 0, len(r.pins))
	for _, p := range r.pins {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].RowID < out[j].RowID
	})
	return out
}

// Snapshot is List under a name that states its purpose: solvers take one at
// run start so concurrent planner edits cannot affect an in-flight solve.
func (r *Registry) Snapshot() []model.Pin { return r.List() }

// Len returns the number of registered pins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pins)
}
