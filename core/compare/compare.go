// Package compare contrasts a draft schedule with its optimized counterpart.
package compare

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// Issue is one residual coverage problem of the optimized schedule.
type Issue struct {
	Day     int    `json:"day"`
	RowID   string `json:"row_id,omitempty"`
	Missing int    `json:"missing"`
	Reason  string `json:"reason"`
}

// Change records a slot whose occupant differs between the two schedules.
type Change struct {
	Day    int    `json:"day"`
	RowID  string `json:"row_id"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// SlotRef names a slot together with its occupant in the schedule that has
// it.
type SlotRef struct {
	Day      int    `json:"day"`
	RowID    string `json:"row_id"`
	PersonID string `json:"person_id"`
}

// Diff is the structured slot-level difference keyed by (day, row).
type Diff struct {
	Added   []SlotRef `json:"added"`
	Removed []SlotRef `json:"removed"`
	Changed []Change  `json:"changed"`
}

// Comparison summarizes draft versus optimized.
type Comparison struct {
	DraftAssignments     int     `json:"draft_assignments"`
	OptimizedAssignments int     `json:"optimized_assignments"`
	Issues               []Issue `json:"issues"`
	Diff                 Diff    `json:"diff"`
	// Balance deltas: standard deviation of per-person assignment counts,
	// before and after. Lower is more even.
	DraftSpread     float64 `json:"draft_spread"`
	OptimizedSpread float64 `json:"optimized_spread"`
}

// Compare diffs the two schedules and reports the optimized schedule's
// residual issues. It is a pure function and tolerates either schedule being
// empty.
func Compare(draft, optimized model.Schedule, residual []model.Violation) Comparison {
	cmp := Comparison{
		DraftAssignments:     len(draft.Assignments),
		OptimizedAssignments: len(optimized.Assignments),
		DraftSpread:          spread(draft),
		OptimizedSpread:      spread(optimized),
	}

	before := make(map[model.SlotKey]string, len(draft.Assignments))
	for _, a := range draft.Assignments {
		before[a.Slot()] = a.PersonID
	}
	after := make(map[model.SlotKey]string, len(optimized.Assignments))
	for _, a := range optimized.Assignments {
		after[a.Slot()] = a.PersonID
	}

	for slot, pid := range after {
		prev, had := before[slot]
		switch {
		case !had:
			cmp.Diff.Added = append(cmp.Diff.Added, SlotRef{Day: slot.Day, RowID: slot.RowID, PersonID: pid})
		case prev != pid:
			cmp.Diff.Changed = append(cmp.Diff.Changed, Change{Day: slot.Day, RowID: slot.RowID, Before: prev, After: pid})
		}
	}
	for slot, pid := range before {
		if _, still := after[slot]; !still {
			cmp.Diff.Removed = append(cmp.Diff.Removed, SlotRef{Day: slot.Day, RowID: slot.RowID, PersonID: pid})
		}
	}
	sort.Slice(cmp.Diff.Added, func(i, j int) bool { return slotLess(cmp.Diff.Added[i].Day, cmp.Diff.Added[i].RowID, cmp.Diff.Added[j].Day, cmp.Diff.Added[j].RowID) })
	sort.Slice(cmp.Diff.Removed, func(i, j int) bool { return slotLess(cmp.Diff.Removed[i].Day, cmp.Diff.Removed[i].RowID, cmp.Diff.Removed[j].Day, cmp.Diff.Removed[j].RowID) })
	sort.Slice(cmp.Diff.Changed, func(i, j int) bool { return slotLess(cmp.Diff.Changed[i].Day, cmp.Diff.Changed[i].RowID, cmp.Diff.Changed[j].Day, cmp.Diff.Changed[j].RowID) })

	for _, v := range residual {
		if v.RuleID != rules.RuleCoverage {
			continue
		}
		missing := v.Count
		if missing < 1 {
			missing = 1
		}
		cmp.Issues = append(cmp.Issues, Issue{
			Day:     v.FromDay,
			RowID:   v.RowID,
			Missing: missing,
			Reason:  v.Message,
		})
	}
	sort.Slice(cmp.Issues, func(i, j int) bool { return slotLess(cmp.Issues[i].Day, cmp.Issues[i].RowID, cmp.Issues[j].Day, cmp.Issues[j].RowID) })
	return cmp
}

func slotLess(dayA int, rowA string, dayB int, rowB string) bool {
	if dayA != dayB {
		return dayA < dayB
	}
	return rowA < rowB
}

// spread is the standard deviation of per-person assignment counts.
func spread(s model.Schedule) float64 {
	if len(s.Assignments) == 0 {
		return 0
	}
	counts := make(map[string]float64)
	for _, a := range s.Assignments {
		counts[a.PersonID]++
	}
	if len(counts) < 2 {
		return 0
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	values := make([]float64, len(ids))
	for i, id := range ids {
		values[i] = counts[id]
	}
	return stat.StdDev(values, nil)
}

// Summary renders a one-line human summary for CLI output.
func (c Comparison) Summary() string {
	return fmt.Sprintf("draft=%d optimized=%d added=%d removed=%d changed=%d issues=%d",
		c.DraftAssignments, c.OptimizedAssignments,
		len(c.Diff.Added), len(c.Diff.Removed), len(c.Diff.Changed), len(c.Issues))
}
