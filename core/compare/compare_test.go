package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

func cmpSchedule(assigns ...model.Assignment) model.Schedule {
	return model.Schedule{
		Scope:       model.Scope{SectionID: "icu", ServiceID: "surgery", Role: "nurse"},
		Year:        2026,
		Month:       time.March,
		Assignments: assigns,
	}
}

func TestCompareDiff(t *testing.T) {
	draft := cmpSchedule(
		model.Assignment{Day: 1, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 2, PersonID: "p2", RowID: "day"},
		model.Assignment{Day: 3, PersonID: "p3", RowID: "day"},
	)
	optimized := cmpSchedule(
		model.Assignment{Day: 1, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 2, PersonID: "p4", RowID: "day"},
		model.Assignment{Day: 4, PersonID: "p3", RowID: "day"},
	)

	cmp := Compare(draft, optimized, nil)

	assert.Equal(t, 3, cmp.DraftAssignments)
	assert.Equal(t, 3, cmp.OptimizedAssignments)
	require.Len(t, cmp.Diff.Added, 1)
	assert.Equal(t, SlotRef{Day: 4, RowID: "day", PersonID: "p3"}, cmp.Diff.Added[0])
	require.Len(t, cmp.Diff.Removed, 1)
	assert.Equal(t, SlotRef{Day: 3, RowID: "day", PersonID: "p3"}, cmp.Diff.Removed[0])
	require.Len(t, cmp.Diff.Changed, 1)
	assert.Equal(t, Change{Day: 2, RowID: "day", Before: "p2", After: "p4"}, cmp.Diff.Changed[0])
}

func TestCompareIssuesFromResidualCoverage(t *testing.T) {
	residual := []model.Violation{
		{RuleID: rules.RuleCoverage, Severity: model.SeverityHard, FromDay: 9, ToDay: 9, RowID: "night", Count: 1, Message: "row night needs 1 on day 9, has 0"},
		{RuleID: rules.RuleMinRest, Severity: model.SeverityHard, FromDay: 2, ToDay: 3, PersonID: "p1"},
		{RuleID: rules.RuleCoverage, Severity: model.SeverityHard, FromDay: 2, ToDay: 2, RowID: "day", Count: 2, Message: "row day needs 2 on day 2, has 0"},
	}
	cmp := Compare(cmpSchedule(), cmpSchedule(), residual)

	require.Len(t, cmp.Issues, 2)
	assert.Equal(t, 2, cmp.Issues[0].Day)
	assert.Equal(t, "day", cmp.Issues[0].RowID)
	assert.Equal(t, 2, cmp.Issues[0].Missing)
	assert.Equal(t, 9, cmp.Issues[1].Day)
	assert.Equal(t, "night", cmp.Issues[1].RowID)
	assert.Equal(t, 1, cmp.Issues[1].Missing)
}

func TestCompareMissingHeadcount(t *testing.T) {
	row := model.ShiftRow{ID: "day", Code: "D", StartHour: 8, EndHour: 16, MinHeadcount: 2}
	sched := cmpSchedule()
	rep := rules.Evaluate(rules.Input{
		Rules:    rules.RuleSet{Scope: sched.Scope, Basic: rules.BasicRules{MaxConsecutiveDays: 6}},
		Schedule: sched,
		Rows:     []model.ShiftRow{row},
	})

	cmp := Compare(sched, sched, rep.Violations)

	require.Len(t, cmp.Issues, 31)
	for _, issue := range cmp.Issues {
		assert.Equal(t, 2, issue.Missing, "day %d", issue.Day)
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	draft := cmpSchedule(
		model.Assignment{Day: 5, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 5, PersonID: "p2", RowID: "night"},
	)
	optimized := cmpSchedule(
		model.Assignment{Day: 5, PersonID: "p2", RowID: "day"},
		model.Assignment{Day: 5, PersonID: "p1", RowID: "night"},
	)
	first := Compare(draft, optimized, nil)
	second := Compare(draft, optimized, nil)
	assert.Equal(t, first, second)
	require.Len(t, first.Diff.Changed, 2)
	assert.Equal(t, "day", first.Diff.Changed[0].RowID)
	assert.Equal(t, "night", first.Diff.Changed[1].RowID)
}

func TestCompareEmptySchedules(t *testing.T) {
	cmp := Compare(cmpSchedule(), cmpSchedule(), nil)
	assert.Zero(t, cmp.DraftAssignments)
	assert.Zero(t, cmp.OptimizedAssignments)
	assert.Empty(t, cmp.Diff.Added)
	assert.Empty(t, cmp.Diff.Removed)
	assert.Empty(t, cmp.Diff.Changed)
	assert.Empty(t, cmp.Issues)
	assert.Zero(t, cmp.DraftSpread)
}

func TestCompareSpread(t *testing.T) {
	lopsided := cmpSchedule(
		model.Assignment{Day: 1, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 2, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 3, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 4, PersonID: "p2", RowID: "day"},
	)
	even := cmpSchedule(
		model.Assignment{Day: 1, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 2, PersonID: "p2", RowID: "day"},
		model.Assignment{Day: 3, PersonID: "p1", RowID: "day"},
		model.Assignment{Day: 4, PersonID: "p2", RowID: "day"},
	)
	cmp := Compare(lopsided, even, nil)
	assert.Greater(t, cmp.DraftSpread, cmp.OptimizedSpread)
}

func TestSummary(t *testing.T) {
	cmp := Compare(
		cmpSchedule(model.Assignment{Day: 1, PersonID: "p1", RowID: "day"}),
		cmpSchedule(model.Assignment{Day: 2, PersonID: "p1", RowID: "day"}),
		nil,
	)
	assert.Equal(t, "draft=1 optimized=1 added=1 removed=1 changed=0 issues=0", cmp.Summary())
}
