package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

var mgrScope = model.Scope{SectionID: "icu", ServiceID: "surgery", Role: "nurse"}

type fakeRuleStore struct {
	rs      rules.RuleSet
	found   bool
	err     error
	fetches int
}

func (f *fakeRuleStore) Fetch(ctx context.Context, scope model.Scope) (rules.RuleSet, bool, error) {
	f.fetches++
	if f.err != nil {
		return rules.RuleSet{}, false, f.err
	}
	return f.rs.Clone(), f.found, nil
}

func (f *fakeRuleStore) Save(ctx context.Context, scope model.Scope, rs rules.RuleSet) error {
	f.rs = rs.Clone()
	f.found = true
	return nil
}

type fakeCalendar struct {
	holidays  []model.Holiday
	err       error
	generated int
}

func (f *fakeCalendar) HolidaysFor(ctx context.Context, year int) ([]model.Holiday, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.holidays, nil
}

func (f *fakeCalendar) Generate(ctx context.Context, year int) error {
	f.generated++
	f.holidays = append(f.holidays, model.Holiday{
		Date: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		Kind: model.HolidayFull,
	})
	return nil
}

type fakeLeaves struct {
	dates map[string][]time.Time
	err   error
}

func (f *fakeLeaves) LeavesFor(ctx context.Context, personID string, from, to time.Time) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.dates[personID], nil
}

func fastRetry() RetryConfig {
	return RetryConfig{Attempts: 2, Backoff: time.Millisecond, Timeout: time.Second}
}

func newTestManager(t *testing.T, store *fakeRuleStore, cal *fakeCalendar, leaves *fakeLeaves) *Manager {
	t.Helper()
	if store == nil {
		store = &fakeRuleStore{}
	}
	if cal == nil {
		cal = &fakeCalendar{holidays: []model.Holiday{{
			Date: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
			Kind: model.HolidayFull,
		}}}
	}
	if leaves == nil {
		leaves = &fakeLeaves{}
	}
	m, err := NewManager(Deps{Rules: store, Calendar: cal, Leaves: leaves, Retry: fastRetry()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func mgrRows() []model.ShiftRow {
	return []model.ShiftRow{
		{ID: "day", Code: "D", StartHour: 8, EndHour: 16, MinHeadcount: 1},
	}
}

func mgrStaff(n int) []model.Person {
	out := make([]model.Person, n)
	for i := range out {
		out[i] = model.Person{ID: string(rune('a'+i)) + "1", Role: "nurse"}
	}
	return out
}

func TestNewManagerRequiresCollaborators(t *testing.T) {
	_, err := NewManager(Deps{})
	require.Error(t, err)

	_, err = NewManager(Deps{Rules: &fakeRuleStore{}, Calendar: &fakeCalendar{}})
	require.Error(t, err)
}

func TestDraftMonthConvention(t *testing.T) {
	m := newTestManager(t, nil, nil, nil)

	d, err := m.Draft(context.Background(), DraftParams{
		Scope:       mgrScope,
		Year:        2026,
		Month0:      2, // March
		Rows:        mgrRows(),
		Staff:       mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
	})
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Schedule.Month)
	assert.Equal(t, model.DaysIn(2026, time.March), d.Meta.DaysInMonth)
	assert.Zero(t, d.Meta.OpenSlots)
}

func TestDraftInvalidMonth(t *testing.T) {
	m := newTestManager(t, nil, nil, nil)
	_, err := m.Draft(context.Background(), DraftParams{
		Scope: mgrScope, Year: 2026, Month0: 12,
		Rows: mgrRows(), Staff: mgrStaff(2),
	})
	require.Error(t, err)
}

func TestDraftDegradesToDefaultRules(t *testing.T) {
	store := &fakeRuleStore{err: errors.New("store down")}
	m := newTestManager(t, store, nil, nil)

	d, err := m.Draft(context.Background(), DraftParams{
		Scope:       mgrScope,
		Year:        2026,
		Month0:      2,
		Rows:        mgrRows(),
		Staff:       mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, d.Schedule.Assignments)
	// The retry budget was spent before degrading.
	assert.Equal(t, fastRetry().Attempts, store.fetches)
}

func TestFetchRulesDefaultsWhenAbsent(t *testing.T) {
	m := newTestManager(t, &fakeRuleStore{found: false}, nil, nil)

	rs, err := m.FetchRules(context.Background(), mgrScope)
	require.NoError(t, err)
	assert.Equal(t, rules.Default(mgrScope).Basic, rs.Basic)
}

func TestFetchRulesCacheFallback(t *testing.T) {
	custom := rules.Default(mgrScope)
	custom.Basic.MaxConsecutiveDays = 4
	store := &fakeRuleStore{rs: custom, found: true}
	m := newTestManager(t, store, nil, nil)

	// First fetch succeeds and primes the cache.
	rs, err := m.FetchRules(context.Background(), mgrScope)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.Basic.MaxConsecutiveDays)

	store.err = errors.New("store down")
	rs, err = m.FetchRules(context.Background(), mgrScope)
	require.Error(t, err)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.CacheUsed)
	assert.Equal(t, "rulestore", ue.Upstream)
	assert.Equal(t, 4, rs.Basic.MaxConsecutiveDays)
}

func TestFetchRulesNoCacheFails(t *testing.T) {
	m := newTestManager(t, &fakeRuleStore{err: errors.New("store down")}, nil, nil)

	_, err := m.FetchRules(context.Background(), mgrScope)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.False(t, ue.CacheUsed)
}

func TestFetchCalendarIngestsEmptyYear(t *testing.T) {
	cal := &fakeCalendar{}
	m := newTestManager(t, nil, cal, nil)

	got, err := m.FetchCalendar(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, cal.generated)
	_, ok := got.KindFor(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
}

func TestFetchCalendarCacheFallback(t *testing.T) {
	cal := &fakeCalendar{holidays: []model.Holiday{{
		Date: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		Kind: model.HolidayFull,
	}}}
	m := newTestManager(t, nil, cal, nil)

	_, err := m.FetchCalendar(context.Background(), 2026)
	require.NoError(t, err)

	cal.err = errors.New("calendar down")
	got, err := m.FetchCalendar(context.Background(), 2026)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.CacheUsed)
	_, ok := got.KindFor(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
}

func TestOptimizeReplaysDuplicateRunID(t *testing.T) {
	m := newTestManager(t, nil, nil, nil)

	params := OptimizeParams{
		Scope:       mgrScope,
		Year:        2026,
		Month:       time.March,
		Rows:        mgrRows(),
		Staff:       mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
		RunID:       "run-77",
	}
	first, err := m.Optimize(context.Background(), params)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := m.Optimize(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Schedule, second.Schedule)
}

func TestOptimizeAssignsRunID(t *testing.T) {
	m := newTestManager(t, nil, nil, nil)

	res, err := m.Optimize(context.Background(), OptimizeParams{
		Scope:       mgrScope,
		Year:        2026,
		Month:       time.March,
		Rows:        mgrRows(),
		Staff:       mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
}

func TestOptimizeExplicitRulesSkipStore(t *testing.T) {
	store := &fakeRuleStore{err: errors.New("store down")}
	m := newTestManager(t, store, nil, nil)

	rs := rules.Default(mgrScope)
	res, err := m.Optimize(context.Background(), OptimizeParams{
		Scope:       mgrScope,
		Year:        2026,
		Month:       time.March,
		Rules:       &rs,
		Rows:        mgrRows(),
		Staff:       mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
	})
	require.NoError(t, err)
	assert.True(t, res.Feasible)
	assert.Zero(t, store.fetches)
}

func TestOptimizeLeaveOutage(t *testing.T) {
	leaves := &fakeLeaves{err: errors.New("hr system down")}
	m := newTestManager(t, nil, nil, leaves)

	_, err := m.Optimize(context.Background(), OptimizeParams{
		Scope: mgrScope, Year: 2026, Month: time.March,
		Rows: mgrRows(), Staff: mgrStaff(2),
	})
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "leave", ue.Upstream)
	assert.False(t, ue.CacheUsed)
}

func TestEvaluateStandalone(t *testing.T) {
	m := newTestManager(t, nil, nil, nil)

	rs := rules.Default(mgrScope)
	rep, err := m.Evaluate(context.Background(), EvaluateParams{
		Schedule: model.Schedule{
			Scope: mgrScope,
			Year:  2026,
			Month: time.March,
			Assignments: []model.Assignment{
				{Day: 4, PersonID: "a1", RowID: "day"},
			},
		},
		Rules: &rs,
		Rows:  mgrRows(),
		Staff: mgrStaff(2),
	})
	require.NoError(t, err)
	// Every other day of the month misses coverage.
	assert.Equal(t, model.DaysIn(2026, time.March)-1, rep.Counts[rules.RuleCoverage])
}

func TestCompareWiresResidual(t *testing.T) {
	m := newTestManager(t, nil, nil, nil)

	d, err := m.Draft(context.Background(), DraftParams{
		Scope: mgrScope, Year: 2026, Month0: 2,
		Rows: mgrRows(), Staff: mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
	})
	require.NoError(t, err)
	res, err := m.Optimize(context.Background(), OptimizeParams{
		Scope: mgrScope, Year: 2026, Month: time.March,
		Seed: d.Schedule, Rows: mgrRows(), Staff: mgrStaff(6),
		LeavePolicy: rules.LeavePolicyHard,
	})
	require.NoError(t, err)

	cmp := m.Compare(d, res)
	assert.Equal(t, len(d.Schedule.Assignments), cmp.DraftAssignments)
	assert.Equal(t, len(res.Schedule.Assignments), cmp.OptimizedAssignments)
}
