// Package solver orchestrates draft generation, optimization and evaluation
// against the external collaborators, with snapshot isolation and bounded
// retries.
package solver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medrota/rosterd/core/calendar"
	"github.com/medrota/rosterd/core/compare"
	"github.com/medrota/rosterd/core/draft"
	"github.com/medrota/rosterd/core/leave"
	"github.com/medrota/rosterd/core/logger"
	"github.com/medrota/rosterd/core/metrics"
	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/optimize"
	"github.com/medrota/rosterd/core/pins"
	"github.com/medrota/rosterd/core/rules"
	"github.com/medrota/rosterd/core/rulestore"
	"github.com/medrota/rosterd/internal/eventbus"
)

// RetryConfig bounds calls to external collaborators.
type RetryConfig struct {
	Attempts int           `json:"attempts"`
	Backoff  time.Duration `json:"backoff"`
	Timeout  time.Duration `json:"timeout"`
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// Deps wires a Manager. Rules, Calendar and Leaves are the external
// collaborators; Sink and Bus may be nil.
type Deps struct {
	Rules    rulestore.Store
	Calendar calendar.Provider
	Leaves   leave.Provider
	Sink     metrics.Sink
	Bus      eventbus.EventBus
	Log      logger.Logger
	Retry    RetryConfig
	// MaxIterations is handed to the optimizer as the default budget.
	MaxIterations int
}

// Manager owns one engine instance. Each solve works on snapshots taken at
// run start, so concurrent edits to rules or pins never reach an in-flight
// run.
type Manager struct {
	rules     rulestore.Store
	calendar  calendar.Provider
	leaves    leave.Provider
	generator *draft.Generator
	optimizer *optimize.Optimizer
	sink      metrics.Sink
	bus       eventbus.EventBus
	log       logger.Logger
	retry     RetryConfig

	mu        sync.Mutex
	ruleCache map[string]rules.RuleSet
	calCache  map[int]model.Calendar
	history   map[string]optimize.Result
}

// NewManager creates a Manager. The rule store, calendar and leave providers
// are mandatory.
func NewManager(deps Deps) (*Manager, error) {
	if deps.Rules == nil || deps.Calendar == nil || deps.Leaves == nil {
		return nil, fmt.Errorf("solver: nil collaborator provided to NewManager")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop{}
	}
	sink := deps.Sink
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Manager{
		rules:     deps.Rules,
		calendar:  deps.Calendar,
		leaves:    deps.Leaves,
		generator: draft.NewGenerator(log),
		optimizer: optimize.New(deps.MaxIterations, log),
		sink:      sink,
		bus:       deps.Bus,
		log:       log,
		retry:     deps.Retry.withDefaults(),
		ruleCache: make(map[string]rules.RuleSet),
		calCache:  make(map[int]model.Calendar),
		history:   make(map[string]optimize.Result),
	}, nil
}

// Close releases resources held by the manager.
func (m *Manager) Close() error {
	if m.bus != nil {
		m.bus.Close()
	}
	return nil
}

func (m *Manager) publish(e eventbus.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// callWithRetry runs fn with a per-attempt timeout and bounded backoff.
func (m *Manager) callWithRetry(ctx context.Context, upstream string, fn func(context.Context) error) error {
	var last error
	for attempt := 0; attempt < m.retry.Attempts; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, m.retry.Timeout)
		err := fn(cctx)
		cancel()
		if err == nil {
			return nil
		}
		last = err
		upstreamRetries.WithLabelValues(upstream).Inc()
		m.publish(UpstreamEvent{Upstream: upstream, Action: "retry", Err: err})
		m.log.Warnf("%s call failed (attempt %d/%d): %v", upstream, attempt+1, m.retry.Attempts, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retry.Backoff * time.Duration(attempt+1)):
		}
	}
	m.publish(UpstreamEvent{Upstream: upstream, Action: "exhausted", Err: last})
	return last
}

// FetchRules loads the scope's rule set with bounded retry. When retries
// exhaust and a cached copy exists, the cache is returned together with an
// UpstreamError flagged CacheUsed so callers can decide to proceed degraded.
// An absent rule set falls back to defaults without error.
func (m *Manager) FetchRules(ctx context.Context, scope model.Scope) (rules.RuleSet, error) {
	var (
		rs    rules.RuleSet
		found bool
	)
	err := m.callWithRetry(ctx, "rulestore", func(cctx context.Context) error {
		var ferr error
		rs, found, ferr = m.rules.Fetch(cctx, scope)
		return ferr
	})
	if err != nil {
		m.mu.Lock()
		cached, ok := m.ruleCache[scope.Key()]
		m.mu.Unlock()
		if ok {
			m.publish(UpstreamEvent{Upstream: "rulestore", Action: "cache_hit", Err: err})
			return cached.Clone(), &UpstreamError{Upstream: "rulestore", CacheUsed: true, Err: err}
		}
		return rules.RuleSet{}, &UpstreamError{Upstream: "rulestore", Err: err}
	}
	if !found {
		return rules.Default(scope), nil
	}
	if err := rs.Validate(); err != nil {
		return rules.RuleSet{}, err
	}
	m.mu.Lock()
	m.ruleCache[scope.Key()] = rs.Clone()
	m.mu.Unlock()
	return rs, nil
}

// FetchCalendar loads the year's holiday calendar with bounded retry,
// triggering ingestion once when the year is empty. Cache semantics match
// FetchRules.
func (m *Manager) FetchCalendar(ctx context.Context, year int) (model.Calendar, error) {
	var holidays []model.Holiday
	fetch := func(cctx context.Context) error {
		var ferr error
		holidays, ferr = m.calendar.HolidaysFor(cctx, year)
		return ferr
	}
	err := m.callWithRetry(ctx, "calendar", fetch)
	if err == nil && len(holidays) == 0 {
		// Empty year: ask the provider to ingest, then re-read.
		if gerr := m.callWithRetry(ctx, "calendar", func(cctx context.Context) error {
			return m.calendar.Generate(cctx, year)
		}); gerr == nil {
			err = m.callWithRetry(ctx, "calendar", fetch)
		}
	}
	if err != nil {
		m.mu.Lock()
		cached, ok := m.calCache[year]
		m.mu.Unlock()
		if ok {
			m.publish(UpstreamEvent{Upstream: "calendar", Action: "cache_hit", Err: err})
			return cached, &UpstreamError{Upstream: "calendar", CacheUsed: true, Err: err}
		}
		return model.Calendar{}, &UpstreamError{Upstream: "calendar", Err: err}
	}
	cal := model.NewCalendar(holidays)
	m.mu.Lock()
	m.calCache[year] = cal
	m.mu.Unlock()
	return cal, nil
}

// fetchLeaves collects approved leave dates for every staff member over the
// month.
func (m *Manager) fetchLeaves(ctx context.Context, staff []model.Person, year int, month time.Month) (map[string][]time.Time, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, month, model.DaysIn(year, month), 0, 0, 0, 0, time.UTC)
	out := make(map[string][]time.Time, len(staff))
	for _, p := range staff {
		var dates []time.Time
		err := m.callWithRetry(ctx, "leave", func(cctx context.Context) error {
			var ferr error
			dates, ferr = m.leaves.LeavesFor(cctx, p.ID, from, to)
			return ferr
		})
		if err != nil {
			return nil, &UpstreamError{Upstream: "leave", Err: err}
		}
		if len(dates) > 0 {
			out[p.ID] = dates
		}
	}
	return out, nil
}

// DraftParams mirrors the generateDraft operation. Month0 is 0-based, the
// convention of the transport layer this core is wrapped by.
type DraftParams struct {
	Scope              model.Scope
	Year               int
	Month0             int
	Role               string
	Rows               []model.ShiftRow
	Staff              []model.Person
	Registry           *pins.Registry
	Pins               []model.Pin
	LeavePolicy        string
	ForcePins          bool
	RequireEligibility bool
}

// Draft produces a first-pass schedule. Pins come from the registry snapshot
// when one is wired, otherwise from the explicit list.
func (m *Manager) Draft(ctx context.Context, p DraftParams) (draft.Draft, error) {
	month := time.Month(p.Month0 + 1)
	if err := model.ValidateYearMonth(p.Year, month); err != nil {
		return draft.Draft{}, err
	}
	start := time.Now()
	m.publish(StageEvent{Stage: metrics.StageDraft, Action: "start"})

	pinSnap := p.Pins
	if p.Registry != nil {
		pinSnap = p.Registry.Snapshot()
	}
	leaves, err := m.fetchLeaves(ctx, p.Staff, p.Year, month)
	if err != nil {
		return draft.Draft{}, err
	}
	// The draft stays a local fast pass: an unreachable rule store degrades
	// to default caps instead of failing the stage.
	rs, rerr := m.FetchRules(ctx, p.Scope)
	if rerr != nil {
		var ue *UpstreamError
		if errors.As(rerr, &ue) && ue.CacheUsed {
			m.log.Warnf("draft proceeding with cached rules: %v", rerr)
		} else {
			m.log.Warnf("draft proceeding with default rules: %v", rerr)
			rs = rules.Default(p.Scope)
		}
	}

	d, err := m.generator.Generate(draft.Request{
		Scope:              p.Scope,
		Year:               p.Year,
		Month:              month,
		Role:               p.Role,
		Rows:               p.Rows,
		Staff:              p.Staff,
		Pins:               pinSnap,
		Leaves:             leaves,
		Basic:              rs.Basic,
		Personnel:          rs.Personnel,
		LeavePolicy:        p.LeavePolicy,
		ForcePins:          p.ForcePins,
		RequireEligibility: p.RequireEligibility,
	})
	if err != nil {
		m.publish(StageEvent{Stage: metrics.StageDraft, Action: "finish", Err: err})
		return draft.Draft{}, err
	}

	elapsed := time.Since(start)
	solvesTotal.WithLabelValues(metrics.StageDraft).Inc()
	solveDuration.WithLabelValues(metrics.StageDraft).Observe(elapsed.Seconds())
	m.record(metrics.SolveRecord{
		Scope:       p.Scope,
		Year:        p.Year,
		Month:       month,
		Stage:       metrics.StageDraft,
		Assignments: len(d.Schedule.Assignments),
		Feasible:    d.Meta.OpenSlots == 0,
		Duration:    elapsed,
		Time:        time.Now(),
	})
	m.publish(StageEvent{Stage: metrics.StageDraft, Action: "finish"})
	return d, nil
}

// OptimizeParams mirrors the optimize operation. A nil Rules falls back to
// the rule store; a wired Registry supersedes the explicit pin list.
type OptimizeParams struct {
	Scope              model.Scope
	Year               int
	Month              time.Month
	Seed               model.Schedule
	Rules              *rules.RuleSet
	Registry           *pins.Registry
	Pins               []model.Pin
	Staff              []model.Person
	Rows               []model.ShiftRow
	TargetHours        float64
	LeavePolicy        string
	RequireEligibility bool
	RunID              string
	MaxIterations      int
}

// Optimize refines the seed schedule. Duplicate run IDs are answered from
// history and flagged Replayed; persistence ordering between concurrent
// solves stays the storage collaborator's concern.
func (m *Manager) Optimize(ctx context.Context, p OptimizeParams) (optimize.Result, error) {
	if err := model.ValidateYearMonth(p.Year, p.Month); err != nil {
		return optimize.Result{}, err
	}
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	} else {
		m.mu.Lock()
		prev, seen := m.history[p.RunID]
		m.mu.Unlock()
		if seen {
			m.log.Infof("run %s replayed from history", p.RunID)
			prev.Replayed = true
			return prev, nil
		}
	}
	start := time.Now()
	m.publish(StageEvent{RunID: p.RunID, Stage: metrics.StageOptimize, Action: "start"})

	var rs rules.RuleSet
	if p.Rules != nil {
		rs = p.Rules.Clone()
		if err := rs.Validate(); err != nil {
			return optimize.Result{}, err
		}
	} else {
		fetched, err := m.FetchRules(ctx, p.Scope)
		if err != nil {
			var ue *UpstreamError
			if !errors.As(err, &ue) || !ue.CacheUsed {
				return optimize.Result{}, err
			}
			m.log.Warnf("optimizing with cached rules: %v", err)
		}
		rs = fetched
	}

	cal, err := m.FetchCalendar(ctx, p.Year)
	if err != nil {
		var ue *UpstreamError
		if !errors.As(err, &ue) || !ue.CacheUsed {
			return optimize.Result{}, err
		}
		m.log.Warnf("optimizing with cached calendar: %v", err)
	}
	leaves, err := m.fetchLeaves(ctx, p.Staff, p.Year, p.Month)
	if err != nil {
		return optimize.Result{}, err
	}

	pinSnap := p.Pins
	if p.Registry != nil {
		pinSnap = p.Registry.Snapshot()
	}

	res, err := m.optimizer.Optimize(ctx, optimize.Request{
		Scope:              p.Scope,
		Year:               p.Year,
		Month:              p.Month,
		Seed:               p.Seed,
		Rules:              rs,
		Pins:               pinSnap,
		Staff:              p.Staff,
		Rows:               p.Rows,
		Leaves:             leaves,
		Calendar:           cal,
		LeavePolicy:        p.LeavePolicy,
		RequireEligibility: p.RequireEligibility,
		TargetHours:        p.TargetHours,
		RunID:              p.RunID,
		MaxIterations:      p.MaxIterations,
	})
	if err != nil {
		m.publish(StageEvent{RunID: p.RunID, Stage: metrics.StageOptimize, Action: "finish", Err: err})
		return optimize.Result{}, err
	}

	elapsed := time.Since(start)
	solvesTotal.WithLabelValues(metrics.StageOptimize).Inc()
	solveDuration.WithLabelValues(metrics.StageOptimize).Observe(elapsed.Seconds())
	residualGauge.Set(float64(len(res.Violations)))
	hard := 0
	for _, v := range res.Violations {
		if v.Severity == model.SeverityHard {
			hard++
		}
	}
	m.record(metrics.SolveRecord{
		RunID:          res.RunID,
		Scope:          p.Scope,
		Year:           p.Year,
		Month:          p.Month,
		Stage:          metrics.StageOptimize,
		Score:          res.Score,
		SeedScore:      res.SeedScore,
		Violations:     len(res.Violations),
		HardViolations: hard,
		Assignments:    len(res.Schedule.Assignments),
		Iterations:     res.Iterations,
		Feasible:       res.Feasible,
		Cancelled:      res.Cancelled,
		Duration:       elapsed,
		Time:           time.Now(),
	})
	m.mu.Lock()
	m.history[res.RunID] = res
	m.mu.Unlock()

	action := "finish"
	if res.Cancelled {
		action = "cancelled"
	}
	m.publish(StageEvent{RunID: p.RunID, Stage: metrics.StageOptimize, Action: action, Score: res.Score})
	return res, nil
}

// EvaluateParams mirrors the standalone evaluate operation used for what-if
// rule testing.
type EvaluateParams struct {
	Schedule           model.Schedule
	Rules              *rules.RuleSet
	Staff              []model.Person
	Rows               []model.ShiftRow
	LeavePolicy        string
	RequireEligibility bool
}

// Evaluate scores a candidate schedule standalone.
func (m *Manager) Evaluate(ctx context.Context, p EvaluateParams) (rules.Report, error) {
	if err := p.Schedule.Validate(); err != nil {
		return rules.Report{}, err
	}
	var rs rules.RuleSet
	if p.Rules != nil {
		rs = p.Rules.Clone()
	} else {
		fetched, err := m.FetchRules(ctx, p.Schedule.Scope)
		if err != nil {
			var ue *UpstreamError
			if !errors.As(err, &ue) || !ue.CacheUsed {
				return rules.Report{}, err
			}
		}
		rs = fetched
	}
	cal, err := m.FetchCalendar(ctx, p.Schedule.Year)
	if err != nil {
		var ue *UpstreamError
		if !errors.As(err, &ue) || !ue.CacheUsed {
			return rules.Report{}, err
		}
	}
	leaves, err := m.fetchLeaves(ctx, p.Staff, p.Schedule.Year, p.Schedule.Month)
	if err != nil {
		return rules.Report{}, err
	}
	rep := rules.Evaluate(rules.Input{
		Rules:              rs,
		Schedule:           p.Schedule,
		Calendar:           cal,
		Staff:              p.Staff,
		Rows:               p.Rows,
		Leaves:             leaves,
		LeavePolicy:        p.LeavePolicy,
		RequireEligibility: p.RequireEligibility,
	})
	solvesTotal.WithLabelValues(metrics.StageEvaluate).Inc()
	return rep, nil
}

// Compare diffs a draft against an optimized result.
func (m *Manager) Compare(d draft.Draft, res optimize.Result) compare.Comparison {
	return compare.Compare(d.Schedule, res.Schedule, res.Violations)
}

func (m *Manager) record(rec metrics.SolveRecord) {
	if err := m.sink.RecordSolve(rec); err != nil {
		m.log.Errorf("metrics error: %v", err)
	}
}
