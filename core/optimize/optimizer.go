// Package optimize refines a seed schedule with rule-aware local search.
package optimize

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medrota/rosterd/core/logger"
	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
)

// DefaultMaxIterations bounds the search when the request does not set its
// own budget. Termination is guaranteed by the bound, not by convergence.
const DefaultMaxIterations = 400

// Request carries one optimization run. Everything is a snapshot taken at run
// start; concurrent edits to rules or pins cannot reach an in-flight search.
type Request struct {
	Scope    model.Scope
	Year     int
	Month    time.Month
	Seed     model.Schedule
	Rules    rules.RuleSet
	Pins     []model.Pin
	Staff    []model.Person
	Rows     []model.ShiftRow
	Leaves   map[string][]time.Time
	Calendar model.Calendar

	LeavePolicy        string
	RequireEligibility bool

	// TargetHours is the desired monthly hour load per person. It never
	// outranks the rule score; it only breaks ties between equal-score
	// candidates toward a balanced roster.
	TargetHours float64

	// RunID is the caller-supplied idempotency identifier. Empty means the
	// optimizer assigns one.
	RunID string

	// MaxIterations overrides the optimizer default when positive.
	MaxIterations int
}

// Result is the outcome of a run. An infeasible schedule is a normal result
// carrying its residual violations, not an error, and a cancelled run returns
// the best schedule found so far.
type Result struct {
	RunID        string            `json:"run_id"`
	Schedule     model.Schedule    `json:"schedule"`
	Violations   []model.Violation `json:"violations"`
	Score        float64           `json:"score"`
	SeedScore    float64           `json:"seed_score"`
	Iterations   int               `json:"iterations"`
	Feasible     bool              `json:"feasible"`
	Cancelled    bool              `json:"cancelled"`
	AppliedRules rules.RuleSet     `json:"applied_rules"`
	// Replayed is set by the orchestration layer when a duplicate run ID
	// was answered from history.
	Replayed bool `json:"replayed,omitempty"`
}

// Optimizer runs bounded hill-climbing over roster schedules.
type Optimizer struct {
	maxIterations int
	log           logger.Logger
}

// New returns an Optimizer. Non-positive maxIterations selects the default
// budget; a nil logger falls back to a no-op one.
func New(maxIterations int, log logger.Logger) *Optimizer {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Optimizer{maxIterations: maxIterations, log: log}
}

// Optimize refines the seed schedule. Pinned slots are re-applied to the seed
// before searching and are never moved afterwards. The returned schedule's
// score never exceeds the (pinned) seed's score.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (Result, error) {
	if err := model.ValidateYearMonth(req.Year, req.Month); err != nil {
		return Result{}, err
	}
	if err := req.Rules.Validate(); err != nil {
		return Result{}, err
	}
	if req.Seed.Year == 0 {
		req.Seed = model.NewSchedule(req.Scope, req.Year, req.Month)
	}
	if err := req.Seed.Validate(); err != nil {
		return Result{}, err
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	budget := req.MaxIterations
	if budget <= 0 {
		budget = o.maxIterations
	}

	seed := req.Seed.Clone()
	for _, p := range req.Pins {
		seed.Set(p.Assignment())
	}
	seed.Sort()

	seedScore := evaluate(req, seed).Score

	groups := rowGroups(req, seed)
	var (
		optimized  model.Schedule
		iterations int
		cancelled  bool
	)
	if len(groups) <= 1 {
		optimized, iterations, cancelled = o.search(ctx, req, seed, req.Rows, budget)
	} else {
		optimized, iterations, cancelled = o.searchGroups(ctx, req, seed, groups, budget)
	}
	optimized.Sort()

	rep := evaluate(req, optimized)
	o.log.Infof("optimize %s: score %.1f -> %.1f in %d iterations", req.RunID, seedScore, rep.Score, iterations)
	return Result{
		RunID:        req.RunID,
		Schedule:     optimized,
		Violations:   rep.Violations,
		Score:        rep.Score,
		SeedScore:    seedScore,
		Iterations:   iterations,
		Feasible:     rep.Feasible(),
		Cancelled:    cancelled,
		AppliedRules: req.Rules.Clone(),
	}, nil
}

// evaluate scores a schedule with the run's rule context, restricted to the
// given rows when a subset is passed.
func evaluate(req Request, sched model.Schedule, rows ...[]model.ShiftRow) rules.Report {
	evalRows := req.Rows
	if len(rows) == 1 {
		evalRows = rows[0]
	}
	return rules.Evaluate(rules.Input{
		Rules:              req.Rules,
		Schedule:           sched,
		Calendar:           req.Calendar,
		Staff:              req.Staff,
		Rows:               evalRows,
		Leaves:             req.Leaves,
		LeavePolicy:        req.LeavePolicy,
		RequireEligibility: req.RequireEligibility,
	})
}

// rowGroups partitions rows into groups with disjoint eligible-person pools.
// Groups can be searched in parallel because no rule couples people across
// them. When eligibility is not enforced every person can serve every row,
// so there is a single group. Seed assignments crossing pools (a person
// placed on rows of two groups) collapse the partition as well.
func rowGroups(req Request, seed model.Schedule) [][]model.ShiftRow {
	if !req.RequireEligibility || len(req.Rows) < 2 {
		return nil
	}
	parent := make(map[string]string, len(req.Rows))
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b string) { parent[find(a)] = find(b) }
	for _, r := range req.Rows {
		parent[r.ID] = r.ID
	}
	// Rows sharing an eligible person belong together.
	firstRow := make(map[string]string)
	for _, r := range req.Rows {
		for _, p := range req.Staff {
			if !req.Rules.Personnel.Eligible(p, r.ID) {
				continue
			}
			if prev, ok := firstRow[p.ID]; ok {
				union(prev, r.ID)
			} else {
				firstRow[p.ID] = r.ID
			}
		}
	}
	// Seed placements couple rows the same way eligibility does.
	seedRow := make(map[string]string)
	for _, a := range seed.Assignments {
		if _, known := parent[a.RowID]; !known {
			continue
		}
		if prev, ok := seedRow[a.PersonID]; ok {
			union(prev, a.RowID)
		} else {
			seedRow[a.PersonID] = a.RowID
		}
	}
	byRoot := make(map[string][]model.ShiftRow)
	for _, r := range req.Rows {
		root := find(r.ID)
		byRoot[root] = append(byRoot[root], r)
	}
	if len(byRoot) < 2 {
		return nil
	}
	roots := make([]string, 0, len(byRoot))
	for root := range byRoot {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	groups := make([][]model.ShiftRow, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	return groups
}

// searchGroups runs one local search per independent row group. Each
// goroutine works on its own sub-schedule; the merge of results back into the
// shared schedule is serialized by a mutex.
func (o *Optimizer) searchGroups(ctx context.Context, req Request, seed model.Schedule, groups [][]model.ShiftRow, budget int) (model.Schedule, int, bool) {
	perGroup := budget / len(groups)
	if perGroup < 1 {
		perGroup = 1
	}

	merged := model.NewSchedule(req.Scope, req.Year, req.Month)
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		iterations int
		cancelled  bool
	)
	for _, group := range groups {
		wg.Add(1)
		go func(group []model.ShiftRow) {
			defer wg.Done()
			inGroup := make(map[string]bool, len(group))
			for _, r := range group {
				inGroup[r.ID] = true
			}
			sub := model.NewSchedule(req.Scope, req.Year, req.Month)
			for _, a := range seed.Assignments {
				if inGroup[a.RowID] {
					sub.Set(a)
				}
			}
			result, iters, cancel := o.search(ctx, req, sub, group, perGroup)
			mu.Lock()
			for _, a := range result.Assignments {
				merged.Set(a)
			}
			iterations += iters
			cancelled = cancelled || cancel
			mu.Unlock()
		}(group)
	}
	wg.Wait()
	// Assignments on rows outside every group (unknown rows) carry over.
	known := make(map[string]bool, len(req.Rows))
	for _, r := range req.Rows {
		known[r.ID] = true
	}
	for _, a := range seed.Assignments {
		if !known[a.RowID] {
			merged.Set(a)
		}
	}
	return merged, iterations, cancelled
}
