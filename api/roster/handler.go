// Package roster exposes the scheduling engine over HTTP.
package roster

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medrota/rosterd/core/compare"
	"github.com/medrota/rosterd/core/draft"
	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/optimize"
	"github.com/medrota/rosterd/core/rules"
	"github.com/medrota/rosterd/core/solver"
)

// LeaveGranter records approved leave dates ahead of a solve. The in-memory
// leave provider satisfies it.
type LeaveGranter interface {
	Grant(personID string, dates ...time.Time)
}

// Options carries the solver knobs applied to every request.
type Options struct {
	LeavePolicy        string
	RequireEligibility bool
	TargetHours        float64
}

// SolveRequest is the JSON body of POST /api/roster/solve.
type SolveRequest struct {
	Scope  model.Scope         `json:"scope"`
	Year   int                 `json:"year"`
	Month  int                 `json:"month"`
	Role   string              `json:"role,omitempty"`
	Rows   []model.ShiftRow    `json:"rows"`
	Staff  []model.Person      `json:"staff"`
	Pins   []model.Pin         `json:"pins,omitempty"`
	Leaves map[string][]string `json:"leaves,omitempty"`
	RunID  string              `json:"run_id,omitempty"`
}

// SolveResponse is the JSON body returned by the solve endpoint.
type SolveResponse struct {
	Draft      draft.Draft        `json:"draft"`
	Optimized  optimize.Result    `json:"optimized"`
	Comparison compare.Comparison `json:"comparison"`
}

// EvaluateRequest is the JSON body of POST /api/roster/evaluate.
type EvaluateRequest struct {
	Schedule model.Schedule      `json:"schedule"`
	Rules    *rules.RuleSet      `json:"rules,omitempty"`
	Rows     []model.ShiftRow    `json:"rows"`
	Staff    []model.Person      `json:"staff"`
	Leaves   map[string][]string `json:"leaves,omitempty"`
}

func grantLeaves(grant LeaveGranter, leaves map[string][]string) error {
	if grant == nil {
		return nil
	}
	for personID, dates := range leaves {
		for _, s := range dates {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fmt.Errorf("leave date %q for %s: %w", s, personID, err)
			}
			grant.Grant(personID, d)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// NewSolveHandler returns an HTTP handler running a full draft and optimize
// pass via POST /api/roster/solve.
func NewSolveHandler(m *solver.Manager, grant LeaveGranter, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req SolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := grantLeaves(grant, req.Leaves); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := m.Draft(r.Context(), solver.DraftParams{
			Scope:              req.Scope,
			Year:               req.Year,
			Month0:             req.Month - 1,
			Role:               req.Role,
			Rows:               req.Rows,
			Staff:              req.Staff,
			Pins:               req.Pins,
			LeavePolicy:        opts.LeavePolicy,
			ForcePins:          true,
			RequireEligibility: opts.RequireEligibility,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		res, err := m.Optimize(r.Context(), solver.OptimizeParams{
			Scope:              req.Scope,
			Year:               req.Year,
			Month:              time.Month(req.Month),
			Seed:               d.Schedule,
			Pins:               req.Pins,
			Staff:              req.Staff,
			Rows:               req.Rows,
			TargetHours:        opts.TargetHours,
			LeavePolicy:        opts.LeavePolicy,
			RequireEligibility: opts.RequireEligibility,
			RunID:              req.RunID,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, SolveResponse{
			Draft:      d,
			Optimized:  res,
			Comparison: m.Compare(d, res),
		})
	})
}

// NewEvaluateHandler returns an HTTP handler scoring a candidate schedule via
// POST /api/roster/evaluate.
func NewEvaluateHandler(m *solver.Manager, grant LeaveGranter, opts Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req EvaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := grantLeaves(grant, req.Leaves); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		rep, err := m.Evaluate(r.Context(), solver.EvaluateParams{
			Schedule:           req.Schedule,
			Rules:              req.Rules,
			Staff:              req.Staff,
			Rows:               req.Rows,
			LeavePolicy:        opts.LeavePolicy,
			RequireEligibility: opts.RequireEligibility,
		})
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})
}
