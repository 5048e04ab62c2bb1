package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/medrota/rosterd/app"
	"github.com/medrota/rosterd/core/compare"
	"github.com/medrota/rosterd/core/draft"
	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/optimize"
	"github.com/medrota/rosterd/core/solver"
	"github.com/medrota/rosterd/pkg/export"
)

var (
	solveInput  string
	solveOutput string
	solveCSV    string
	solveRunID  string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Draft, optimize and compare a monthly roster",
	RunE:  solve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveInput, "input", "i", "", "roster input file (JSON)")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "", "write the result to this file instead of stdout")
	solveCmd.Flags().StringVar(&solveCSV, "csv", "", "also export the optimized schedule as CSV to this file")
	solveCmd.Flags().StringVar(&solveRunID, "run-id", "", "idempotency key for the optimize stage")
	_ = solveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(solveCmd)
}

// rosterInput is the on-disk description of one solve: the scope, the staff,
// the shift grid, pinned slots and approved leave dates per person.
type rosterInput struct {
	Scope  model.Scope         `json:"scope"`
	Year   int                 `json:"year"`
	Month  int                 `json:"month"`
	Role   string              `json:"role,omitempty"`
	Rows   []model.ShiftRow    `json:"rows"`
	Staff  []model.Person      `json:"staff"`
	Pins   []model.Pin         `json:"pins,omitempty"`
	Leaves map[string][]string `json:"leaves,omitempty"`
}

// solveResult is the printed outcome of a full solve.
type solveResult struct {
	Draft      draft.Draft        `json:"draft"`
	Optimized  optimize.Result    `json:"optimized"`
	Comparison compare.Comparison `json:"comparison"`
}

func readRosterInput(path string) (rosterInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rosterInput{}, fmt.Errorf("read input: %w", err)
	}
	var in rosterInput
	if err := json.Unmarshal(data, &in); err != nil {
		return rosterInput{}, fmt.Errorf("parse input: %w", err)
	}
	return in, nil
}

func seedLeaves(svc *app.Service, leaves map[string][]string) error {
	for personID, dates := range leaves {
		for _, s := range dates {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fmt.Errorf("leave date %q for %s: %w", s, personID, err)
			}
			svc.Leaves.Grant(personID, d)
		}
	}
	return nil
}

func writeResult(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if solveOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(solveOutput, data, 0o644)
}

func solve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	in, err := readRosterInput(solveInput)
	if err != nil {
		return err
	}
	if err := seedLeaves(svc, in.Leaves); err != nil {
		return err
	}

	d, err := svc.Manager.Draft(ctx, solver.DraftParams{
		Scope:              in.Scope,
		Year:               in.Year,
		Month0:             in.Month - 1,
		Role:               in.Role,
		Rows:               in.Rows,
		Staff:              in.Staff,
		Pins:               in.Pins,
		LeavePolicy:        cfg.Solver.LeavePolicy,
		ForcePins:          true,
		RequireEligibility: cfg.Solver.RequireEligibility,
	})
	if err != nil {
		return fmt.Errorf("draft: %w", err)
	}

	res, err := svc.Manager.Optimize(ctx, solver.OptimizeParams{
		Scope:              in.Scope,
		Year:               in.Year,
		Month:              time.Month(in.Month),
		Seed:               d.Schedule,
		Pins:               in.Pins,
		Staff:              in.Staff,
		Rows:               in.Rows,
		TargetHours:        cfg.Solver.TargetHours,
		LeavePolicy:        cfg.Solver.LeavePolicy,
		RequireEligibility: cfg.Solver.RequireEligibility,
		RunID:              solveRunID,
	})
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	if solveCSV != "" {
		f, err := os.Create(solveCSV)
		if err != nil {
			return fmt.Errorf("csv export: %w", err)
		}
		if err := export.WriteCSV(f, res.Schedule); err != nil {
			_ = f.Close()
			return fmt.Errorf("csv export: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	return writeResult(solveResult{
		Draft:      d,
		Optimized:  res,
		Comparison: svc.Manager.Compare(d, res),
	})
}
