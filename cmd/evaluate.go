package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
	"github.com/medrota/rosterd/core/solver"
)

var evaluateInput string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a schedule against a rule set without changing it",
	RunE:  evaluate,
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateInput, "input", "i", "", "evaluation input file (JSON)")
	_ = evaluateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(evaluateCmd)
}

// evaluationInput carries a candidate schedule and an optional what-if rule
// set. Without one the stored rules of the schedule's scope apply.
type evaluationInput struct {
	Schedule model.Schedule      `json:"schedule"`
	Rules    *rules.RuleSet      `json:"rules,omitempty"`
	Rows     []model.ShiftRow    `json:"rows"`
	Staff    []model.Person      `json:"staff"`
	Leaves   map[string][]string `json:"leaves,omitempty"`
}

func evaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	data, err := os.ReadFile(evaluateInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var in evaluationInput
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if err := seedLeaves(svc, in.Leaves); err != nil {
		return err
	}

	rep, err := svc.Manager.Evaluate(ctx, solver.EvaluateParams{
		Schedule:           in.Schedule,
		Rules:              in.Rules,
		Staff:              in.Staff,
		Rows:               in.Rows,
		LeavePolicy:        cfg.Solver.LeavePolicy,
		RequireEligibility: cfg.Solver.RequireEligibility,
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
