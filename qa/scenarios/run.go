package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/medrota/rosterd/core/metrics"
	"github.com/medrota/rosterd/core/model"
	"github.com/medrota/rosterd/core/rules"
	"github.com/medrota/rosterd/core/solver"
	"github.com/medrota/rosterd/infra/calendar"
	"github.com/medrota/rosterd/infra/leave"
	"github.com/medrota/rosterd/infra/logger"
	"github.com/medrota/rosterd/infra/metrics"
	"github.com/medrota/rosterd/infra/rulestore"
	"github.com/medrota/rosterd/internal/eventbus"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	leaves := leave.NewMemoryProvider()
	for personID, dates := range sc.Leaves {
		for _, s := range dates {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				t.Fatalf("leave date %q: %v", s, err)
			}
			leaves.Grant(personID, d)
		}
	}

	bus := eventbus.New()
	mgr, err := solver.NewManager(solver.Deps{
		Rules:    rulestore.NewMemoryStore(),
		Calendar: calendar.NewMemoryProvider(calendar.FixedNationalSeeder),
		Leaves:   leaves,
		Sink:     sink,
		Bus:      bus,
		Log:      logger.Nop{},
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer func() { _ = mgr.Close() }()

	rows := make([]model.ShiftRow, len(sc.Rows))
	for i, r := range sc.Rows {
		rows[i] = r.ToModel()
	}
	staff := make([]model.Person, len(sc.Staff))
	for i, p := range sc.Staff {
		staff[i] = p.ToModel()
	}
	pins := make([]model.Pin, len(sc.Pins))
	for i, p := range sc.Pins {
		pins[i] = p.ToModel()
	}

	ctx := context.Background()
	d, err := mgr.Draft(ctx, solver.DraftParams{
		Scope:       sc.Scope.ToModel(),
		Year:        sc.Year,
		Month0:      sc.Month - 1,
		Rows:        rows,
		Staff:       staff,
		Pins:        pins,
		LeavePolicy: rules.LeavePolicyHard,
		ForcePins:   true,
	})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if d.Meta.OpenSlots > sc.Expected.MaxOpenSlots {
		t.Errorf("draft open slots %d exceed %d", d.Meta.OpenSlots, sc.Expected.MaxOpenSlots)
	}

	res, err := mgr.Optimize(ctx, solver.OptimizeParams{
		Scope:       sc.Scope.ToModel(),
		Year:        sc.Year,
		Month:       time.Month(sc.Month),
		Seed:        d.Schedule,
		Pins:        pins,
		Staff:       staff,
		Rows:        rows,
		LeavePolicy: rules.LeavePolicyHard,
	})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	if res.Score > res.SeedScore {
		t.Errorf("score %v regressed past seed %v", res.Score, res.SeedScore)
	}
	hard := 0
	for _, v := range res.Violations {
		if v.Severity == model.SeverityHard {
			hard++
		}
	}
	if hard > sc.Expected.MaxHardViolations {
		t.Errorf("hard violations %d exceed %d", hard, sc.Expected.MaxHardViolations)
	}
	if sc.Expected.PinsKept {
		for _, p := range pins {
			got, ok := res.Schedule.At(p.Day, p.RowID)
			if !ok || got.PersonID != p.PersonID {
				t.Errorf("pin day %d row %s lost: got %q", p.Day, p.RowID, got.PersonID)
			}
		}
	}
}
