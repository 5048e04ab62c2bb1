package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/medrota/rosterd/api/roster"
	"github.com/medrota/rosterd/config"
	corecalendar "github.com/medrota/rosterd/core/calendar"
	"github.com/medrota/rosterd/core/rulestore"
	"github.com/medrota/rosterd/core/solver"
	"github.com/medrota/rosterd/infra/calendar"
	"github.com/medrota/rosterd/infra/leave"
	"github.com/medrota/rosterd/infra/logger"
	"github.com/medrota/rosterd/infra/metrics"
	infrarulestore "github.com/medrota/rosterd/infra/rulestore"
	"github.com/medrota/rosterd/internal/eventbus"
)

// Service orchestrates the solver manager and its stores.
type Service struct {
	Manager  *solver.Manager
	Rules    rulestore.Store
	Calendar corecalendar.Provider
	Leaves   *leave.MemoryProvider

	bus         eventbus.EventBus
	log         logger.Logger
	promEnabled bool
	promPort    string
	apiEnabled  bool
	apiAddr     string
	solveOpts   roster.Options
	closers     []func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	svc := &Service{
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
		apiEnabled:  cfg.API.Enabled,
		apiAddr:     cfg.API.Addr,
		solveOpts: roster.Options{
			LeavePolicy:        cfg.Solver.LeavePolicy,
			RequireEligibility: cfg.Solver.RequireEligibility,
			TargetHours:        cfg.Solver.TargetHours,
		},
	}

	switch cfg.Stores.Backend {
	case "sqlite":
		ruleStore, err := infrarulestore.NewSQLiteStore(cfg.Stores.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("rule store: %w", err)
		}
		svc.closers = append(svc.closers, ruleStore.Close)
		calStore, err := calendar.NewSQLiteProvider(cfg.Stores.CalendarPath, calendar.FixedNationalSeeder)
		if err != nil {
			return nil, fmt.Errorf("calendar store: %w", err)
		}
		svc.closers = append(svc.closers, calStore.Close)
		svc.Rules = ruleStore
		svc.Calendar = calStore
	default:
		svc.Rules = infrarulestore.NewMemoryStore()
		svc.Calendar = calendar.NewMemoryProvider(calendar.FixedNationalSeeder)
	}
	svc.Leaves = leave.NewMemoryProvider()

	svc.bus = eventbus.New()
	manager, err := solver.NewManager(solver.Deps{
		Rules:         svc.Rules,
		Calendar:      svc.Calendar,
		Leaves:        svc.Leaves,
		Sink:          sink,
		Bus:           svc.bus,
		Log:           logg,
		Retry:         cfg.Retry.Solver(),
		MaxIterations: cfg.Solver.MaxIterations,
	})
	if err != nil {
		return nil, fmt.Errorf("solver manager: %w", err)
	}
	svc.Manager = manager
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.apiEnabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	s.log.Infof("rosterd ready")
	<-ctx.Done()
	return nil
}

func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/roster/solve", roster.NewSolveHandler(s.Manager, s.Leaves, s.solveOpts))
	mux.Handle("/api/roster/evaluate", roster.NewEvaluateHandler(s.Manager, s.Leaves, s.solveOpts))
	srv := &http.Server{Addr: s.apiAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var first error
	if err := s.Manager.Close(); err != nil {
		first = err
	}
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
