// Package cmd holds the rosterd CLI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medrota/rosterd/app"
	"github.com/medrota/rosterd/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "rosterd",
	Short: "Duty roster scheduling service",
	Long: "rosterd drafts, optimizes and evaluates monthly hospital duty " +
		"rosters. Without a subcommand it runs as a long-lived service.",
	RunE: runService,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// newService loads configuration and wires the service, shared by every
// subcommand.
func newService() (*app.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func runService(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return svc.Run(ctx)
}
