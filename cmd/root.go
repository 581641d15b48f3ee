// Package cmd defines and implements the CLI commands for the mensascraper executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mensatf/mensascraper/internal/config"
	"github.com/mensatf/mensascraper/internal/logging"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App bundles the services commands need. It is an interface so tests can
// inject a stub in place of the real configuration and logger.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	Close()
}

type scraperApp struct {
	cfg    config.Config
	logger *zap.Logger
}

func (a *scraperApp) Config() config.Config { return a.cfg }
func (a *scraperApp) Logger() *zap.Logger   { return a.logger }
func (a *scraperApp) Close()                { _ = a.logger.Sync() }

// newApp is the application factory. It's a variable so tests can replace
// it with a mock factory.
var newApp = func() (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return &scraperApp{cfg: cfg, logger: logger}, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mensascraper",
		Short: "Downloads mensa menu images and metadata for a date range.",
		Long: `mensascraper collects the daily menus of mensa.fachschaft.tf.
It renders each day page headlessly, extracts the meal cards, downloads the
dish images, and writes a CSV log. It runs either over an explicit date
range or as one worker of a cluster job array that splits a days-back
window across parallel, independent processes.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp()
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus MENSA_* env vars)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newWorkerCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
