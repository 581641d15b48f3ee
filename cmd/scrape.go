package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mensatf/mensascraper/internal/clock/system"
	"github.com/mensatf/mensascraper/internal/menu"
	"github.com/mensatf/mensascraper/internal/metrics"
)

// newScrapeCmd creates the 'scrape' subcommand, which runs the scrape
// pipeline over an explicit date range or the last N days.
func newScrapeCmd() *cobra.Command {
	var (
		startStr string
		stopStr  string
		daysBack int
		outDir   string
		csvName  string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes menus for a date range or the last N days",
		Long: `Scrapes every day from --start down to --stop (both ISO dates,
inclusive), or, when no explicit range is given, the last --days-back days
counting back from today.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			start, stop, err := resolveRange(startStr, stopStr, daysBack)
			if err != nil {
				return err
			}

			return runScrape(cmd.Context(), appInstance, start, stop, outDir, csvName)
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "start date YYYY-MM-DD (requires --stop)")
	cmd.Flags().StringVar(&stopStr, "stop", "", "stop date YYYY-MM-DD (requires --start)")
	cmd.Flags().IntVarP(&daysBack, "days-back", "d", 10, "days back from today (ignored if --start is used)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "image folder (default from config)")
	cmd.Flags().StringVarP(&csvName, "csv-name", "c", "", "CSV filename prefix (default from config)")

	return cmd
}

// resolveRange turns the CLI date flags into an inclusive start/stop pair.
// An explicit range needs both endpoints; otherwise the range is the last
// daysBack days anchored at today.
func resolveRange(startStr, stopStr string, daysBack int) (time.Time, time.Time, error) {
	if startStr != "" || stopStr != "" {
		if startStr == "" || stopStr == "" {
			return time.Time{}, time.Time{}, errors.New("specify both --start and --stop")
		}
		start, err := menu.ParseISODate(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		stop, err := menu.ParseISODate(stopStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, stop, nil
	}

	if daysBack < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("days back must be >= 1, got %d", daysBack)
	}
	start, stop := menu.RangeFromDaysBack(system.New().Today(), daysBack)
	return start, stop, nil
}

// runScrape builds the engine from configuration and executes one run.
func runScrape(ctx context.Context, appInstance App, start, stop time.Time, outDir, csvName string) error {
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	menuCfg := cfg.MenuConfig(outDir, csvName)
	if err := menuCfg.Validate(); err != nil {
		return fmt.Errorf("scrape config: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		srv := metrics.NewServer(cfg.Metrics.Port, logger.Named("metrics"))
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown failed", zap.Error(err))
			}
		}()
	}

	renderer, err := menu.NewChromedpRenderer(menuCfg, logger.Named("renderer"))
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	fetcher, err := menu.NewCollyImageFetcher(menuCfg, logger.Named("images"))
	if err != nil {
		return fmt.Errorf("init image fetcher: %w", err)
	}

	sink, err := menu.NewImageSink(menuCfg.OutDir, menuCfg.MaxImageBytes, logger.Named("sink"))
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}

	engine := menu.NewEngine(menuCfg, renderer, fetcher, sink, system.New(), logger.Named("engine"))
	defer func() {
		if cerr := engine.Close(ctx); cerr != nil {
			logger.Warn("failed to close engine", zap.Error(cerr))
		}
	}()

	if _, err := engine.Run(ctx, start, stop); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run scrape: %w", err)
	}
	return nil
}
