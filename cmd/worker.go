package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mensatf/mensascraper/internal/clock/system"
	"github.com/mensatf/mensascraper/internal/partition"
)

// newWorkerCmd creates the 'worker' subcommand: one member of a job array
// that scrapes its share of a days-back window.
func newWorkerCmd() *cobra.Command {
	var (
		totalDays   int
		workerCount int
		workerIndex int
		outDir      string
		csvName     string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Runs one job-array worker over its slice of a days-back window",
		Long: `Partitions a window of --total-days days (counting back from today)
into contiguous chunks, one per worker, and scrapes the chunk belonging to
this worker's index. The index defaults to the scheduler's array index
environment variable, so each array task scrapes a distinct block of days
and writes a distinct CSV.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config()
			logger := appInstance.Logger()

			if !cmd.Flags().Changed("worker-count") {
				workerCount = cfg.Partition.WorkerCount
			}
			if !cmd.Flags().Changed("worker-index") {
				workerIndex, err = indexFromEnv(cfg.Partition.IndexEnvVar)
				if err != nil {
					return err
				}
			}

			job, err := partition.NewJob(totalDays, workerCount)
			if err != nil {
				return fmt.Errorf("partition config: %w", err)
			}

			assignment, ok, err := job.Assignment(workerIndex)
			if err != nil {
				return fmt.Errorf("partition config: %w", err)
			}
			if !ok {
				logger.Info("no work for this worker, window already covered",
					zap.Int("worker_index", workerIndex),
					zap.Int("worker_count", workerCount),
					zap.Int("total_days", totalDays),
				)
				return nil
			}

			anchor := system.New().Today()
			start, stop := assignment.Dates(anchor)

			base := csvName
			if base == "" {
				base = cfg.Output.CSVName
			}
			taggedCSV := assignment.Tag(base)

			logger.Info("worker assignment computed",
				zap.Int("worker_index", assignment.WorkerIndex),
				zap.Int("offset_start", assignment.OffsetStart),
				zap.Int("offset_stop", assignment.OffsetStop),
				zap.Time("start", start),
				zap.Time("stop", stop),
				zap.String("csv_name", taggedCSV),
			)

			return runScrape(cmd.Context(), appInstance, start, stop, outDir, taggedCSV)
		},
	}

	cmd.Flags().IntVar(&totalDays, "total-days", 0, "total days to cover, counting back from today (required)")
	cmd.Flags().IntVar(&workerCount, "worker-count", partition.DefaultWorkerCount, "size of the job array (default from config)")
	cmd.Flags().IntVar(&workerIndex, "worker-index", 0, "this worker's index (default from the scheduler env var)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "image folder (default from config)")
	cmd.Flags().StringVarP(&csvName, "csv-name", "c", "", "CSV filename prefix, tagged with the worker index")
	_ = cmd.MarkFlagRequired("total-days")

	return cmd
}

// indexFromEnv reads the job-array index from the scheduler's environment
// variable. A worker launched outside an array must pass --worker-index.
func indexFromEnv(envVar string) (int, error) {
	raw, set := os.LookupEnv(envVar)
	if !set {
		return 0, fmt.Errorf("worker index not given: set --worker-index or %s", envVar)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", envVar, raw, err)
	}
	return idx, nil
}
