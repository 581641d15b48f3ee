package menu

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mensatf/mensascraper/internal/metrics"
)

// Engine orchestrates one scrape run: render each day page, extract meal
// cards, download their images, and log everything to a CSV.
type Engine struct {
	cfg      Config
	renderer Renderer
	images   ImageFetcher
	sink     *ImageSink
	limiter  *rate.Limiter
	clock    Clock
	logger   *zap.Logger
}

// NewEngine constructs an Engine from its collaborators.
func NewEngine(
	cfg Config,
	renderer Renderer,
	images ImageFetcher,
	sink *ImageSink,
	clock Clock,
	logger *zap.Logger,
) *Engine {
	limit := rate.Inf
	if cfg.HostQPS > 0 {
		limit = rate.Limit(cfg.HostQPS)
	}
	metrics.Init()
	return &Engine{
		cfg:      cfg,
		renderer: renderer,
		images:   images,
		sink:     sink,
		limiter:  rate.NewLimiter(limit, 1),
		clock:    clock,
		logger:   logger,
	}
}

// RunReport summarizes one completed scrape run.
type RunReport struct {
	RunID            string
	Start            time.Time
	Stop             time.Time
	DaysScraped      int
	DaysFailed       int
	Rows             int
	ImagesDownloaded int
	ImagesSkipped    int
	ImagesFailed     int
	CSVPath          string
	BytesOnDisk      int64
	Elapsed          time.Duration
}

// HumanSize renders the on-disk image footprint in human units.
func (r RunReport) HumanSize() string {
	return humanize.Bytes(uint64(r.BytesOnDisk))
}

// Run scrapes every day from start to stop inclusive and writes the CSV
// log. Per-day failures are logged and skipped; only context cancellation
// or a failed CSV write aborts the run.
func (e *Engine) Run(ctx context.Context, start, stop time.Time) (RunReport, error) {
	began := e.clock.Now()
	runID := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", runID))

	base, err := url.Parse(e.cfg.BaseURL)
	if err != nil {
		return RunReport{}, fmt.Errorf("parse base url: %w", err)
	}

	report := RunReport{
		RunID: runID,
		Start: start.Truncate(24 * time.Hour),
		Stop:  stop.Truncate(24 * time.Hour),
	}

	logger.Info("scrape run started",
		zap.String("start", ISODate(start)),
		zap.String("stop", ISODate(stop)),
		zap.String("out_dir", e.sink.Root()),
	)

	var meals []Meal
	for _, day := range Days(start, stop) {
		if err := e.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("rate limit wait: %w", err)
		}

		renderBegan := time.Now()
		pageHTML, err := e.renderer.Render(ctx, day)
		metrics.ObserveRenderDuration(time.Since(renderBegan))
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			metrics.ObserveDay(metrics.DayFailed)
			report.DaysFailed++
			logger.Warn("day page render failed",
				zap.String("date", ISODate(day)), zap.Error(err))
			continue
		}

		parsed, err := ParseDayPage(pageHTML, base, day)
		if err != nil {
			metrics.ObserveDay(metrics.DayFailed)
			report.DaysFailed++
			logger.Warn("day page parse failed",
				zap.String("date", ISODate(day)), zap.Error(err))
			continue
		}
		metrics.ObserveDay(metrics.DayScraped)
		metrics.ObserveMeals(len(parsed))
		report.DaysScraped++

		for _, meal := range parsed {
			saved, outcome := e.handleImage(ctx, logger, &meal)
			switch outcome {
			case metrics.ImageDownloaded:
				report.ImagesDownloaded++
			case metrics.ImageSkipped:
				report.ImagesSkipped++
			case metrics.ImageFailed:
				report.ImagesFailed++
			}
			if saved {
				meals = append(meals, meal)
			}
		}

		logger.Debug("day scraped",
			zap.String("date", ISODate(day)), zap.Int("meals", len(parsed)))
	}

	csvPath := CSVFileName(e.cfg.CSVName, start, stop)
	rows, err := WriteCSV(csvPath, meals)
	if err != nil {
		return report, err
	}
	report.Rows = rows
	report.CSVPath = csvPath

	if size, sizeErr := e.sink.TreeSize(); sizeErr == nil {
		report.BytesOnDisk = size
	} else {
		logger.Warn("disk usage scan failed", zap.Error(sizeErr))
	}
	report.Elapsed = e.clock.Now().Sub(began)

	logger.Info("scrape run finished",
		zap.Int("rows", report.Rows),
		zap.String("csv", report.CSVPath),
		zap.Int("days_scraped", report.DaysScraped),
		zap.Int("days_failed", report.DaysFailed),
		zap.Int("images_downloaded", report.ImagesDownloaded),
		zap.Int("images_skipped", report.ImagesSkipped),
		zap.String("images_size", report.HumanSize()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// Close releases the renderer's browser resources.
func (e *Engine) Close(ctx context.Context) error {
	if e.renderer == nil {
		return nil
	}
	return e.renderer.Close(ctx)
}

// handleImage ensures the meal's image is on disk, downloading it at most
// once. The meal's ImagePath is filled in on success. A failed download
// drops the meal from the CSV, matching the card-level continue-on-error
// behavior of the rest of the pipeline.
func (e *Engine) handleImage(ctx context.Context, logger *zap.Logger, meal *Meal) (bool, string) {
	target := e.sink.Target(*meal)
	meal.ImagePath = target

	if e.sink.Exists(target) {
		metrics.ObserveImage(metrics.ImageSkipped, 0)
		return true, metrics.ImageSkipped
	}

	imgCtx, cancel := context.WithTimeout(ctx, e.cfg.ImageTimeout)
	defer cancel()

	data, err := e.images.Fetch(imgCtx, meal.ImageURL)
	if err != nil {
		metrics.ObserveImage(metrics.ImageFailed, 0)
		logger.Warn("image fetch failed",
			zap.String("url", meal.ImageURL),
			zap.String("mensa", meal.Mensa),
			zap.Error(err))
		return false, metrics.ImageFailed
	}

	if err := e.sink.Save(ctx, target, data); err != nil {
		metrics.ObserveImage(metrics.ImageFailed, 0)
		logger.Warn("image save failed",
			zap.String("path", target), zap.Error(err))
		return false, metrics.ImageFailed
	}

	metrics.ObserveImage(metrics.ImageDownloaded, len(data))
	return true, metrics.ImageDownloaded
}
