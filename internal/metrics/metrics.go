// Package metrics exposes Prometheus collectors for the menu scraper.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Day outcome label values.
const (
	DayScraped = "scraped"
	DayFailed  = "failed"
)

// Image outcome label values.
const (
	ImageDownloaded = "downloaded"
	ImageSkipped    = "skipped"
	ImageFailed     = "failed"
)

var (
	scraperDaysTotal            *prometheus.CounterVec
	scraperMealsTotal           prometheus.Counter
	scraperImagesTotal          *prometheus.CounterVec
	scraperImageBytesTotal      prometheus.Counter
	scraperRenderDurationSecond prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperDaysTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_days_total",
				Help: "Total number of day pages processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scraperMealsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_meals_total",
				Help: "Total number of meal cards extracted.",
			},
		)

		scraperImagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_images_total",
				Help: "Total number of dish images handled, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scraperImageBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_image_bytes_total",
				Help: "Total number of image bytes downloaded.",
			},
		)

		scraperRenderDurationSecond = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_render_duration_seconds",
				Help:    "Histogram of day page render latencies.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDay increments the day counter for the given outcome.
func ObserveDay(outcome string) {
	scraperDaysTotal.WithLabelValues(outcome).Inc()
}

// ObserveMeals adds extracted meal cards to the meal counter.
func ObserveMeals(count int) {
	if count > 0 {
		scraperMealsTotal.Add(float64(count))
	}
}

// ObserveImage increments the image counter and, for downloads, the byte total.
func ObserveImage(outcome string, bytesFetched int) {
	scraperImagesTotal.WithLabelValues(outcome).Inc()
	if outcome == ImageDownloaded && bytesFetched > 0 {
		scraperImageBytesTotal.Add(float64(bytesFetched))
	}
}

// ObserveRenderDuration records how long one day page took to render.
func ObserveRenderDuration(duration time.Duration) {
	scraperRenderDurationSecond.Observe(duration.Seconds())
}
