package menu

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRenderer struct {
	pages  map[string][]byte
	failOn map[string]error
	closed bool
}

func (r *stubRenderer) Render(_ context.Context, d time.Time) ([]byte, error) {
	if err, ok := r.failOn[ISODate(d)]; ok {
		return nil, err
	}
	page, ok := r.pages[ISODate(d)]
	if !ok {
		return []byte("<html><body></body></html>"), nil
	}
	return page, nil
}

func (r *stubRenderer) Close(context.Context) error {
	r.closed = true
	return nil
}

type stubFetcher struct {
	body    []byte
	failOn  map[string]error
	fetched []string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	if err, ok := f.failOn[rawURL]; ok {
		return nil, err
	}
	f.fetched = append(f.fetched, rawURL)
	return f.body, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

const engineDayPage = `<html><body>
<h2>Mensa Rempartstraße</h2>
<div>
  <a href="/meal/1">
    <span>Essen 1</span>
    <div class="inline-flex">Vegetarisch</div>
    <div class="text-sm"><p>Käsespätzle</p></div>
    <img src="/images/kaese.jpg">
  </a>
  <a href="/meal/2">
    <span>Essen 2</span>
    <div class="text-sm"><p>Gulasch</p></div>
    <img src="/images/gulasch.jpg">
  </a>
</div>
</body></html>`

func newTestEngine(t *testing.T, renderer Renderer, fetcher ImageFetcher) (*Engine, Config) {
	t.Helper()
	tmp := t.TempDir()

	cfg := testFetcherConfig()
	cfg.OutDir = filepath.Join(tmp, "images")
	cfg.CSVName = filepath.Join(tmp, "meals_raw")
	require.NoError(t, cfg.Validate())

	sink, err := NewImageSink(cfg.OutDir, cfg.MaxImageBytes, zap.NewNop())
	require.NoError(t, err)

	clock := fixedClock{t: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	return NewEngine(cfg, renderer, fetcher, sink, clock, zap.NewNop()), cfg
}

func TestEngineRun(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{pages: map[string][]byte{
		"2024-12-31": []byte(engineDayPage),
		"2024-12-30": []byte(engineDayPage),
	}}
	fetcher := &stubFetcher{body: []byte("jpeg-bytes")}
	engine, cfg := newTestEngine(t, renderer, fetcher)

	report, err := engine.Run(context.Background(), day(2024, 12, 31), day(2024, 12, 30))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.DaysScraped)
	assert.Equal(t, 0, report.DaysFailed)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, report.ImagesDownloaded)
	assert.Equal(t, 0, report.ImagesSkipped)
	assert.Equal(t, CSVFileName(cfg.CSVName, day(2024, 12, 31), day(2024, 12, 30)), report.CSVPath)
	assert.Equal(t, int64(4*len("jpeg-bytes")), report.BytesOnDisk)

	// Images land in per-day directories under the folded mensa name.
	_, err = os.Stat(filepath.Join(cfg.OutDir, "2024-12-31", "mensa-rempartstrae_essen-1.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.OutDir, "2024-12-30", "mensa-rempartstrae_essen-2.jpg"))
	assert.NoError(t, err)

	// The CSV log exists and carries all rows.
	data, err := os.ReadFile(report.CSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Kasespatzle")
	assert.Contains(t, string(data), "Gulasch")
}

func TestEngineRunSkipsExistingImages(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{pages: map[string][]byte{
		"2024-12-31": []byte(engineDayPage),
	}}
	fetcher := &stubFetcher{body: []byte("jpeg-bytes")}
	engine, _ := newTestEngine(t, renderer, fetcher)

	_, err := engine.Run(context.Background(), day(2024, 12, 31), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, fetcher.fetched, 2)

	report, err := engine.Run(context.Background(), day(2024, 12, 31), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Len(t, fetcher.fetched, 2, "second run must not re-download")
	assert.Equal(t, 2, report.ImagesSkipped)
	assert.Equal(t, 0, report.ImagesDownloaded)
	assert.Equal(t, 2, report.Rows, "skipped images still produce CSV rows")
}

func TestEngineRunContinuesPastFailedDay(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{
		pages: map[string][]byte{
			"2024-12-31": []byte(engineDayPage),
			"2024-12-29": []byte(engineDayPage),
		},
		failOn: map[string]error{
			"2024-12-30": errors.New("navigation timeout"),
		},
	}
	fetcher := &stubFetcher{body: []byte("jpeg-bytes")}
	engine, _ := newTestEngine(t, renderer, fetcher)

	report, err := engine.Run(context.Background(), day(2024, 12, 31), day(2024, 12, 29))
	require.NoError(t, err)
	assert.Equal(t, 2, report.DaysScraped)
	assert.Equal(t, 1, report.DaysFailed)
	assert.Equal(t, 4, report.Rows)
}

func TestEngineRunDropsMealOnImageFailure(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{pages: map[string][]byte{
		"2024-12-31": []byte(engineDayPage),
	}}
	fetcher := &stubFetcher{
		body: []byte("jpeg-bytes"),
		failOn: map[string]error{
			"https://mensa.fachschaft.tf/images/gulasch.jpg": errors.New("connection refused"),
		},
	}
	engine, _ := newTestEngine(t, renderer, fetcher)

	report, err := engine.Run(context.Background(), day(2024, 12, 31), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rows, "meal without its image is dropped from the CSV")
	assert.Equal(t, 1, report.ImagesDownloaded)
	assert.Equal(t, 1, report.ImagesFailed)
}

func TestEngineRunCanceledContext(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{
		failOn: map[string]error{"2024-12-31": context.Canceled},
	}
	engine, _ := newTestEngine(t, renderer, &stubFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, day(2024, 12, 31), day(2024, 12, 30))
	assert.Error(t, err)
}

func TestEngineRunEmptyDaysStillWritesCSV(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{}
	engine, _ := newTestEngine(t, renderer, &stubFetcher{})

	report, err := engine.Run(context.Background(), day(2024, 12, 31), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Rows)

	data, err := os.ReadFile(report.CSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "description", "header-only CSV is written")
}

func TestEngineClose(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{}
	engine, _ := newTestEngine(t, renderer, &stubFetcher{})
	require.NoError(t, engine.Close(context.Background()))
	assert.True(t, renderer.closed)
}
