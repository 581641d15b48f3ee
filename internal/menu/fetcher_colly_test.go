package menu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFetcherConfig() Config {
	return Config{
		BaseURL:       "https://mensa.fachschaft.tf/",
		UserAgent:     "test-agent",
		NavTimeout:    10 * time.Second,
		SettleDelay:   0,
		MaxParallel:   1,
		ImageTimeout:  5 * time.Second,
		MaxImageBytes: 1 << 20,
		OutDir:        "images",
		CSVName:       "meals_raw",
	}
}

func TestCollyImageFetcherFetch(t *testing.T) {
	t.Parallel()

	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'e', 'g'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher, err := NewCollyImageFetcher(testFetcherConfig(), zap.NewNop())
	require.NoError(t, err)

	data, err := fetcher.Fetch(context.Background(), server.URL+"/images/kaese.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestCollyImageFetcherFetchTwice(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer server.Close()

	fetcher, err := NewCollyImageFetcher(testFetcherConfig(), zap.NewNop())
	require.NoError(t, err)

	// The same URL must be fetchable again on a later run.
	for i := 0; i < 2; i++ {
		data, err := fetcher.Fetch(context.Background(), server.URL+"/img.jpg")
		require.NoError(t, err)
		assert.Equal(t, "img", string(data))
	}
}

func TestCollyImageFetcherServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher, err := NewCollyImageFetcher(testFetcherConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing.jpg")
	assert.Error(t, err)
}

func TestCollyImageFetcherBadURL(t *testing.T) {
	t.Parallel()

	fetcher, err := NewCollyImageFetcher(testFetcherConfig(), zap.NewNop())
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "not-a-url")
	assert.Error(t, err)
}
