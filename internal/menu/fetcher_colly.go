package menu

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyImageFetcher implements ImageFetcher using the Colly collector.
type CollyImageFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyImageFetcher constructs a configured Colly-based image fetcher.
func NewCollyImageFetcher(cfg Config, logger *zap.Logger) (*CollyImageFetcher, error) {
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.CheckHead = false
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.ImageTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.ImageTimeout)

	return &CollyImageFetcher{
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Fetch downloads one image and returns its raw bytes.
func (f *CollyImageFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan imageResult, 1)
	var once sync.Once
	send := func(res imageResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			send(imageResult{err: errors.New(http.StatusText(r.StatusCode))})
			return
		}
		send(imageResult{body: append([]byte{}, r.Body...)})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(imageResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return res.body, res.err
	default:
		return nil, errors.New("image fetch produced no result")
	}
}

type imageResult struct {
	body []byte
	err  error
}
