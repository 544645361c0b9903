// Package collyfetcher implements news.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/coinpulse/btcnews/internal/news"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Headers   map[string]string
	Timeout   time.Duration
}

// Fetcher fetches single pages with the Colly collector. HTTP error
// statuses (404 included) come back as data; only transport-level
// failures surface as errors.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	// The frontier prober and the crawl loop may legitimately hit the
	// same URL twice in one run, so revisits must be allowed.
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.WithTransport(newHTTPTransport())
	return &Fetcher{cfg: cfg, baseCollector: c}
}

// Fetch executes a single HTTP GET.
func (f *Fetcher) Fetch(ctx context.Context, url string) (news.FetchResult, error) {
	var (
		result   news.FetchResult
		fetchErr error
	)
	collector := f.buildCollector(&result, &fetchErr)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return news.FetchResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		if result.StatusCode != 0 {
			return result, nil
		}
		if fetchErr != nil {
			return news.FetchResult{}, fmt.Errorf("fetch %s: %w", url, fetchErr)
		}
		if visitErr != nil {
			return news.FetchResult{}, fmt.Errorf("visit %s: %w", url, visitErr)
		}
		return news.FetchResult{}, fmt.Errorf("no response for %s", url)
	}
}

func (f *Fetcher) buildCollector(result *news.FetchResult, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	collector.OnRequest(func(r *colly.Request) {
		for key, value := range f.cfg.Headers {
			r.Headers.Set(key, value)
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		*result = news.FetchResult{
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		// Colly reports non-2xx statuses here; keep the status as data
		// and reserve the error for transport failures.
		if r != nil && r.StatusCode != 0 {
			*result = news.FetchResult{
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
			}
			return
		}
		*fetchErr = err
	})

	return collector
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
