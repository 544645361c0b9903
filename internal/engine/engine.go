// Package engine drives one full ingest run: probe the id frontier,
// scan a bounded window of candidate pages, extract and filter records,
// then persist the advanced cursor and the merged archive.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/archive"
	"github.com/coinpulse/btcnews/internal/extract"
	"github.com/coinpulse/btcnews/internal/frontier"
	"github.com/coinpulse/btcnews/internal/metrics"
	"github.com/coinpulse/btcnews/internal/news"
	"github.com/coinpulse/btcnews/internal/store"
)

// Config controls run pacing and batch bounds.
type Config struct {
	// BatchSize caps the number of accepted records per run.
	BatchSize int
	// WindowSize bounds the id scan window per run.
	WindowSize int
	// Delay is the pause after every fetch attempt.
	Delay time.Duration
	// Topic, when set, receives a run summary after each run.
	Topic string
}

// Engine orchestrates one crawl run at a time. It holds no run state
// between invocations; everything durable lives behind the store.
type Engine struct {
	store     *store.Adapter
	fetcher   news.Fetcher
	prober    *frontier.Prober
	extractor *extract.Extractor
	merger    archive.Merger
	publisher news.Publisher
	clock     news.Clock
	cfg       Config
	logger    *zap.Logger
}

// New builds an Engine. publisher may be nil when no topic is
// configured.
func New(
	st *store.Adapter,
	fetcher news.Fetcher,
	prober *frontier.Prober,
	extractor *extract.Extractor,
	merger archive.Merger,
	publisher news.Publisher,
	clock news.Clock,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     st,
		fetcher:   fetcher,
		prober:    prober,
		extractor: extractor,
		merger:    merger,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes a single crawl run and always returns a summary, never
// an error: any panic is converted into a failure summary so callers
// (handlers, the scheduler) stay alive.
func (e *Engine) Run(ctx context.Context) (summary news.RunSummary) {
	start := e.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("crawl run panicked", zap.Any("cause", r))
			summary = news.RunSummary{
				Success:   false,
				Error:     fmt.Sprint(r),
				Timestamp: e.clock.Now().UTC().Format(time.RFC3339),
			}
			metrics.ObserveRun("panic", e.clock.Now().Sub(start))
		}
	}()

	lastID := e.store.LastProcessedID(ctx)
	e.logger.Info("crawl run starting", zap.Int("last_processed_id", lastID))

	rng := e.prober.Probe(ctx, lastID)
	win := frontier.PlanWindow(lastID, rng, e.cfg.WindowSize)
	e.logger.Info("scan window planned",
		zap.Int("start", win.Start),
		zap.Int("end", win.End),
		zap.Int("frontier_max", rng.Max),
	)

	batch := make([]news.Record, 0, e.cfg.BatchSize)
	cursor := lastID
	for id := win.Start; id <= win.End; id++ {
		rec, fetched := e.processID(ctx, id)
		if fetched && id > cursor {
			cursor = id
		}
		if rec != nil {
			batch = append(batch, *rec)
		}
		sleep(ctx, e.cfg.Delay)
		if len(batch) >= e.cfg.BatchSize {
			e.logger.Info("batch cap reached", zap.Int("id", id))
			break
		}
	}

	e.store.SaveLastProcessedID(ctx, cursor)
	merged := e.merger.Merge(batch, e.store.Archive(ctx))
	e.store.SaveArchive(ctx, merged)

	end := e.clock.Now()
	summary = news.RunSummary{
		Success:         true,
		NewCount:        len(batch),
		TotalCount:      len(merged),
		LastProcessedID: cursor,
		Duration:        int64(end.Sub(start) / time.Second),
		Timestamp:       end.UTC().Format(time.RFC3339),
	}
	e.logger.Info("crawl run finished",
		zap.Int("new", summary.NewCount),
		zap.Int("total", summary.TotalCount),
		zap.Int("last_processed_id", summary.LastProcessedID),
		zap.Int64("duration_s", summary.Duration),
	)

	metrics.ObserveRun("success", end.Sub(start))
	metrics.AddAccepted(len(batch))
	metrics.SetArchiveSize(len(merged))
	metrics.SetCursor(cursor)

	e.publish(ctx, summary)
	return summary
}

// processID fetches and extracts one candidate page. The bool reports
// whether the page was fetched with HTTP 200, which is what advances
// the cursor; the record is non-nil only when the page also passed the
// relevance filter.
func (e *Engine) processID(ctx context.Context, id int) (*news.Record, bool) {
	res, err := e.fetcher.Fetch(ctx, e.extractor.Link(id))
	if err != nil {
		e.logger.Warn("page fetch failed", zap.Int("id", id), zap.Error(err))
		metrics.ObservePage("error")
		return nil, false
	}
	metrics.ObservePage(strconv.Itoa(res.StatusCode))
	switch {
	case res.StatusCode == http.StatusNotFound:
		// Gaps in the id space are routine, not worth a warning.
		e.logger.Debug("page absent", zap.Int("id", id))
		return nil, false
	case res.StatusCode != http.StatusOK:
		e.logger.Warn("unexpected page status", zap.Int("id", id), zap.Int("status", res.StatusCode))
		return nil, false
	}

	rec, ok := e.extractor.Extract(string(res.Body), id)
	if !ok {
		e.logger.Debug("page rejected", zap.Int("id", id))
		return nil, true
	}
	e.logger.Info("record accepted", zap.Int("id", id), zap.String("title", rec.Title))
	return &rec, true
}

func (e *Engine) publish(ctx context.Context, summary news.RunSummary) {
	if e.publisher == nil || e.cfg.Topic == "" {
		return
	}
	msgID, err := e.publisher.Publish(ctx, e.cfg.Topic, summary)
	if err != nil {
		e.logger.Error("publish run summary failed", zap.Error(err))
		return
	}
	e.logger.Debug("run summary published", zap.String("message_id", msgID))
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
