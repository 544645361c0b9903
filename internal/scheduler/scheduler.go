// Package scheduler triggers crawl runs on a fixed interval and records
// each outcome so the HTTP surface can report scheduler health.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/news"
	"github.com/coinpulse/btcnews/internal/store"
)

// Runner executes one crawl run.
type Runner interface {
	Run(ctx context.Context) news.RunSummary
}

// Scheduler owns the periodic trigger. It never overlaps its own ticks
// (each tick completes before the next is consumed) but makes no
// attempt to serialize against manually triggered runs.
type Scheduler struct {
	runner   Runner
	store    *store.Adapter
	clock    news.Clock
	interval time.Duration
	logger   *zap.Logger
}

// New builds a Scheduler.
func New(runner Runner, st *store.Adapter, clock news.Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		store:    st,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled, executing one crawl per tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduled crawl and overwrites the execution log with
// its outcome.
func (s *Scheduler) Tick(ctx context.Context) news.RunSummary {
	s.logger.Info("scheduled crawl starting")
	summary := s.runner.Run(ctx)

	entry := news.ExecutionLog{
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339),
		Success:   summary.Success,
	}
	if summary.Success {
		entry.Result = &summary
	} else {
		entry.Error = summary.Error
	}
	s.store.SaveExecutionLog(ctx, entry)

	if summary.Success {
		s.logger.Info("scheduled crawl finished",
			zap.Int("new", summary.NewCount),
			zap.Int("total", summary.TotalCount),
		)
	} else {
		s.logger.Error("scheduled crawl failed", zap.String("error", summary.Error))
	}
	return summary
}
