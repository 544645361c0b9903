// Package frontier estimates how far the live id space has advanced and
// plans the bounded scan window for a run.
package frontier

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/news"
)

// Range is the estimated span of currently existing external ids.
// Max is a heuristic upper bound, not a guarantee: the true frontier
// may be beyond the largest offset probed.
type Range struct {
	Min int
	Max int
}

// Window is the inclusive id range one run will scan. End < Start is a
// valid degenerate window and yields zero iterations downstream.
type Window struct {
	Start int
	End   int
}

// Config controls probing behavior.
type Config struct {
	BaseURL string
	Offsets []int
	Delay   time.Duration
}

// Prober samples candidate ids ahead of a cursor with lightweight
// existence checks.
type Prober struct {
	fetcher news.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// NewProber builds a Prober.
func NewProber(fetcher news.Fetcher, cfg Config, logger *zap.Logger) *Prober {
	if len(cfg.Offsets) == 0 {
		cfg.Offsets = []int{0, 50, 100, 200}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Probe checks a fixed set of offsets ahead of startID. Max is the
// largest id that answered with HTTP 200, defaulting to startID plus
// the largest configured offset when none do. Probe failures are
// swallowed; they simply do not raise Max.
func (p *Prober) Probe(ctx context.Context, startID int) Range {
	r := Range{Min: startID, Max: -1}
	for _, off := range p.cfg.Offsets {
		id := startID + off
		res, err := p.fetcher.Fetch(ctx, news.PageURL(p.cfg.BaseURL, id))
		switch {
		case err != nil:
			p.logger.Debug("frontier probe failed", zap.Int("id", id), zap.Error(err))
		case res.StatusCode == http.StatusOK:
			p.logger.Debug("frontier probe hit", zap.Int("id", id))
			if id > r.Max {
				r.Max = id
			}
		}
		sleep(ctx, p.cfg.Delay)
	}
	if r.Max < 0 {
		r.Max = startID + p.maxOffset()
	}
	return r
}

func (p *Prober) maxOffset() int {
	max := 0
	for _, off := range p.cfg.Offsets {
		if off > max {
			max = off
		}
	}
	return max
}

// PlanWindow computes the scan range for a run: start just past the
// last processed id (never behind the frontier minimum), end capped by
// both the window size and the frontier maximum.
func PlanWindow(lastID int, r Range, windowSize int) Window {
	start := lastID + 1
	if r.Min > start {
		start = r.Min
	}
	end := start + windowSize
	if r.Max < end {
		end = r.Max
	}
	return Window{Start: start, End: end}
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
