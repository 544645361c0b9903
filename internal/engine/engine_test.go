package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coinpulse/btcnews/internal/archive"
	"github.com/coinpulse/btcnews/internal/extract"
	"github.com/coinpulse/btcnews/internal/frontier"
	"github.com/coinpulse/btcnews/internal/kv/memory"
	"github.com/coinpulse/btcnews/internal/news"
	"github.com/coinpulse/btcnews/internal/store"
)

const testBase = "http://news.test/lives/"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeFetcher struct {
	pages map[string]news.FetchResult
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (news.FetchResult, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return news.FetchResult{}, err
	}
	if res, ok := f.pages[url]; ok {
		return res, nil
	}
	return news.FetchResult{StatusCode: 404}, nil
}

type fakePublisher struct {
	topic   string
	payload any
	calls   int
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.calls++
	p.topic = topic
	p.payload = payload
	return "msg-1", nil
}

func pageOK(title string) news.FetchResult {
	body := fmt.Sprintf("<html><head><title>%s - 金色财经</title></head></html>", title)
	return news.FetchResult{StatusCode: 200, Body: []byte(body)}
}

func testURL(id int) string {
	return news.PageURL(testBase, id)
}

func newTestEngine(kv news.KV, ff news.Fetcher, cfg Config, pub news.Publisher) (*Engine, *store.Adapter) {
	clk := fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	st := store.New(kv, 100, 100, nil)
	ex := extract.New(extract.Config{
		BaseURL:  testBase,
		Source:   "金色财经",
		Keywords: []string{"BTC", "btc", "Bitcoin"},
	}, clk)
	pr := frontier.NewProber(ff, frontier.Config{BaseURL: testBase, Offsets: []int{0, 5}}, nil)
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 30
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 100
	}
	eng := New(st, ff, pr, ex, archive.Merger{MaxItems: 100}, pub, clk, cfg, nil)
	return eng, st
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ff := &fakeFetcher{
		pages: map[string]news.FetchResult{
			testURL(101): pageOK("BTC突破新高"),
			testURL(102): pageOK("今日天气"),
			testURL(105): pageOK("Bitcoin ETF 获批"),
		},
		errs: map[string]error{
			testURL(104): errors.New("connection reset"),
		},
	}
	eng, st := newTestEngine(memory.New(), ff, Config{}, nil)

	summary := eng.Run(ctx)

	if !summary.Success {
		t.Fatalf("summary not successful: %+v", summary)
	}
	if summary.NewCount != 2 {
		t.Fatalf("newCount = %d, want 2", summary.NewCount)
	}
	if summary.TotalCount != 2 {
		t.Fatalf("totalCount = %d, want 2", summary.TotalCount)
	}
	if summary.LastProcessedID != 105 {
		t.Fatalf("lastProcessedId = %d, want 105", summary.LastProcessedID)
	}
	if summary.Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("timestamp = %q", summary.Timestamp)
	}

	if got := st.LastProcessedID(ctx); got != 105 {
		t.Fatalf("persisted cursor = %d, want 105", got)
	}
	arch := st.Archive(ctx)
	if len(arch) != 2 || arch[0].ID != 101 || arch[1].ID != 105 {
		t.Fatalf("archive mismatch: %+v", arch)
	}
	if arch[0].Title != "BTC突破新高" {
		t.Fatalf("title = %q", arch[0].Title)
	}
}

func TestRunAdvancesCursorWithoutAcceptedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ff := &fakeFetcher{
		pages: map[string]news.FetchResult{
			testURL(101): pageOK("今日股市"),
			testURL(102): pageOK("天气预报"),
			testURL(105): pageOK("房价走势"),
		},
	}
	eng, st := newTestEngine(memory.New(), ff, Config{}, nil)
	if !st.SaveArchive(ctx, []news.Record{{ID: 42, Title: "BTC old"}}) {
		t.Fatal("seed archive failed")
	}

	summary := eng.Run(ctx)

	if !summary.Success || summary.NewCount != 0 {
		t.Fatalf("summary = %+v, want success with zero new", summary)
	}
	if got := st.LastProcessedID(ctx); got != 105 {
		t.Fatalf("cursor = %d, want 105 (advanced past rejected pages)", got)
	}
	arch := st.Archive(ctx)
	if len(arch) != 1 || arch[0].ID != 42 {
		t.Fatalf("archive changed: %+v", arch)
	}
}

func TestRunCursorStaysOnAllMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng, st := newTestEngine(memory.New(), &fakeFetcher{}, Config{}, nil)

	summary := eng.Run(ctx)

	if !summary.Success {
		t.Fatalf("summary not successful: %+v", summary)
	}
	if got := st.LastProcessedID(ctx); got != 100 {
		t.Fatalf("cursor = %d, want unchanged 100", got)
	}
	if summary.LastProcessedID != 100 {
		t.Fatalf("summary cursor = %d, want 100", summary.LastProcessedID)
	}
}

func TestRunStopsAtBatchCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ff := &fakeFetcher{pages: map[string]news.FetchResult{}}
	for id := 101; id <= 110; id++ {
		ff.pages[testURL(id)] = pageOK(fmt.Sprintf("BTC 快讯 %d", id))
	}
	// Probe offset 5 lands on an existing page, so the frontier extends
	// well past the cap.
	eng, st := newTestEngine(memory.New(), ff, Config{BatchSize: 2}, nil)

	summary := eng.Run(ctx)

	if summary.NewCount != 2 {
		t.Fatalf("newCount = %d, want 2 (batch cap)", summary.NewCount)
	}
	if got := st.LastProcessedID(ctx); got != 102 {
		t.Fatalf("cursor = %d, want 102 (stopped at cap)", got)
	}
}

func TestRunPanicYieldsFailureSummary(t *testing.T) {
	t.Parallel()

	clk := fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	st := store.New(memory.New(), 100, 100, nil)
	ex := extract.New(extract.Config{BaseURL: testBase, Keywords: []string{"BTC"}}, clk)
	// nil prober makes the run blow up mid-flight.
	eng := New(st, &fakeFetcher{}, nil, ex, archive.Merger{MaxItems: 100}, nil, clk, Config{BatchSize: 30, WindowSize: 100}, nil)

	summary := eng.Run(context.Background())

	if summary.Success {
		t.Fatal("expected failure summary")
	}
	if summary.Error == "" {
		t.Fatal("expected error message in summary")
	}
	if summary.Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("timestamp = %q", summary.Timestamp)
	}
}

func TestRunPublishesSummaryWhenTopicSet(t *testing.T) {
	t.Parallel()

	ff := &fakeFetcher{pages: map[string]news.FetchResult{
		testURL(101): pageOK("BTC行情"),
	}}
	pub := &fakePublisher{}
	eng, _ := newTestEngine(memory.New(), ff, Config{Topic: "crawl-events"}, pub)

	summary := eng.Run(context.Background())

	if pub.calls != 1 {
		t.Fatalf("publish calls = %d, want 1", pub.calls)
	}
	if pub.topic != "crawl-events" {
		t.Fatalf("topic = %q", pub.topic)
	}
	got, ok := pub.payload.(news.RunSummary)
	if !ok || got.NewCount != summary.NewCount {
		t.Fatalf("payload mismatch: %+v", pub.payload)
	}
}

func TestRunSkipsPublishWithoutTopic(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	eng, _ := newTestEngine(memory.New(), &fakeFetcher{}, Config{}, pub)

	eng.Run(context.Background())

	if pub.calls != 0 {
		t.Fatalf("publish calls = %d, want 0", pub.calls)
	}
}
