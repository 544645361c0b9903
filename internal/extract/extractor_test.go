package extract

import (
	"fmt"
	"testing"
	"time"

	"github.com/coinpulse/btcnews/internal/news"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func testExtractor(now time.Time) *Extractor {
	return New(Config{
		BaseURL: "https://www.jinse.cn/lives/",
		Source:  "金色财经",
		Keywords: []string{
			"BTC", "btc", "Bitcoin", "bitcoin", "BITCOIN",
			"中国", "中本聪", "特朗普", "美联储",
		},
	}, &fakeClock{now: now})
}

func TestExtractIrrelevantTitle(t *testing.T) {
	t.Parallel()

	e := testExtractor(time.Now())
	cases := []string{
		`<html><head><title>黄金价格走势分析 - 金色财经</title></head></html>`,
		`<meta name="twitter:title" content="Ethereum merge complete">`,
		`<html><body>no title at all</body></html>`,
		``,
	}
	for _, raw := range cases {
		if _, ok := e.Extract(raw, 500000); ok {
			t.Fatalf("expected no record for markup %q", raw)
		}
	}
}

func TestExtractTitleOnlyPage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)
	e := testExtractor(now)
	raw := `<html><head><title>Bitcoin hits new high - 金色财经 - 区块链资讯</title></head><body></body></html>`

	rec, ok := e.Extract(raw, 500123)
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.ID != 500123 {
		t.Fatalf("id = %d, want 500123", rec.ID)
	}
	if rec.Title != "Bitcoin hits new high" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Content != rec.Title {
		t.Fatalf("content should fall back to title, got %q", rec.Content)
	}
	if rec.Link != "https://www.jinse.cn/lives/500123.html" {
		t.Fatalf("link = %q", rec.Link)
	}
	if rec.Source != "金色财经" {
		t.Fatalf("source = %q", rec.Source)
	}
	// 07:30 UTC is 15:30 Beijing time.
	if rec.Time != "2026-03-14 15:30" {
		t.Fatalf("time = %q", rec.Time)
	}
	if rec.ScrapedAt != now.Format(time.RFC3339) {
		t.Fatalf("scraped_at = %q", rec.ScrapedAt)
	}
}

func TestExtractPrefersTwitterMeta(t *testing.T) {
	t.Parallel()

	e := testExtractor(time.Now())
	raw := `<html><head>
<meta name="twitter:title" content="BTC突破10万美元">
<meta name="twitter:description" content="比特币价格创下历史新高，市场情绪高涨。">
<title>别的标题 - 金色财经</title>
</head></html>`

	rec, ok := e.Extract(raw, 488300)
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Title != "BTC突破10万美元" {
		t.Fatalf("title = %q", rec.Title)
	}
	if rec.Content != "比特币价格创下历史新高，市场情绪高涨。" {
		t.Fatalf("content = %q", rec.Content)
	}
}

func TestExtractContentFromContainers(t *testing.T) {
	t.Parallel()

	e := testExtractor(time.Now())
	raw := `<html><head><title>美联储降息影响 - 金色财经</title></head>
<body><div class="js-live-content live-content">
	<p>美联储宣布降息25个基点，&quot;风险资产&quot;普遍上涨，比特币短线拉升。</p>
</div></body></html>`

	rec, ok := e.Extract(raw, 488400)
	if !ok {
		t.Fatal("expected a record")
	}
	want := `美联储宣布降息25个基点，"风险资产"普遍上涨，比特币短线拉升。`
	if rec.Content != want {
		t.Fatalf("content = %q, want %q", rec.Content, want)
	}
}

func TestExtractShortContainerFallsThrough(t *testing.T) {
	t.Parallel()

	e := testExtractor(time.Now())
	raw := `<html><head><title>BTC快讯 - 金色财经</title></head>
<body><div class="content">short</div></body></html>`

	rec, ok := e.Extract(raw, 488500)
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Content != "BTC快讯" {
		t.Fatalf("content should fall back to title, got %q", rec.Content)
	}
}

func TestExtractTimePatterns(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	e := testExtractor(now)

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "datetime attribute",
			raw:  `<title>BTC - 金色财经</title><time datetime="2025-12-31T18:30:00+08:00"></time>`,
			want: "2025-12-31 18:30",
		},
		{
			name: "time span",
			raw:  `<title>BTC - 金色财经</title><span class="live-time">2025-11-05 09:15:00</span>`,
			want: "2025-11-05 09:15",
		},
		{
			name: "bare datetime substring",
			raw:  `<title>BTC - 金色财经</title><p>发布于 2025-10-01 12:00 左右</p>`,
			want: "2025-10-01 12:00",
		},
		{
			name: "unparseable falls back to extraction time",
			raw:  `<title>BTC - 金色财经</title><span class="time">刚刚</span>`,
			want: news.FormatTime(now),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, ok := e.Extract(tc.raw, 1)
			if !ok {
				t.Fatal("expected a record")
			}
			if rec.Time != tc.want {
				t.Fatalf("time = %q, want %q", rec.Time, tc.want)
			}
		})
	}
}

func TestRelevantIsCaseSensitive(t *testing.T) {
	t.Parallel()

	e := testExtractor(time.Now())
	if e.Relevant("btC price action") {
		t.Fatal("mixed-case variant outside the keyword set must not match")
	}
	if !e.Relevant("btc price action") {
		t.Fatal("exact keyword must match")
	}
	if e.Relevant("") {
		t.Fatal("empty text must not match")
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	in := "  <p>Fed&nbsp;holds &amp; watches\n\n <b>rates</b>&#39; path</p>  "
	want := "Fed holds & watches rates' path"
	if got := CleanText(in); got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<div> a  b </div>",
		"plain text",
		"tabs\tand\nnewlines",
		"&nbsp;&amp;&quot;",
	}
	for _, in := range inputs {
		once := CleanText(in)
		if twice := CleanText(once); twice != once {
			t.Fatalf("CleanText not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestLink(t *testing.T) {
	t.Parallel()

	e := testExtractor(time.Now())
	for _, id := range []int{488209, 500000} {
		want := fmt.Sprintf("https://www.jinse.cn/lives/%d.html", id)
		if got := e.Link(id); got != want {
			t.Fatalf("Link(%d) = %q, want %q", id, got, want)
		}
	}
}
