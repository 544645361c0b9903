// Package extract turns raw page markup into structured news records.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coinpulse/btcnews/internal/news"
)

// The site serves mostly static markup with stable class names, so a
// handful of anchored patterns beats a full DOM parse here.
var (
	twitterTitleRe = regexp.MustCompile(`(?i)<meta[^>]*name="twitter:title"[^>]*content="([^"]*)"[^>]*>`)
	titleTagRe     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	siteSuffixRe   = regexp.MustCompile(`(?s)\s*-\s*金色财经.*$`)
	twitterDescRe  = regexp.MustCompile(`(?i)<meta[^>]*name="twitter:description"[^>]*content="([^"]*)"[^>]*>`)

	contentRes = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<div[^>]*class="[^"]*live-content[^"]*"[^>]*>(.*?)</div>`),
		regexp.MustCompile(`(?s)<div[^>]*class="[^"]*content[^"]*"[^>]*>(.*?)</div>`),
		regexp.MustCompile(`(?s)<article[^>]*>(.*?)</article>`),
		regexp.MustCompile(`(?s)<p[^>]*>(.*?)</p>`),
	}

	timeRes = []*regexp.Regexp{
		regexp.MustCompile(`<time[^>]*datetime="([^"]*)"[^>]*>`),
		regexp.MustCompile(`(?s)<span[^>]*class="[^"]*time[^"]*"[^>]*>(.*?)</span>`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2})`),
	}

	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// Layouts tried when parsing publish timestamps, most specific first.
// Bare timestamps are interpreted in the site's UTC+8 calendar.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Config controls extraction behavior.
type Config struct {
	BaseURL       string
	Source        string
	Keywords      []string
	ContentMinLen int
}

// Extractor decides relevance and pulls structured fields out of raw
// markup. It holds no store access; time comes from the injected clock.
type Extractor struct {
	cfg   Config
	clock news.Clock
}

// New builds an Extractor.
func New(cfg Config, clock news.Clock) *Extractor {
	if cfg.ContentMinLen == 0 {
		cfg.ContentMinLen = 20
	}
	return &Extractor{cfg: cfg, clock: clock}
}

// Extract resolves a record from raw markup. The second return value is
// false when the page has no usable title, when the title fails the
// relevance predicate, or when anything at all goes wrong: extraction
// never propagates an error to its caller.
func (e *Extractor) Extract(raw string, id int) (rec news.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rec, ok = news.Record{}, false
		}
	}()

	title := e.resolveTitle(raw)
	if title == "" || !e.Relevant(title) {
		return news.Record{}, false
	}

	content := e.resolveContent(raw)
	if content == "" {
		content = title
	}

	now := e.clock.Now()
	return news.Record{
		ID:        id,
		Title:     title,
		Content:   content,
		Time:      e.resolveTime(raw, now),
		Link:      e.Link(id),
		Source:    e.cfg.Source,
		ScrapedAt: now.UTC().Format(time.RFC3339),
	}, true
}

// Relevant reports whether text contains at least one configured
// keyword. Matching is case-sensitive exact substring.
func (e *Extractor) Relevant(text string) bool {
	if text == "" {
		return false
	}
	for _, kw := range e.cfg.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Link builds the deterministic page URL for an id.
func (e *Extractor) Link(id int) string {
	return news.PageURL(e.cfg.BaseURL, id)
}

func (e *Extractor) resolveTitle(raw string) string {
	if m := twitterTitleRe.FindStringSubmatch(raw); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	if m := titleTagRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(siteSuffixRe.ReplaceAllString(m[1], ""))
	}
	return ""
}

func (e *Extractor) resolveContent(raw string) string {
	if m := twitterDescRe.FindStringSubmatch(raw); m != nil {
		if c := strings.TrimSpace(m[1]); c != "" {
			return c
		}
	}
	for _, re := range contentRes {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if c := CleanText(m[1]); utf8.RuneCountInString(c) > e.cfg.ContentMinLen {
			return c
		}
	}
	return ""
}

func (e *Extractor) resolveTime(raw string, fallback time.Time) string {
	for _, re := range timeRes {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if t, err := parseTime(CleanText(m[1])); err == nil {
			return news.FormatTime(t)
		}
	}
	return news.FormatTime(fallback)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, news.CST); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}

// CleanText strips markup tags, decodes the fixed entity set, collapses
// whitespace runs, and trims.
func CleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = entityReplacer.Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
