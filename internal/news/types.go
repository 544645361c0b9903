// Package news defines core types shared across subsystems.
package news

// Record is one accepted news item. Records are immutable once built;
// the archive only ever prepends or evicts them.
type Record struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Time      string `json:"time"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`
}

// RunSummary is the structured result of one crawl run. The JSON field
// names match the wire format consumed by existing clients.
type RunSummary struct {
	Success         bool   `json:"success"`
	NewCount        int    `json:"newCount"`
	TotalCount      int    `json:"totalCount"`
	LastProcessedID int    `json:"lastProcessedId"`
	Duration        int64  `json:"duration"`
	Error           string `json:"error,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// ExecutionLog records the outcome of the most recent scheduled run.
// It is overwritten on every tick, never archived.
type ExecutionLog struct {
	Timestamp string      `json:"timestamp"`
	Result    *RunSummary `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	Success   bool        `json:"success"`
}

// FetchResult carries the status and body of a single page fetch.
// HTTP error statuses are data, not errors; only transport failures
// surface as errors from a Fetcher.
type FetchResult struct {
	StatusCode int
	Body       []byte
}
