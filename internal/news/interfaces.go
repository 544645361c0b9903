package news

import (
	"context"
	"time"
)

// KV is the persistent key-value capability backing the store adapter.
// Each operation is independently atomic; there is no cross-key
// transaction. Get reports absence via the bool, not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Fetcher fetches a single URL and returns the status plus body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Publisher pushes run-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
