// Package main hosts the BTC news ingest service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the reader page, the JSON news feed, manual refresh,
//     status, and reset endpoints plus health and Prometheus metrics. All archive reads go through
//     the tolerant store adapter so a degraded backend never surfaces as a 500.
//   - Crawl engine: internal/engine.Engine drives one run at a time. It probes a fixed set of
//     offsets ahead of the persisted cursor to estimate the live id frontier, plans a bounded scan
//     window, then fetches candidate pages sequentially with a fixed pacing delay. Pages that
//     answer 200 advance the cursor; pages whose title matches a monitored keyword become records.
//   - Persistence: three keys (cursor, archive, last scheduled execution) live in a pluggable
//     key-value backend selected by config: Redis (default), Postgres, or in-process memory.
//     The archive is a rolling newest-first JSON array capped at a configured size.
//   - Scheduler: a ticker loop triggers a run every configured interval and overwrites the
//     execution log with the outcome, which /api/status folds into a health verdict.
//   - Fanout: when a Pub/Sub project and topic are configured, every run summary is published as a
//     compact JSON message.
//   - Configuration & plumbing: Viper populates config from env (BTCNEWS_ prefix) and optional
//     file; zap provides structured logging; Prometheus collectors track runs, fetches, and HTTP
//     traffic.
//
// Operational notes:
//   - Concurrency model: the engine is strictly sequential within a run and holds no state between
//     runs. A manual /api/refresh may overlap a scheduled run; last write wins on each key.
//   - Shutdown: SIGINT/SIGTERM cancels the root context, stops the scheduler, and drains the HTTP
//     server with a 10 second grace period.
//   - Run locally: go run ./cmd/btcnewsd -config config.yaml, or rely solely on BTCNEWS_* env
//     overrides with the memory backend (BTCNEWS_STORE_BACKEND=memory) for a zero-dependency start.
package main
