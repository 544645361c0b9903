// Package store adapts the raw key-value capability into the cursor,
// archive, and execution-log accessors the engine needs. Every read
// substitutes a safe default on failure and every write reports a
// boolean instead of an error: nothing here may abort a run.
package store

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/news"
)

// Persisted key layout. The names predate this implementation and are
// kept for compatibility with existing deployments.
const (
	cursorKey    = "last_processed_id"
	archiveKey   = "btc_news_data"
	executionKey = "last_cron_execution"
)

// Adapter wraps a news.KV with tolerant read/write semantics.
type Adapter struct {
	kv            news.KV
	defaultCursor int
	maxItems      int
	logger        *zap.Logger
}

// New builds an Adapter. defaultCursor is returned whenever the cursor
// key is absent or unparseable; maxItems caps the archive on write.
func New(kv news.KV, defaultCursor, maxItems int, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		kv:            kv,
		defaultCursor: defaultCursor,
		maxItems:      maxItems,
		logger:        logger,
	}
}

// LastProcessedID reads the cursor, falling back to the configured
// default when the key is absent, malformed, or the store errors.
func (a *Adapter) LastProcessedID(ctx context.Context) int {
	val, found, err := a.kv.Get(ctx, cursorKey)
	if err != nil {
		a.logger.Error("read cursor failed", zap.Error(err))
		return a.defaultCursor
	}
	if !found {
		return a.defaultCursor
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		a.logger.Warn("cursor value malformed", zap.String("value", val))
		return a.defaultCursor
	}
	return id
}

// SaveLastProcessedID writes the cursor as a decimal string.
func (a *Adapter) SaveLastProcessedID(ctx context.Context, id int) bool {
	if err := a.kv.Put(ctx, cursorKey, strconv.Itoa(id)); err != nil {
		a.logger.Error("save cursor failed", zap.Int("id", id), zap.Error(err))
		return false
	}
	return true
}

// Archive reads and deserializes the archive, returning an empty slice
// when the key is absent or the payload is malformed.
func (a *Adapter) Archive(ctx context.Context) []news.Record {
	val, found, err := a.kv.Get(ctx, archiveKey)
	if err != nil {
		a.logger.Error("read archive failed", zap.Error(err))
		return []news.Record{}
	}
	if !found {
		return []news.Record{}
	}
	var records []news.Record
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		a.logger.Warn("archive payload malformed", zap.Error(err))
		return []news.Record{}
	}
	return records
}

// SaveArchive serializes and writes the archive, truncating to the
// retention cap first.
func (a *Adapter) SaveArchive(ctx context.Context, records []news.Record) bool {
	if a.maxItems > 0 && len(records) > a.maxItems {
		records = records[:a.maxItems]
	}
	data, err := json.Marshal(records)
	if err != nil {
		a.logger.Error("marshal archive failed", zap.Error(err))
		return false
	}
	if err := a.kv.Put(ctx, archiveKey, string(data)); err != nil {
		a.logger.Error("save archive failed", zap.Error(err))
		return false
	}
	return true
}

// DeleteArchive removes the archive key entirely.
func (a *Adapter) DeleteArchive(ctx context.Context) bool {
	if err := a.kv.Delete(ctx, archiveKey); err != nil {
		a.logger.Error("delete archive failed", zap.Error(err))
		return false
	}
	return true
}

// ExecutionLog reads the last scheduled-run record, or nil when absent
// or malformed.
func (a *Adapter) ExecutionLog(ctx context.Context) *news.ExecutionLog {
	val, found, err := a.kv.Get(ctx, executionKey)
	if err != nil {
		a.logger.Error("read execution log failed", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	var entry news.ExecutionLog
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		a.logger.Warn("execution log malformed", zap.Error(err))
		return nil
	}
	return &entry
}

// SaveExecutionLog overwrites the last scheduled-run record.
func (a *Adapter) SaveExecutionLog(ctx context.Context, entry news.ExecutionLog) bool {
	data, err := json.Marshal(entry)
	if err != nil {
		a.logger.Error("marshal execution log failed", zap.Error(err))
		return false
	}
	if err := a.kv.Put(ctx, executionKey, string(data)); err != nil {
		a.logger.Error("save execution log failed", zap.Error(err))
		return false
	}
	return true
}
