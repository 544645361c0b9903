// Package archive maintains the bounded newest-first record archive.
package archive

import "github.com/coinpulse/btcnews/internal/news"

// Merger folds a run's accepted batch into the existing archive.
type Merger struct {
	// MaxItems caps the merged archive; eviction is from the tail.
	MaxItems int
	// DedupeByID keeps only the newest record per id. Off by default:
	// the historical behavior allows duplicates across overlapping runs.
	DedupeByID bool
}

// Merge prepends newItems to existing, newest first, and truncates the
// result to MaxItems. Neither input slice is mutated.
func (m Merger) Merge(newItems, existing []news.Record) []news.Record {
	merged := make([]news.Record, 0, len(newItems)+len(existing))
	if m.DedupeByID {
		seen := make(map[int]struct{}, len(newItems)+len(existing))
		for _, rec := range newItems {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
		for _, rec := range existing {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			merged = append(merged, rec)
		}
	} else {
		merged = append(merged, newItems...)
		merged = append(merged, existing...)
	}
	if m.MaxItems > 0 && len(merged) > m.MaxItems {
		merged = merged[:m.MaxItems]
	}
	return merged
}
