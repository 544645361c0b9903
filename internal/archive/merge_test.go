package archive

import (
	"fmt"
	"testing"

	"github.com/coinpulse/btcnews/internal/news"
)

func records(ids ...int) []news.Record {
	out := make([]news.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, news.Record{ID: id, Title: fmt.Sprintf("news %d", id)})
	}
	return out
}

func ids(recs []news.Record) []int {
	out := make([]int, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestMergePrependsAndPreservesOrder(t *testing.T) {
	t.Parallel()

	m := Merger{MaxItems: 100}
	got := m.Merge(records(5, 4), records(3, 2, 1))
	want := []int{5, 4, 3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range ids(got) {
		if id != want[i] {
			t.Fatalf("ids = %v, want %v", ids(got), want)
		}
	}
}

func TestMergeTruncatesFromTail(t *testing.T) {
	t.Parallel()

	m := Merger{MaxItems: 100}
	existing := make([]news.Record, 0, 95)
	for i := 0; i < 95; i++ {
		existing = append(existing, news.Record{ID: 1000 - i})
	}
	got := m.Merge(records(2001, 2002, 2003, 2004, 2005, 2006, 2007, 2008, 2009, 2010), existing)
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
	if got[0].ID != 2001 {
		t.Fatalf("newest id = %d, want 2001", got[0].ID)
	}
	// Five oldest entries evicted.
	if got[99].ID != 1000-89 {
		t.Fatalf("oldest surviving id = %d, want %d", got[99].ID, 1000-89)
	}
}

func TestMergeAllowsDuplicatesByDefault(t *testing.T) {
	t.Parallel()

	m := Merger{MaxItems: 100}
	got := m.Merge(records(7), records(7, 6))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (duplicates retained)", len(got))
	}
}

func TestMergeDedupeKeepsNewest(t *testing.T) {
	t.Parallel()

	m := Merger{MaxItems: 100, DedupeByID: true}
	fresh := []news.Record{{ID: 7, Title: "updated"}}
	stale := []news.Record{{ID: 7, Title: "stale"}, {ID: 6, Title: "old"}}
	got := m.Merge(fresh, stale)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 7 || got[0].Title != "updated" {
		t.Fatalf("head = %+v, want the newer record for id 7", got[0])
	}
	if got[1].ID != 6 {
		t.Fatalf("tail = %+v, want id 6", got[1])
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	t.Parallel()

	m := Merger{MaxItems: 100}
	if got := m.Merge(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty merge, got %d records", len(got))
	}
	if got := m.Merge(nil, records(1, 2)); len(got) != 2 {
		t.Fatalf("expected passthrough of existing, got %d", len(got))
	}
}
