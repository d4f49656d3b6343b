package notify

import (
	"testing"
	"time"
)

func rec(id string, at time.Time) Record {
	return Record{ID: id, Kind: KindInfo, Title: id, OccurredAt: at}
}

func checkUnread(t *testing.T, m *mergeEngine) {
	t.Helper()
	n := 0
	for _, r := range m.feed {
		if !r.IsRead {
			n++
		}
	}
	if m.unread != n {
		t.Fatalf("unread = %d, feed has %d unread entries", m.unread, n)
	}
}

func TestSeedDedupesFiltersAndSorts(t *testing.T) {
	base := time.Now()
	state := emptyState()
	state.ReadIDs["b"] = true
	state.DeletedIDs["gone"] = true

	m := newMergeEngine(state)
	m.seed([]Record{
		rec("a", base.Add(-2*time.Hour)),
		rec("b", base.Add(-1*time.Hour)),
		rec("a", base.Add(-5*time.Hour)), // duplicate, first seen wins
		rec("gone", base),
		rec("c", base),
	})

	if len(m.feed) != 3 {
		t.Fatalf("feed length = %d, want 3", len(m.feed))
	}
	for i, want := range []string{"c", "b", "a"} {
		if m.feed[i].ID != want {
			t.Errorf("feed[%d] = %s, want %s", i, m.feed[i].ID, want)
		}
	}
	if !m.feed[1].IsRead {
		t.Error("entry b should be annotated read from state")
	}
	if m.unread != 2 {
		t.Errorf("unread = %d, want 2", m.unread)
	}
	checkUnread(t, m)
}

func TestIngestFirstSeenWins(t *testing.T) {
	base := time.Now()
	m := newMergeEngine(emptyState())
	m.seed([]Record{rec("a", base)})

	dup := rec("a", base.Add(time.Hour))
	dup.Title = "changed"
	if m.ingest(dup) {
		t.Fatal("ingest of duplicate id reported a change")
	}
	if m.feed[0].Title != "a" {
		t.Errorf("existing entry was overwritten: %q", m.feed[0].Title)
	}
}

func TestIngestRespectsDeletedAndOrder(t *testing.T) {
	base := time.Now()
	state := emptyState()
	state.DeletedIDs["dead"] = true

	m := newMergeEngine(state)
	m.seed([]Record{rec("old", base.Add(-3*time.Hour)), rec("new", base)})

	if m.ingest(rec("dead", base)) {
		t.Fatal("deleted id was admitted")
	}
	if !m.ingest(rec("mid", base.Add(-1*time.Hour))) {
		t.Fatal("fresh id was not admitted")
	}

	for i, want := range []string{"new", "mid", "old"} {
		if m.feed[i].ID != want {
			t.Errorf("feed[%d] = %s, want %s", i, m.feed[i].ID, want)
		}
	}
	checkUnread(t, m)
}

func TestDeleteScenario(t *testing.T) {
	// Feed [C, B, A] all unread; delete("B") yields [C, A], unread drops by 1.
	base := time.Now()
	m := newMergeEngine(emptyState())
	m.seed([]Record{
		rec("A", base.Add(-2*time.Hour)),
		rec("B", base.Add(-1*time.Hour)),
		rec("C", base),
	})
	if m.unread != 3 {
		t.Fatalf("unread = %d, want 3", m.unread)
	}

	if !m.applyDeleted("B") {
		t.Fatal("delete of present id reported no change")
	}
	if len(m.feed) != 2 || m.feed[0].ID != "C" || m.feed[1].ID != "A" {
		t.Fatalf("feed after delete = %v", m.feed)
	}
	if m.unread != 2 {
		t.Errorf("unread = %d, want 2", m.unread)
	}
	checkUnread(t, m)

	// The id never comes back.
	if m.ingest(rec("B", base)) {
		t.Fatal("deleted id resurrected by ingest")
	}
}

func TestApplyReadIdempotent(t *testing.T) {
	m := newMergeEngine(emptyState())
	m.seed([]Record{rec("a", time.Now())})

	if !m.applyRead("a") {
		t.Fatal("first applyRead reported no change")
	}
	if m.applyRead("a") {
		t.Fatal("second applyRead reported a change")
	}
	if m.unread != 0 {
		t.Errorf("unread = %d, want 0", m.unread)
	}
}

func TestApplyReadTracksAbsentID(t *testing.T) {
	m := newMergeEngine(emptyState())
	m.applyRead("future")

	// The id arrives later and must come in already read.
	m.ingest(rec("future", time.Now()))
	if !m.feed[0].IsRead {
		t.Error("record arrived unread despite prior read mark")
	}
	if m.unread != 0 {
		t.Errorf("unread = %d, want 0", m.unread)
	}
}

func TestMarkAllReadAndClearAll(t *testing.T) {
	base := time.Now()
	m := newMergeEngine(emptyState())
	m.seed([]Record{rec("a", base), rec("b", base.Add(-time.Hour)), rec("c", base.Add(-2*time.Hour))})
	m.applyRead("b")

	ids := m.markAllRead()
	if len(ids) != 2 {
		t.Fatalf("markAllRead flipped %d ids, want 2 (delta only)", len(ids))
	}
	if m.unread != 0 {
		t.Errorf("unread = %d after markAllRead", m.unread)
	}

	cleared := m.clearAll()
	if len(cleared) != 3 {
		t.Fatalf("clearAll returned %d ids, want 3", len(cleared))
	}
	if len(m.feed) != 0 || m.unread != 0 {
		t.Fatalf("feed not empty after clearAll: %v (unread %d)", m.feed, m.unread)
	}
	for _, id := range cleared {
		if !m.state.DeletedIDs[id] {
			t.Errorf("cleared id %s not suppressed", id)
		}
	}
}

func TestGroupByDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	feed := []Record{
		rec("today", now.Add(-time.Hour)),
		rec("midnight", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		rec("yesterday", now.Add(-24*time.Hour)),
		rec("older", now.Add(-72*time.Hour)),
	}

	groups := GroupByDay(feed, now)
	if len(groups[SectionToday]) != 2 {
		t.Errorf("today has %d entries, want 2", len(groups[SectionToday]))
	}
	if len(groups[SectionYesterday]) != 1 || groups[SectionYesterday][0].ID != "yesterday" {
		t.Errorf("yesterday group = %v", groups[SectionYesterday])
	}
	if len(groups[SectionOlder]) != 1 || groups[SectionOlder][0].ID != "older" {
		t.Errorf("older group = %v", groups[SectionOlder])
	}
}
