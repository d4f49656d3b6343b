package notify

import "sort"

// mergeEngine owns the canonical in-memory feed. No other type mutates the
// slice. All methods are called with the engine's lock held; the merge itself
// is single-writer by construction.
type mergeEngine struct {
	state  State
	feed   []Record
	unread int
}

func newMergeEngine(state State) *mergeEngine {
	return &mergeEngine{state: state}
}

// setState swaps the read/delete overlay, e.g. after a viewer transition.
func (m *mergeEngine) setState(state State) {
	m.state = state
}

// seed replaces the feed with the snapshot candidates: deleted ids filtered
// out, duplicates collapsed (first seen wins), sorted newest first, read
// flags annotated from state.
func (m *mergeEngine) seed(candidates []Record) {
	seen := make(map[string]bool, len(candidates))
	feed := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] || m.state.DeletedIDs[c.ID] {
			continue
		}
		seen[c.ID] = true
		c.IsRead = m.state.ReadIDs[c.ID]
		feed = append(feed, c)
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].OccurredAt.After(feed[j].OccurredAt)
	})
	m.feed = feed
	m.recount()
}

// ingest merges one live candidate. First arrival wins for a given id: if
// the id is already present the existing entry is left untouched. A deleted
// id is never admitted. Reports whether the feed changed.
func (m *mergeEngine) ingest(c Record) bool {
	if m.state.DeletedIDs[c.ID] {
		return false
	}
	for i := range m.feed {
		if m.feed[i].ID == c.ID {
			return false
		}
	}
	c.IsRead = m.state.ReadIDs[c.ID]

	// Insert preserving descending OccurredAt order.
	pos := sort.Search(len(m.feed), func(i int) bool {
		return m.feed[i].OccurredAt.Before(c.OccurredAt)
	})
	m.feed = append(m.feed, Record{})
	copy(m.feed[pos+1:], m.feed[pos:])
	m.feed[pos] = c
	m.recount()
	return true
}

// applyRead flips the read flag for an id. Tracked in state even when the id
// is not currently in the feed, so a later arrival comes in already read.
func (m *mergeEngine) applyRead(id string) bool {
	m.state.ReadIDs[id] = true
	for i := range m.feed {
		if m.feed[i].ID == id {
			if m.feed[i].IsRead {
				return false
			}
			m.feed[i].IsRead = true
			m.recount()
			return true
		}
	}
	return false
}

// applyDeleted suppresses an id and evicts it from the feed if present.
// Suppression outlives the feed entry: the id is recorded even when absent.
func (m *mergeEngine) applyDeleted(id string) bool {
	m.state.DeletedIDs[id] = true
	for i := range m.feed {
		if m.feed[i].ID == id {
			m.feed = append(m.feed[:i], m.feed[i+1:]...)
			m.recount()
			return true
		}
	}
	return false
}

// markAllRead flips every unread entry and returns the ids that changed.
func (m *mergeEngine) markAllRead() []string {
	var ids []string
	for i := range m.feed {
		if !m.feed[i].IsRead {
			m.feed[i].IsRead = true
			ids = append(ids, m.feed[i].ID)
		}
	}
	for _, id := range ids {
		m.state.ReadIDs[id] = true
	}
	m.recount()
	return ids
}

// clearAll empties the feed and returns every id that was present, all of
// which become suppressed.
func (m *mergeEngine) clearAll() []string {
	ids := make([]string, 0, len(m.feed))
	for i := range m.feed {
		ids = append(ids, m.feed[i].ID)
		m.state.DeletedIDs[m.feed[i].ID] = true
	}
	m.feed = nil
	m.recount()
	return ids
}

// snapshot returns a copy of the feed for callers.
func (m *mergeEngine) snapshot() []Record {
	out := make([]Record, len(m.feed))
	copy(out, m.feed)
	return out
}

// recount recomputes the unread counter from scratch. Never maintained
// incrementally, so it cannot drift from the feed.
func (m *mergeEngine) recount() {
	n := 0
	for i := range m.feed {
		if !m.feed[i].IsRead {
			n++
		}
	}
	m.unread = n
}
