package notify

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// Aggregator runs the role-gated snapshot battery and produces the candidate
// set for "right now". One failing sub-query yields zero candidates for that
// pass and a log line; it never fails the pass.
type Aggregator struct {
	db      *gorm.DB
	queries []querySpec
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, queries: snapshotQueries}
}

// Run executes every sub-query whose role gate matches the viewer, bounded
// by the recency window.
func (a *Aggregator) Run(ctx context.Context, v Viewer) []Record {
	since := time.Now().Add(-RecencyWindow)
	var candidates []Record
	for _, q := range a.queries {
		if !roleMatch(q.Roles, v) {
			continue
		}
		records, err := q.Run(a.db.WithContext(ctx), v, since)
		if err != nil {
			log.Printf("notify: snapshot query %s failed: %v", q.ID, err)
			continue
		}
		candidates = append(candidates, records...)
	}
	return candidates
}
