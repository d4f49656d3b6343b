package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification kinds (severity/category for rendering)
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindWarning = "warning"
	KindAlert   = "alert"
)

// Record is one entry of the in-memory feed. Records are rebuilt on every
// snapshot pass or live event and are never the source of truth; only IsRead
// is ever flipped in place, and always from the viewer's persisted state.
type Record struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	HighlightText string    `json:"highlightText,omitempty"`
	Link          string    `json:"link,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
	IsRead        bool      `json:"isRead"`
}

// DerivedID builds the deduplication key shared by the snapshot and live
// paths. Both paths must derive the same id for the same logical event or
// dedup breaks. Status-bearing categories embed the status, so each status
// transition is a distinct notifiable event with its own suppression state.
func DerivedID(category string, entityID uuid.UUID, status string) string {
	if status == "" {
		return fmt.Sprintf("%s-%s", category, entityID)
	}
	return fmt.Sprintf("%s-%s-%s", category, entityID, status)
}

// Viewer identifies who the feed belongs to. The zero value is an unusable
// viewer; construct with Anonymous or Identified.
type Viewer struct {
	UserID   uuid.UUID
	Role     string
	DeviceID string
}

// Anonymous returns a viewer tracked by device id only.
func Anonymous(deviceID string) Viewer {
	return Viewer{DeviceID: deviceID}
}

// Identified returns an authenticated viewer with a role.
func Identified(userID uuid.UUID, role string) Viewer {
	return Viewer{UserID: userID, Role: role}
}

func (v Viewer) IsAnonymous() bool {
	return v.UserID == uuid.Nil
}

// Scope is the key read/delete state is tracked under.
func (v Viewer) Scope() string {
	if v.IsAnonymous() {
		return "device:" + v.DeviceID
	}
	return "user:" + v.UserID.String()
}

// Feed section labels for the read-side day grouping.
const (
	SectionToday     = "today"
	SectionYesterday = "yesterday"
	SectionOlder     = "older"
)

// Section places a record into Today / Yesterday / Older relative to now.
// Pure projection over OccurredAt; nothing is stored.
func Section(r Record, now time.Time) string {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case !r.OccurredAt.Before(today):
		return SectionToday
	case !r.OccurredAt.Before(today.AddDate(0, 0, -1)):
		return SectionYesterday
	default:
		return SectionOlder
	}
}

// GroupByDay projects an ordered feed into its presentation sections.
func GroupByDay(feed []Record, now time.Time) map[string][]Record {
	groups := make(map[string][]Record)
	for _, r := range feed {
		s := Section(r, now)
		groups[s] = append(groups[s], r)
	}
	return groups
}
