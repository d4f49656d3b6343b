package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

// State is the viewer's read/delete overlay, loaded once per session and kept
// current by the store as writes happen.
type State struct {
	ReadIDs    map[string]bool
	DeletedIDs map[string]bool
}

func emptyState() State {
	return State{ReadIDs: make(map[string]bool), DeletedIDs: make(map[string]bool)}
}

// StateStore is the single source of truth for "has this viewer acted on this
// notification". Implementations must keep the two flags independent: marking
// an already-read id deleted preserves the read flag, and vice versa.
type StateStore interface {
	// Load returns the persisted state. A failed load degrades to empty
	// sets; it never blocks the feed with an error.
	Load(ctx context.Context) State
	MarkRead(id string)
	MarkManyRead(ids []string)
	MarkDeleted(id string)
	MarkManyDeleted(ids []string)
}

// remoteStateStore persists to the notification_states table for an
// identified viewer. Writes update the in-memory cache synchronously and hit
// the database fire-and-forget, so the caller never waits on the network.
// Every write is also published on the bus so other sessions of the same
// viewer converge (last write wins per flag).
type remoteStateStore struct {
	db    *gorm.DB
	bus   *events.Bus
	scope string

	mu    sync.Mutex
	state State
}

// NewRemoteStateStore returns a StateStore backed by the shared upsert table.
func NewRemoteStateStore(db *gorm.DB, bus *events.Bus, scope string) StateStore {
	return &remoteStateStore{db: db, bus: bus, scope: scope, state: emptyState()}
}

func (s *remoteStateStore) Load(ctx context.Context) State {
	var rows []models.NotificationState
	if err := s.db.WithContext(ctx).Where("viewer_scope = ?", s.scope).Find(&rows).Error; err != nil {
		log.Printf("notify: state load failed for %s: %v", s.scope, err)
		return s.snapshot()
	}
	s.mu.Lock()
	for _, row := range rows {
		if row.IsRead {
			s.state.ReadIDs[row.NotificationID] = true
		}
		if row.IsDeleted {
			s.state.DeletedIDs[row.NotificationID] = true
		}
	}
	s.mu.Unlock()
	return s.snapshot()
}

func (s *remoteStateStore) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := emptyState()
	for id := range s.state.ReadIDs {
		out.ReadIDs[id] = true
	}
	for id := range s.state.DeletedIDs {
		out.DeletedIDs[id] = true
	}
	return out
}

func (s *remoteStateStore) MarkRead(id string)    { s.apply([]string{id}, true, false) }
func (s *remoteStateStore) MarkDeleted(id string) { s.apply([]string{id}, false, true) }

func (s *remoteStateStore) MarkManyRead(ids []string)    { s.apply(ids, true, false) }
func (s *remoteStateStore) MarkManyDeleted(ids []string) { s.apply(ids, false, true) }

func (s *remoteStateStore) apply(ids []string, read, deleted bool) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	for _, id := range ids {
		if read {
			s.state.ReadIDs[id] = true
		}
		if deleted {
			s.state.DeletedIDs[id] = true
		}
	}
	s.mu.Unlock()

	// Persist off the caller's path. The optimistic cache above already
	// made the change visible locally.
	go s.persist(ids, read, deleted)
}

func (s *remoteStateStore) persist(ids []string, read, deleted bool) {
	now := time.Now()
	rows := make([]models.NotificationState, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.NotificationState{
			ViewerScope:    s.scope,
			NotificationID: id,
			IsRead:         read,
			IsDeleted:      deleted,
			UpdatedAt:      now,
		})
	}

	assignments := map[string]interface{}{"updated_at": now}
	if read {
		assignments["is_read"] = true
	}
	if deleted {
		assignments["is_deleted"] = true
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "viewer_scope"}, {Name: "notification_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&rows).Error
	if err != nil {
		log.Printf("notify: state write failed for %s: %v", s.scope, err)
		return
	}

	if s.bus != nil {
		for _, row := range rows {
			s.bus.PublishUpdate(TableStates, row, nil)
		}
	}
}
