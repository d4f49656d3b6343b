package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

// UpdateSink is notified after every feed mutation so transports (the
// websocket hub) can push the new state to connected clients.
type UpdateSink interface {
	FeedUpdated(scope string, unread int)
}

// Engine is one viewer session's notification engine: it owns the state
// store, snapshot aggregator, live router and merge for that viewer. UI
// actions are serialized by the caller; internal callbacks are guarded by
// one mutex. Constructed explicitly and torn down on logout, never global.
type Engine struct {
	db       *gorm.DB
	bus      *events.Bus
	alerts   AlertSender
	sink     UpdateSink
	stateDir string

	mu     sync.Mutex
	viewer Viewer
	gen    int // generation token; bumped on every viewer transition
	store  StateStore
	agg    *Aggregator
	router *Router
	merge  *mergeEngine
}

// NewEngine builds an engine with no viewer. Call SetViewer to start it.
func NewEngine(db *gorm.DB, bus *events.Bus, alerts AlertSender, stateDir string, sink UpdateSink) *Engine {
	return &Engine{
		db:       db,
		bus:      bus,
		alerts:   alerts,
		sink:     sink,
		stateDir: stateDir,
		agg:      NewAggregator(db),
		router:   NewRouter(bus, db, alerts),
		merge:    newMergeEngine(emptyState()),
	}
}

// SetViewer transitions the engine to a new viewer context: previous
// subscriptions are torn down first, the generation token is bumped so
// stale snapshot results get discarded, state is loaded (the one blocking
// load, so dismissed notifications never flash as unread), then the
// snapshot pass runs and the live channels come up.
func (e *Engine) SetViewer(ctx context.Context, v Viewer) {
	e.mu.Lock()
	e.router.Teardown()
	e.gen++
	gen := e.gen
	e.viewer = v

	if v.IsAnonymous() {
		e.store = NewDeviceStateStore(e.stateDir, v.Scope())
	} else {
		e.store = NewRemoteStateStore(e.db, e.bus, v.Scope())
	}
	store := e.store
	e.mu.Unlock()

	// Session start intentionally waits for state: the feed stays empty
	// until the read/delete overlay is known.
	state := store.Load(ctx)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.merge = newMergeEngine(state)
	e.router.Subscribe(v,
		func(rec Record) { e.ingest(gen, rec) },
		func(row models.NotificationState) { e.syncState(gen, row) },
	)
	e.mu.Unlock()

	e.runSnapshot(ctx, v, gen)
}

// runSnapshot executes the aggregator and seeds the merge, unless a newer
// viewer context has loaded in the meantime.
func (e *Engine) runSnapshot(ctx context.Context, v Viewer, gen int) {
	candidates := e.agg.Run(ctx, v)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		log.Printf("notify: dropping stale snapshot for %s (gen %d)", v.Scope(), gen)
		return
	}
	e.merge.seed(candidates)
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	e.notify(scope, unread)
}

// ingest merges one live record.
func (e *Engine) ingest(gen int, rec Record) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	changed := e.merge.ingest(rec)
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	if changed {
		e.notify(scope, unread)
	}
}

// syncState applies a remote state row from another session of the same
// viewer. A deleted id is recorded and evicted; a read id is flipped.
func (e *Engine) syncState(gen int, row models.NotificationState) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	changed := false
	if row.IsRead && e.merge.applyRead(row.NotificationID) {
		changed = true
	}
	if row.IsDeleted && e.merge.applyDeleted(row.NotificationID) {
		changed = true
	}
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	if changed {
		e.notify(scope, unread)
	}
}

func (e *Engine) notify(scope string, unread int) {
	if e.sink != nil {
		e.sink.FeedUpdated(scope, unread)
	}
}

// Feed returns a copy of the current feed, newest first.
func (e *Engine) Feed() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.merge.snapshot()
}

// UnreadCount returns the number of unread feed entries.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.merge.unread
}

// Grouped projects the feed into Today / Yesterday / Older sections.
func (e *Engine) Grouped(now time.Time) map[string][]Record {
	return GroupByDay(e.Feed(), now)
}

// MarkAsRead flips one notification to read. No-op if already read. The
// in-memory flag changes synchronously; persistence is non-blocking.
func (e *Engine) MarkAsRead(id string) {
	e.mu.Lock()
	already := e.merge.state.ReadIDs[id]
	changed := e.merge.applyRead(id)
	store := e.store
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	if !already && store != nil {
		store.MarkRead(id)
	}
	if changed {
		e.notify(scope, unread)
	}
}

// MarkAllAsRead flips every unread entry and issues one batched write.
func (e *Engine) MarkAllAsRead() {
	e.mu.Lock()
	ids := e.merge.markAllRead()
	store := e.store
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	if len(ids) == 0 || store == nil {
		return
	}
	store.MarkManyRead(ids)
	e.notify(scope, unread)
}

// Delete removes a notification from the feed and suppresses its id for
// this viewer permanently (until state is cleared by the viewer).
func (e *Engine) Delete(id string) {
	e.mu.Lock()
	changed := e.merge.applyDeleted(id)
	store := e.store
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	if store != nil {
		store.MarkDeleted(id)
	}
	if changed {
		e.notify(scope, unread)
	}
}

// ClearAll empties the feed and suppresses every id that was in it.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	ids := e.merge.clearAll()
	store := e.store
	scope, unread := e.viewer.Scope(), e.merge.unread
	e.mu.Unlock()

	if len(ids) == 0 || store == nil {
		return
	}
	store.MarkManyDeleted(ids)
	e.notify(scope, unread)
}

// Refresh re-runs the snapshot battery and reseeds the feed. This is the
// only resynchronization path and the only operation that can shrink the
// feed as rows age out of the recency window.
func (e *Engine) Refresh(ctx context.Context) {
	e.mu.Lock()
	v, gen := e.viewer, e.gen
	e.mu.Unlock()

	e.runSnapshot(ctx, v, gen)
}

// Close tears the engine down. The generation bump guarantees any in-flight
// snapshot or live result is discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router.Teardown()
	e.gen++
}

// Viewer returns the engine's current viewer.
func (e *Engine) CurrentViewer() Viewer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewer
}
