package notify

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
)

// defaultMaxAnonymous bounds the number of live anonymous engines. Anonymous
// clients never log out, so without a cap the registry would grow with every
// device id ever seen.
const defaultMaxAnonymous = 1024

type engineEntry struct {
	engine    *Engine
	anonymous bool
	lastUsed  time.Time
}

// Registry owns one engine per viewer scope. Engines are created lazily on
// first use and torn down on logout; there is no ambient global engine.
// Anonymous engines beyond the cap are evicted least-recently-used, which is
// safe because their state lives in the device state file, not the engine.
type Registry struct {
	db       *gorm.DB
	bus      *events.Bus
	alerts   AlertSender
	sink     UpdateSink
	stateDir string

	maxAnonymous int

	mu      sync.Mutex
	engines map[string]*engineEntry
}

func NewRegistry(db *gorm.DB, bus *events.Bus, alerts AlertSender, stateDir string, sink UpdateSink) *Registry {
	return &Registry{
		db:           db,
		bus:          bus,
		alerts:       alerts,
		sink:         sink,
		stateDir:     stateDir,
		maxAnonymous: defaultMaxAnonymous,
		engines:      make(map[string]*engineEntry),
	}
}

// Engine returns the engine for a viewer, starting one if needed. A role
// change under the same scope transitions the existing engine.
func (r *Registry) Engine(ctx context.Context, v Viewer) *Engine {
	scope := v.Scope()

	r.mu.Lock()
	ent, ok := r.engines[scope]
	if !ok {
		ent = &engineEntry{
			engine:    NewEngine(r.db, r.bus, r.alerts, r.stateDir, r.sink),
			anonymous: v.IsAnonymous(),
		}
		r.engines[scope] = ent
	}
	ent.lastUsed = time.Now()
	var evicted []*Engine
	if !ok && ent.anonymous {
		evicted = r.evictAnonymousLocked()
	}
	e := ent.engine
	r.mu.Unlock()

	for _, old := range evicted {
		old.Close()
	}

	if !ok || e.CurrentViewer() != v {
		e.SetViewer(ctx, v)
	}
	return e
}

// evictAnonymousLocked trims the least recently used anonymous engines until
// the cap holds again. Caller holds r.mu; returned engines are closed outside
// the lock.
func (r *Registry) evictAnonymousLocked() []*Engine {
	var evicted []*Engine
	for {
		count := 0
		var oldestScope string
		var oldest *engineEntry
		for scope, ent := range r.engines {
			if !ent.anonymous {
				continue
			}
			count++
			if oldest == nil || ent.lastUsed.Before(oldest.lastUsed) {
				oldestScope, oldest = scope, ent
			}
		}
		if count <= r.maxAnonymous || oldest == nil {
			return evicted
		}
		delete(r.engines, oldestScope)
		evicted = append(evicted, oldest.engine)
	}
}

// Drop tears down and forgets the engine for a scope (logout).
func (r *Registry) Drop(scope string) {
	r.mu.Lock()
	ent, ok := r.engines[scope]
	delete(r.engines, scope)
	r.mu.Unlock()

	if ok {
		ent.engine.Close()
	}
}

// Shutdown closes every engine. Used on process exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, ent := range r.engines {
		engines = append(engines, ent.engine)
	}
	r.engines = make(map[string]*engineEntry)
	r.mu.Unlock()

	for _, e := range engines {
		e.Close()
	}
}
