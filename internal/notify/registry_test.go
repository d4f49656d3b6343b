package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

func TestRegistryReusesEnginePerScope(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewBus()
	r := NewRegistry(db, bus, nil, t.TempDir(), nil)
	defer r.Shutdown()

	a := r.Engine(context.Background(), Anonymous("dev-1"))
	b := r.Engine(context.Background(), Anonymous("dev-1"))
	if a != b {
		t.Error("same scope did not reuse the engine")
	}
	if c := r.Engine(context.Background(), Anonymous("dev-2")); c == a {
		t.Error("different scope shared an engine")
	}
}

func TestRegistryDropClosesEngine(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewBus()
	r := NewRegistry(db, bus, nil, t.TempDir(), nil)
	defer r.Shutdown()

	v := Anonymous("dev-1")
	r.Engine(context.Background(), v)
	if bus.SubscriberCount(TableArticles) == 0 {
		t.Fatal("engine did not subscribe")
	}

	r.Drop(v.Scope())
	if n := bus.SubscriberCount(TableArticles); n != 0 {
		t.Errorf("subscriptions remain after drop: %d", n)
	}
}

func TestRegistryEvictsLeastRecentAnonymousEngine(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewBus()
	r := NewRegistry(db, bus, nil, t.TempDir(), nil)
	defer r.Shutdown()
	r.maxAnonymous = 2

	// Identified engines are never evicted by the anonymous cap.
	r.Engine(context.Background(), Identified(uuid.New(), models.RoleMember))

	for _, id := range []string{"dev-a", "dev-b", "dev-c"} {
		r.Engine(context.Background(), Anonymous(id))
		time.Sleep(time.Millisecond)
	}

	r.mu.Lock()
	_, aAlive := r.engines["device:dev-a"]
	_, bAlive := r.engines["device:dev-b"]
	_, cAlive := r.engines["device:dev-c"]
	anon := 0
	identified := 0
	for _, ent := range r.engines {
		if ent.anonymous {
			anon++
		} else {
			identified++
		}
	}
	r.mu.Unlock()

	if aAlive {
		t.Error("least recently used anonymous engine survived the cap")
	}
	if !bAlive || !cAlive {
		t.Error("recently used anonymous engines were evicted")
	}
	if anon != 2 {
		t.Errorf("anonymous engine count = %d, want 2", anon)
	}
	if identified != 1 {
		t.Errorf("identified engine count = %d, want 1", identified)
	}

	// The evicted engine's subscriptions are gone; a new request for the
	// same device restarts cleanly from persisted state.
	e := r.Engine(context.Background(), Anonymous("dev-a"))
	if e.CurrentViewer() != Anonymous("dev-a") {
		t.Error("re-created engine has wrong viewer")
	}
}
