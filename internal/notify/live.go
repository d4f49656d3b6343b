package notify

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

// AlertSender delivers best-effort passive platform alerts. Failures are
// swallowed by the implementation; the feed never depends on delivery.
type AlertSender interface {
	SendToUser(userID uuid.UUID, title, body string, data map[string]string)
}

// Router maintains the live subscriptions for one viewer. The subscription
// set is a pure function of the viewer: Subscribe activates every channel
// whose role gate matches, plus the state-sync channel for the viewer's own
// scope. Old subscriptions must be fully torn down before new ones start.
type Router struct {
	bus    *events.Bus
	db     *gorm.DB
	alerts AlertSender

	subs []*events.Subscription
}

func NewRouter(bus *events.Bus, db *gorm.DB, alerts AlertSender) *Router {
	return &Router{bus: bus, db: db, alerts: alerts}
}

// Subscribe activates the channel set for a viewer. deliver receives each
// translated record; syncState receives remote read/delete rows written by
// the viewer's other sessions.
func (r *Router) Subscribe(v Viewer, deliver func(Record), syncState func(models.NotificationState)) {
	if len(r.subs) > 0 {
		// Callers tear down on context transitions; double subscription
		// would mean duplicate delivery.
		log.Printf("notify: router re-subscribed without teardown for %s", v.Scope())
		r.Teardown()
	}

	for _, spec := range liveChannels {
		if !roleMatch(spec.Roles, v) {
			continue
		}
		spec := spec
		sub := r.bus.Subscribe(spec.Table, nil, func(ch events.Change) {
			rec, ok := spec.Build(r.db, v, ch)
			if !ok {
				return
			}
			deliver(rec)
			if spec.Push && !v.IsAnonymous() && r.alerts != nil {
				go r.alerts.SendToUser(v.UserID, rec.Title, rec.Message, map[string]string{
					"notificationId": rec.ID,
					"link":           rec.Link,
				})
			}
		})
		r.subs = append(r.subs, sub)
	}

	// State-sync channel: rows for this scope written elsewhere keep this
	// session's feed consistent across devices.
	scope := v.Scope()
	sub := r.bus.Subscribe(TableStates, func(ch events.Change) bool {
		row, ok := ch.Row.(models.NotificationState)
		return ok && row.ViewerScope == scope
	}, func(ch events.Change) {
		if row, ok := ch.Row.(models.NotificationState); ok {
			syncState(row)
		}
	})
	r.subs = append(r.subs, sub)
}

// Teardown cancels every active subscription. Safe to call when idle.
func (r *Router) Teardown() {
	for _, sub := range r.subs {
		sub.Cancel()
	}
	r.subs = nil
}

// Active reports how many subscriptions are currently established.
func (r *Router) Active() int {
	return len(r.subs)
}
