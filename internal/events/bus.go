package events

import "sync"

// Operations carried by a Change
const (
	OpInsert = "insert"
	OpUpdate = "update"
)

// Change is one row-level change event for a domain table. For updates, Old
// carries the row's previous values so subscribers can detect transitions.
type Change struct {
	Table string
	Op    string
	Row   interface{}
	Old   interface{}
}

// Filter decides whether a subscription wants a given change.
type Filter func(Change) bool

// Handler receives matching changes. Handlers must be fast and must not
// publish synchronously back into the bus.
type Handler func(Change)

type subscription struct {
	table   string
	filter  Filter
	handler Handler
}

// Subscription is a handle used to tear a subscription down.
type Subscription struct {
	bus *Bus
	sub *subscription
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.unsubscribe(s.sub)
	s.bus = nil
}

// Bus is an in-process change feed: writers publish row changes per table,
// readers subscribe with a table name and an optional row filter.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]bool // table -> set of subscriptions
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*subscription]bool)}
}

// Subscribe registers a handler for changes on a table. A nil filter matches
// every change on that table.
func (b *Bus) Subscribe(table string, filter Filter, handler Handler) *Subscription {
	sub := &subscription{table: table, filter: filter, handler: handler}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[table] == nil {
		b.subs[table] = make(map[*subscription]bool)
	}
	b.subs[table][sub] = true
	return &Subscription{bus: b, sub: sub}
}

func (b *Bus) unsubscribe(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[sub.table]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, sub.table)
		}
	}
}

// Publish delivers a change to every matching subscription. Delivery is
// synchronous; the order subscribers run in is not defined.
func (b *Bus) Publish(ch Change) {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.subs[ch.Table]))
	for s := range b.subs[ch.Table] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil && !s.filter(ch) {
			continue
		}
		s.handler(ch)
	}
}

// PublishInsert is shorthand for an insert change.
func (b *Bus) PublishInsert(table string, row interface{}) {
	b.Publish(Change{Table: table, Op: OpInsert, Row: row})
}

// PublishUpdate is shorthand for an update change carrying old values.
func (b *Bus) PublishUpdate(table string, row, old interface{}) {
	b.Publish(Change{Table: table, Op: OpUpdate, Row: row, Old: old})
}

// SubscriberCount reports how many subscriptions a table currently has.
func (b *Bus) SubscriberCount(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}
