package events

import "testing"

func TestPublishReachesMatchingSubscribers(t *testing.T) {
	bus := NewBus()

	var got []Change
	bus.Subscribe("cafes", nil, func(ch Change) {
		got = append(got, ch)
	})
	bus.Subscribe("reports", nil, func(ch Change) {
		t.Errorf("reports subscriber received %v for cafes publish", ch)
	})

	bus.PublishInsert("cafes", "row-1")
	bus.PublishUpdate("cafes", "row-2", "row-2-old")

	if len(got) != 2 {
		t.Fatalf("got %d changes, want 2", len(got))
	}
	if got[0].Op != OpInsert || got[0].Row != "row-1" {
		t.Errorf("first change = %+v, want insert row-1", got[0])
	}
	if got[1].Op != OpUpdate || got[1].Old != "row-2-old" {
		t.Errorf("second change = %+v, want update with old row", got[1])
	}
}

func TestFilterExcludesNonMatching(t *testing.T) {
	bus := NewBus()

	var got int
	bus.Subscribe("cafes", func(ch Change) bool {
		return ch.Op == OpUpdate
	}, func(ch Change) {
		got++
	})

	bus.PublishInsert("cafes", nil)
	bus.PublishUpdate("cafes", nil, nil)
	bus.PublishInsert("cafes", nil)

	if got != 1 {
		t.Fatalf("filtered subscriber saw %d changes, want 1", got)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	var got int
	sub := bus.Subscribe("cafes", nil, func(ch Change) { got++ })

	bus.PublishInsert("cafes", nil)
	sub.Cancel()
	sub.Cancel() // second cancel is a no-op
	bus.PublishInsert("cafes", nil)

	if got != 1 {
		t.Fatalf("cancelled subscriber saw %d changes, want 1", got)
	}
	if n := bus.SubscriberCount("cafes"); n != 0 {
		t.Fatalf("SubscriberCount = %d after cancel, want 0", n)
	}
}
