package signals

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Publish(Event{Topic: PendingListChanged, Subject: "u1"})

	for name, ch := range map[string]chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Topic != PendingListChanged || ev.Subject != "u1" {
				t.Errorf("subscriber %s: unexpected event %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Errorf("subscriber %s: no event received", name)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}

	// Publishing after unsubscribe must not panic (closed channel removed).
	hub.Publish(Event{Topic: RoleRefreshed})
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe()

	// Fill the buffer and keep going; Publish must return regardless.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Topic: PendingListChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	hub.Unsubscribe(slow)
}
