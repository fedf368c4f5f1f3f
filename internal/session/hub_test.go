package session

import (
	"testing"
	"time"
)

// receive waits for an event or fails the test after the timeout.
func receive(t *testing.T, ch <-chan Event, timeout time.Duration) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed unexpectedly")
		}
		return e
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch1, cancel1 := h.Subscribe()
	defer cancel1()
	ch2, cancel2 := h.Subscribe()
	defer cancel2()

	h.Publish(Event{Type: EventLogout, Source: "req-1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		e := receive(t, ch, time.Second)
		if e.Type != EventLogout {
			t.Errorf("subscriber %d: type = %q, want logout", i+1, e.Type)
		}
		if e.Source != "req-1" {
			t.Errorf("subscriber %d: source = %q, want req-1", i+1, e.Source)
		}
		if e.Timestamp.IsZero() {
			t.Errorf("subscriber %d: timestamp should be filled in", i+1)
		}
	}
}

// A logout triggered by one tab appears exactly once in every other tab's
// subscription.
func TestHub_LogoutDeliveredExactlyOnce(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(Event{Type: EventLogout})

	e := receive(t, ch, time.Second)
	if e.Type != EventLogout {
		t.Fatalf("type = %q, want logout", e.Type)
	}

	select {
	case extra := <-ch:
		t.Errorf("unexpected second event: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, cancel := h.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0", h.SubscriberCount())
	}

	// Publishing after cancel must not panic.
	h.Publish(Event{Type: EventLogin})
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, cancel := h.Subscribe()
	cancel()
	cancel()
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, cancel := h.Subscribe()
	defer cancel()

	// Overflow the subscriber buffer; Publish must return promptly every time.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(Event{Type: EventLogin})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHub_CloseClosesSubscribers(t *testing.T) {
	h := NewHub()
	ch, _ := h.Subscribe()

	h.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after hub Close")
	}

	// Subsequent operations are no-ops.
	h.Publish(Event{Type: EventLogout})
	h.Close()

	ch2, cancel2 := h.Subscribe()
	defer cancel2()
	if _, ok := <-ch2; ok {
		t.Error("Subscribe after Close should return a closed channel")
	}
}

func TestHub_SubscriberCount(t *testing.T) {
	h := NewHub()
	defer h.Close()

	if h.SubscriberCount() != 0 {
		t.Fatalf("initial SubscriberCount = %d, want 0", h.SubscriberCount())
	}

	_, cancel1 := h.Subscribe()
	_, cancel2 := h.Subscribe()
	if h.SubscriberCount() != 2 {
		t.Errorf("SubscriberCount = %d, want 2", h.SubscriberCount())
	}

	cancel1()
	if h.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount after cancel = %d, want 1", h.SubscriberCount())
	}
	cancel2()
}
