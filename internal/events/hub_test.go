package events

import (
	"context"
	"testing"
	"time"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := h.Subscribe(ctx)
	b := h.Subscribe(ctx)

	h.Publish(Event{Op: "deposit", CorrelationID: "c1"})

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Op != "deposit" || ev.CorrelationID != "c1" {
				t.Errorf("subscriber %s: unexpected event %+v", name, ev)
			}
			if ev.OccurredAt.IsZero() {
				t.Errorf("subscriber %s: OccurredAt not stamped", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s: no event", name)
		}
	}
}

func TestHub_ContextEndsSubscription(t *testing.T) {
	t.Parallel()

	h := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx)

	cancel()

	// Channel closes once the teardown goroutine runs.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if n := h.SubscriberCount(); n != 0 {
					t.Fatalf("subscriber count after teardown: want 0, got %d", n)
				}
				return
			}
		case <-deadline:
			t.Fatal("subscription channel never closed")
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	t.Parallel()

	h := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = h.Subscribe(ctx) // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(Event{Op: "deposit"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
