package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arcadeops/ledgercore/internal/events"
)

func TestEventStreamHandler_RelaysEvents(t *testing.T) {
	hub := events.NewHub()
	h := NewHandler(nil, hub)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.EventStreamHandler(w, req)
	}()

	// Wait for the subscription to land before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(events.Event{
		Op:            "deposit",
		CorrelationID: "11111111-2222-3333-4444-555555555555",
		OccurredAt:    time.Now().UTC(),
	})

	// Non-blocking publish lands in the subscriber buffer; give the handler
	// a moment to drain it, then close the stream.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancel")
	}

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event: deposit\n") {
		t.Fatalf("body missing event line:\n%s", body)
	}
	if !strings.Contains(body, `"correlationId":"11111111-2222-3333-4444-555555555555"`) {
		t.Fatalf("body missing event payload:\n%s", body)
	}
}
