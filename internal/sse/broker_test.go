package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe("")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeWorkspaceUpdated, Document: "d1", Data: map[string]string{"mode": "viewing"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: workspace.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"mode":"viewing"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestDocumentScopedSubscription(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	mine := b.Subscribe("d1")
	defer b.Unsubscribe(mine)

	b.Publish(Event{Type: TypeWorkspaceUpdated, Document: "d2", Data: map[string]string{}})
	b.Publish(Event{Type: TypeWorkspaceUpdated, Document: "d1", Data: map[string]string{}})
	b.Publish(Event{Type: "ping", Data: map[string]string{}})

	time.Sleep(50 * time.Millisecond)
	got := drain(mine)
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], "workspace.updated") || !strings.Contains(got[1], "event: ping") {
		t.Errorf("events = %q", got)
	}
}

func TestPublishDocumentEvent_IndexThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	// First event should trigger index.updated.
	b.PublishDocumentEvent("created", "a")
	// Second event immediately should NOT trigger another index.updated.
	b.PublishDocumentEvent("updated", "b")

	time.Sleep(50 * time.Millisecond)
	indexCount := 0
	docCount := 0
	for _, s := range drain(ch) {
		if strings.Contains(s, TypeIndexUpdated) {
			indexCount++
		} else {
			docCount++
		}
	}

	if docCount != 2 {
		t.Errorf("document events = %d, want 2", docCount)
	}
	if indexCount != 1 {
		t.Errorf("index events = %d, want 1 (throttled)", indexCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events?document=x", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishDocumentEvent("updated", "y")
	b.PublishDocumentEvent("updated", "x")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, `"id":"x"`) {
		t.Errorf("handler output missing event: %q", body)
	}
	if strings.Contains(body, `"id":"y"`) {
		t.Errorf("handler leaked another document's event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe("")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeDocumentUpdated, Data: map[string]string{"id": "x"}})
	b.PublishDocumentEvent("updated", "x")
}
