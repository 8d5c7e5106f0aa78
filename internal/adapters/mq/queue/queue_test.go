package queue

import (
	"context"
	"testing"
	"time"
)

func giftEnvelope(name string, diamonds int) Event {
	return Event{
		Type: "gift",
		Payload: map[string]any{
			"giftName":     name,
			"diamondCount": diamonds,
			"repeatCount":  1,
		},
		Received: time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(10), WithBufferSize(10))
	defer func() {
		if err := q.Close(); err != nil {
			t.Errorf("failed to close queue: %v", err)
		}
	}()

	if got := q.Len(ctx); got != 0 {
		t.Errorf("expected empty queue, got len %d", got)
	}

	event := giftEnvelope("Rose", 1)
	if !q.Enqueue(ctx, event) {
		t.Error("expected enqueue to succeed")
	}
	if got := q.Len(ctx); got != 1 {
		t.Errorf("expected len 1, got %d", got)
	}

	dequeue := q.Dequeue(ctx)
	select {
	case got := <-dequeue:
		if got.Type != "gift" {
			t.Errorf("expected type gift, got %q", got.Type)
		}
		if got.Int("diamondCount", 0) != 1 {
			t.Errorf("expected diamondCount 1, got %d", got.Int("diamondCount", 0))
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for dequeue")
	}
}

func TestInMemoryQueue_CapacityLimit(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(2), WithBufferSize(2))
	defer func() { _ = q.Close() }()

	if !q.Enqueue(ctx, giftEnvelope("Rose", 1)) {
		t.Error("first enqueue should succeed")
	}
	if !q.Enqueue(ctx, giftEnvelope("Lion", 29999)) {
		t.Error("second enqueue should succeed")
	}
	if q.Enqueue(ctx, giftEnvelope("Galaxy", 1000)) {
		t.Error("enqueue beyond capacity should fail")
	}
	if got := q.Len(ctx); got != 2 {
		t.Errorf("expected len 2, got %d", got)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(10), WithBufferSize(10))

	if q.IsClosed() {
		t.Error("queue should not be closed initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("queue should report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("double close should be a no-op, got %v", err)
	}
	if q.Enqueue(ctx, Event{Type: "like", Payload: map[string]any{"likeCount": 5}}) {
		t.Error("enqueue after close should fail")
	}
}

func TestInMemoryQueue_DequeueDrainsAfterClose(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(10), WithBufferSize(10))

	for i := 0; i < 3; i++ {
		if !q.Enqueue(ctx, Event{Type: "share", Payload: map[string]any{}}) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	dequeue := q.Dequeue(ctx)
	count := 0
	for range dequeue {
		count++
	}
	if count != 3 {
		t.Errorf("expected to drain 3 events, got %d", count)
	}
}
