package concurrent

import (
	"context"
	"testing"
	"time"
)

func TestDropNewestQueueDropsOnFull(t *testing.T) {
	q := NewDropNewestQueue(2)
	if !q.Push(1) || !q.Push(2) {
		t.Fatal("expected first two pushes to succeed")
	}
	if q.Push(3) {
		t.Fatal("expected third push to be dropped")
	}
	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}
}

func TestDropNewestQueuePopRespectsContext(t *testing.T) {
	q := NewDropNewestQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, ok := q.Pop(ctx); ok {
		t.Fatal("expected Pop to fail on empty queue with expired context")
	}
}

func TestBlockingQueuePushBlocksUntilSpace(t *testing.T) {
	q := NewBlockingQueue(1)
	if !q.Push(context.Background(), "a") {
		t.Fatal("expected first push to succeed")
	}

	done := make(chan bool, 1)
	go func() {
		done <- q.Push(context.Background(), "b")
	}()

	select {
	case <-done:
		t.Fatal("expected second push to block while queue is full")
	case <-time.After(100 * time.Millisecond):
	}

	v, ok := q.Pop(context.Background())
	if !ok || v != "a" {
		t.Fatalf("expected to pop 'a', got %v, %v", v, ok)
	}

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("expected blocked push to eventually succeed")
		}
	case <-time.After(time.Second):
		t.Fatal("blocked push never unblocked after Pop freed space")
	}
}
