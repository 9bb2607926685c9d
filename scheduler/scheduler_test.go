package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickRunsDueTasksOnly(t *testing.T) {
	s := New()

	var fastCount, slowCount int32
	s.AddPeriodTask(0, func() { atomic.AddInt32(&fastCount, 1) })
	s.AddPeriodTask(time.Hour, func() { atomic.AddInt32(&slowCount, 1) })

	s.Tick()
	s.Tick()

	if got := atomic.LoadInt32(&fastCount); got != 2 {
		t.Fatalf("expected fast task to fire twice, got %d", got)
	}
	if got := atomic.LoadInt32(&slowCount); got != 0 {
		t.Fatalf("expected slow task to not fire yet, got %d", got)
	}
}

func TestRunStopsOnSignal(t *testing.T) {
	s := New()
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		s.Run(stop)
		close(done)
	}()

	close(stop)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after stop was closed")
	}
}
