// Package scheduler implements the periodic task wheel PeerManager's
// ScheduleTask loop drives (spec.md §4.2 "Periodic scheduler"): a small
// set of (interval, callback) pairs, each re-armed after it fires. The
// teacher has no standalone equivalent package; this mirrors the
// time.AfterFunc-based retry-timer idiom connmgr.ConnManager uses
// internally, generalized to several independent periodic callbacks.
package scheduler

import (
	"sync"
	"time"

	"github.com/triadag/triad/logs"
)

var log = logs.NewBackend().Logger("SCHD")

// task is one registered periodic callback.
type task struct {
	interval time.Duration
	fn       func()
	nextRun  time.Time
}

// Scheduler runs a fixed set of periodic callbacks, checked once per Tick.
// PeerManager's ScheduleTask loop calls Tick every second (spec.md §4.2
// loop 4).
type Scheduler struct {
	mu    sync.Mutex
	tasks []*task
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// AddPeriodTask registers fn to run every interval, starting one interval
// from now.
func (s *Scheduler) AddPeriodTask(interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &task{
		interval: interval,
		fn:       fn,
		nextRun:  time.Now().Add(interval),
	})
}

// Tick runs every task whose interval has elapsed since it last ran.
// Callbacks run synchronously on the caller's goroutine, matching
// PeerManager's single ScheduleTask loop (spec.md §4.2 loop 4).
func (s *Scheduler) Tick() {
	now := time.Now()

	s.mu.Lock()
	due := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !now.Before(t.nextRun) {
			due = append(due, t)
			t.nextRun = now.Add(t.interval)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Run ticks once per second until stop is closed (spec.md §4.2 loop 4,
// "every 1s, run the periodic scheduler"). Callers observe interrupt
// within one tick interval, matching spec.md §5's cancellation
// requirement.
func (s *Scheduler) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-stop:
			log.Debugf("scheduler stopping")
			return
		}
	}
}
