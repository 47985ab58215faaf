package device

import (
	"sync"
	"time"
)

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc runs f after d. time.AfterFunc satisfies it via StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc schedules with time.AfterFunc.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type scheduledTask struct {
	token uint64
	name  string
	due   time.Time
	timer Timer
}

// Scheduler keeps at most one pending task per key.
//
// Each scheduled task gets a token. Scheduling or cancelling invalidates
// the previous token, so a callback that fires after cancellation can
// detect that it is stale by calling Complete.
type Scheduler struct {
	afterFunc AfterFunc
	now       func() time.Time

	mu    sync.Mutex
	tasks map[string]scheduledTask
	seq   uint64
}

// NewScheduler creates a scheduler. A nil afterFunc uses time.AfterFunc.
func NewScheduler(afterFunc AfterFunc) *Scheduler {
	if afterFunc == nil {
		afterFunc = StdAfterFunc
	}
	return &Scheduler{
		afterFunc: afterFunc,
		now:       time.Now,
		tasks:     make(map[string]scheduledTask),
	}
}

// Schedule replaces any pending task for key with fn, to run after d.
// fn receives the task's token.
func (s *Scheduler) Schedule(key, name string, d time.Duration, fn func(token uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(key)

	s.seq++
	token := s.seq
	task := scheduledTask{
		token: token,
		name:  name,
		due:   s.now().Add(d),
	}
	task.timer = s.afterFunc(d, func() { fn(token) })
	s.tasks[key] = task

	return token
}

// Cancel stops the pending task for key. It reports whether one existed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(key)
}

func (s *Scheduler) cancelLocked(key string) bool {
	task, ok := s.tasks[key]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(s.tasks, key)
	return true
}

// Complete removes the task for key if token is still current and
// reports whether the caller may proceed.
func (s *Scheduler) Complete(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key]
	if !ok || task.token != token {
		return false
	}
	delete(s.tasks, key)
	return true
}

// Pending returns the task scheduled for key, if any.
func (s *Scheduler) Pending(key string) (PendingRoutine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key]
	if !ok {
		return PendingRoutine{}, false
	}
	return PendingRoutine{Name: task.name, Due: task.due}, true
}
