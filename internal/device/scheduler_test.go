package device

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_CompleteOnlyCurrentToken(t *testing.T) {
	clock := &fakeClock{}
	s := NewScheduler(clock.AfterFunc)

	first := s.Schedule("dev", "a", time.Minute, func(uint64) {})
	second := s.Schedule("dev", "b", time.Minute, func(uint64) {})

	if s.Complete("dev", first) {
		t.Error("Complete(stale token) = true")
	}
	if p, ok := s.Pending("dev"); !ok || p.Name != "b" {
		t.Errorf("Pending() = %+v, %v", p, ok)
	}
	if !s.Complete("dev", second) {
		t.Error("Complete(current token) = false")
	}
	if _, ok := s.Pending("dev"); ok {
		t.Error("task still pending after Complete")
	}
}

func TestScheduler_CancelIsPerKey(t *testing.T) {
	clock := &fakeClock{}
	s := NewScheduler(clock.AfterFunc)

	s.Schedule("a", "x", time.Second, func(uint64) {})
	s.Schedule("b", "y", time.Second, func(uint64) {})

	if !s.Cancel("a") {
		t.Error("Cancel(a) = false")
	}
	if s.Cancel("a") {
		t.Error("second Cancel(a) = true")
	}
	if _, ok := s.Pending("b"); !ok {
		t.Error("Cancel(a) removed task b")
	}
}

func TestScheduler_RealTimer(t *testing.T) {
	s := NewScheduler(nil)

	var fired atomic.Bool
	done := make(chan struct{})
	s.Schedule("dev", "x", 10*time.Millisecond, func(token uint64) {
		if s.Complete("dev", token) {
			fired.Store(true)
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	if !fired.Load() {
		t.Error("callback token was not current")
	}
}
