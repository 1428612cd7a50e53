package timerqueue

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestArmFires(t *testing.T) {
	q := New()
	var fired atomic.Bool
	done := make(chan struct{})
	q.Arm(7, 5*time.Millisecond, func(userWord uint64) {
		if userWord != 7 {
			t.Errorf("userWord = %d, want 7", userWord)
		}
		fired.Store(true)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if !fired.Load() {
		t.Fatal("onTimeout not invoked")
	}
	if n := q.Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0 after fire", n)
	}
}

func TestDisarmBeforeFire(t *testing.T) {
	q := New()
	q.Arm(1, time.Hour, func(uint64) {
		t.Fatal("onTimeout must not run after disarm")
	})
	if err := q.Disarm(1); err != nil {
		t.Fatalf("Disarm: %v", err)
	}
	if n := q.Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0", n)
	}
}

func TestDisarmRaceAfterFire(t *testing.T) {
	q := New()
	done := make(chan struct{})
	q.Arm(9, time.Millisecond, func(uint64) { close(done) })
	<-done
	time.Sleep(5 * time.Millisecond)
	if err := q.Disarm(9); err != ErrNotFound {
		t.Fatalf("Disarm after fire = %v, want ErrNotFound", err)
	}
}

func TestNextFireDelay(t *testing.T) {
	q := New()
	if _, ok := q.NextFireDelay(); ok {
		t.Fatal("expected no pending timer on an empty queue")
	}
	q.Arm(1, time.Hour, func(uint64) {})
	q.Arm(2, time.Minute, func(uint64) {})
	d, ok := q.NextFireDelay()
	if !ok {
		t.Fatal("expected a pending timer")
	}
	if d > time.Minute || d < time.Minute-time.Second {
		t.Fatalf("NextFireDelay() = %v, want ~1m", d)
	}
	_ = q.Disarm(1)
	_ = q.Disarm(2)
}
