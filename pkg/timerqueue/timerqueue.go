// Package timerqueue implements the monotonic one-shot timer facility the
// Windows driver schedules timeout and link_timeout operations against
// (spec §3, §4.2). It maps an opaque user word to a single pending timer;
// on expiry it invokes the registered callback. Disarm races with a timer
// that has already fired are reported as ErrNotFound so the caller (the
// driver's cancel path) can fall back to "let it run, then ignore".
package timerqueue

import (
	"sync"
	"time"
)

// OnTimeout is invoked from an internal goroutine when a timer fires. It
// must not block; the driver's onTimeout handler finishes the slot and
// returns.
type OnTimeout func(userWord uint64)

type entry struct {
	timer  *time.Timer
	fireAt time.Time
}

// Queue is safe for concurrent use. Arm/Disarm may be called from the
// driver's single submission thread while fired timers invoke callbacks
// from their own goroutines; both paths serialize on the same mutex.
type Queue struct {
	mu     sync.Mutex
	timers map[uint64]*entry
}

// New returns an empty timer queue.
func New() *Queue {
	return &Queue{timers: make(map[uint64]*entry)}
}

// Arm schedules a one-shot timer for userWord, firing after d. Arming a
// userWord that already has a pending timer replaces it (the caller is
// responsible for not double-arming a slot id).
func (q *Queue) Arm(userWord uint64, d time.Duration, onTimeout OnTimeout) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.timers[userWord]; ok {
		old.timer.Stop()
	}
	e := &entry{fireAt: time.Now().Add(d)}
	e.timer = time.AfterFunc(d, func() {
		q.mu.Lock()
		if cur, ok := q.timers[userWord]; !ok || cur != e {
			// disarmed or replaced between fire and lock acquisition.
			q.mu.Unlock()
			return
		}
		delete(q.timers, userWord)
		q.mu.Unlock()
		onTimeout(userWord)
	})
	q.timers[userWord] = e
}

// Disarm cancels the pending timer for userWord. Returns ErrNotFound if
// the timer already fired (or was never armed) — the driver treats that
// as "let the timer run, then ignore" per spec §5.
func (q *Queue) Disarm(userWord uint64) error {
	q.mu.Lock()
	e, ok := q.timers[userWord]
	if !ok {
		q.mu.Unlock()
		return ErrNotFound
	}
	delete(q.timers, userWord)
	q.mu.Unlock()

	// The entry was still present, so the callback has not passed its
	// lookup; if it already started, it will find the entry gone and
	// no-op. Either way onTimeout does not run for this arm.
	e.timer.Stop()
	return nil
}

// NextFireDelay returns the delay until the earliest pending timer fires,
// and whether any timer is pending at all. The Windows driver's main loop
// uses this to bound its port dequeue wait (§4.5 step 2).
func (q *Queue) NextFireDelay() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.timers) == 0 {
		return 0, false
	}
	now := time.Now()
	var earliest time.Time
	for _, e := range q.timers {
		if earliest.IsZero() || e.fireAt.Before(earliest) {
			earliest = e.fireAt
		}
	}
	if d := earliest.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}

// Len reports the number of currently armed timers, chiefly for tests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}
