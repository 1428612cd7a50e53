// Package uringlator implements the cross-platform coordinator spec.md's
// glossary calls the Uringlator: it owns slot allocation over an
// optable.Table and exposes queue/submit/finish/shutdown to a backend
// driver. The driver supplies Start/Cancel/Complete hooks; this package
// never interprets operation tags or payloads itself (§1 scope).
package uringlator

import (
	"sync"

	"github.com/brickingsoft/wincp/pkg/optable"
)

// Driver is the set of hooks a backend (the Windows driver, in this
// module) implements so the coordinator can drive an operation's
// lifecycle without knowing its tag.
type Driver interface {
	// Start begins operation id. It may finish the slot inline (by
	// calling Coordinator.Finish) or leave it pending for a later
	// asynchronous completion.
	Start(id uint64)
	// Cancel attempts to terminate operation id immediately. Returns
	// true if it already finished the slot.
	Cancel(id uint64) bool
	// Complete performs completion finalization (spec §4.4) for id,
	// given the terminal error (nil on success). It runs exactly once
	// per slot, before the slot is handed back to the caller.
	Complete(id uint64, err error)
}

// Op is a queued operation: an opaque tag plus whatever typed payload
// the front end built for it. The front end and the descriptor schema
// are out of scope (§1); Op is the minimal shape this coordinator needs.
type Op struct {
	Tag   optable.OpTag
	State interface{}
}

// Completion is one drained, finalized operation ready for the caller.
type Completion struct {
	ID     uint64
	Result optable.Result
}

// Coordinator is safe for concurrent use from the driver's submission
// thread and from worker/timer/event-source goroutines calling Finish.
type Coordinator struct {
	table *optable.Table

	mu       sync.Mutex
	pending  []uint64
	ready    []uint64
	shutdown bool
}

// New builds a coordinator over a freshly allocated operation table sized
// for capacity concurrent operations.
func New(capacity int) *Coordinator {
	return &Coordinator{table: optable.NewTable(capacity), pending: make([]uint64, 0, capacity)}
}

// Table exposes the underlying column store for backends that need
// direct column access (context/scratch/result) alongside the
// queue/submit/finish surface.
func (c *Coordinator) Table() *optable.Table {
	return c.table
}

// Queue hands a batch to the coordinator for slot allocation, returning
// one stable id per op in submission order. Ops are not started yet;
// Submit pulls them through the driver.
func (c *Coordinator) Queue(ops []Op) ([]uint64, error) {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil, ErrShutdown
	}
	ids := make([]uint64, len(ops))
	for i, op := range ops {
		id := c.table.Alloc(op.Tag, op.State)
		ids[i] = id
		c.pending = append(c.pending, id)
	}
	c.mu.Unlock()
	return ids, nil
}

// Submit pulls every pending submission through driver.Start. Returns
// true if at least one operation was started.
func (c *Coordinator) Submit(driver Driver) bool {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return false
	}
	batch := c.pending
	c.pending = make([]uint64, 0, cap(batch))
	c.mu.Unlock()

	for _, id := range batch {
		driver.Start(id)
	}
	return true
}

// Finish reports that operation id has reached a terminal state. It runs
// the driver's completion finalization and marks the slot ready for
// drain. safety records which locking discipline the caller used to
// reach here (spec §5); this reference coordinator always serializes on
// its own mutex regardless, since that mutex is never held across a
// blocking call, so the distinction does not change correctness here —
// only which call site (driver thread vs. worker/timer/event-source
// goroutine) it is.
func (c *Coordinator) Finish(driver Driver, id uint64, err error, safety optable.Safety) {
	_ = safety
	if !c.table.Lookup(id) {
		// Raced with cancel or an earlier Finish: drop it (spec §4.5
		// step 4, §5).
		return
	}
	driver.Complete(id, err)

	c.mu.Lock()
	c.ready = append(c.ready, id)
	c.mu.Unlock()
}

// DrainCompletions removes up to max finished operations, releasing
// their slots, and returns their ids and results. Ordering across slots
// is not guaranteed (spec §4.5 "Ordering").
func (c *Coordinator) DrainCompletions(max int) []Completion {
	c.mu.Lock()
	n := len(c.ready)
	if n == 0 {
		c.mu.Unlock()
		return nil
	}
	if max > 0 && max < n {
		n = max
	}
	batch := c.ready[:n]
	c.ready = c.ready[n:]
	c.mu.Unlock()

	out := make([]Completion, 0, n)
	for _, id := range batch {
		result, ok := c.table.ResultPtr(id)
		var r optable.Result
		if ok {
			r = *result
		}
		c.table.Release(id)
		out = append(out, Completion{ID: id, Result: r})
	}
	return out
}

// PendingCompletionCount reports how many finished operations are
// waiting to be drained.
func (c *Coordinator) PendingCompletionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ready)
}

// Shutdown quiesces every in-flight operation by canceling it through the
// driver. Used by backend Destroy. It does not drain: completions the
// cancels produce stay queued for DrainCompletions.
func (c *Coordinator) Shutdown(driver Driver) {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()

	for _, id := range c.table.InUseIDs() {
		if driver.Cancel(id) {
			continue
		}
		// Cancel returned false: the operation will complete naturally
		// (success or a canceled-I/O error) and call Finish on its own.
	}
}
