//go:build windows

// Package winbackend is the Windows driver: the spec's "hard part" that
// unifies the completion port, timer queue, worker pool, and event
// sources behind one submission/completion interface (spec §1, §2).
package winbackend

import (
	"sync/atomic"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/iocp"
	"github.com/brickingsoft/wincp/pkg/key"
	"github.com/brickingsoft/wincp/pkg/optable"
	"github.com/brickingsoft/wincp/pkg/timerqueue"
	"github.com/brickingsoft/wincp/pkg/uringlator"
	"golang.org/x/sys/windows"
)

// Mode selects how long Complete is willing to wait for a completion.
type Mode uint8

const (
	Blocking Mode = iota
	NonBlocking
)

// Handler is invoked once per drained completion.
type Handler func(id uint64, result optable.Result)

// Engine is the concrete Windows backend: one completion port, one
// dynamic worker pool, one timer queue, and the uringlator coordinator
// tying them to this driver's Start/Cancel/Complete hooks.
type Engine struct {
	settings Settings

	port   *iocp.Port
	pool   Spawner
	timers *timerqueue.Queue
	coord  *uringlator.Coordinator

	signaled atomic.Bool
}

// Spawner is the subset of *workerpool.Pool this package depends on,
// satisfied by the single-threaded stub in builds tagged
// wincp_singlethreaded (spec §4.6).
type Spawner interface {
	Spawn(fn func()) error
	Close()
}

// Init builds a running engine sized for capacity concurrent operations.
func Init(settings Settings) (*Engine, error) {
	settings = settings.resolve()

	port, err := iocp.Create(settings.Threads)
	if err != nil {
		return nil, err
	}

	pool, err := newSpawner(settings)
	if err != nil {
		_ = port.Destroy()
		return nil, err
	}

	e := &Engine{
		settings: settings,
		port:     port,
		pool:     pool,
		timers:   timerqueue.New(),
		coord:    uringlator.New(settings.Capacity),
	}
	return e, nil
}

// IsSupported reports whether this backend can drive every op tag in
// tags. False only if the batch contains a poll operation (spec §6).
func IsSupported(tags []optable.OpTag) bool {
	for _, t := range tags {
		if t == optable.Poll {
			return false
		}
	}
	return true
}

// driver adapts Engine's unexported op hooks to uringlator.Driver. It is
// a distinct type (rather than methods named Start/Cancel/Complete
// directly on *Engine) because Engine's public Complete already names
// the spec §6 complete() entry point with a different signature.
type driver struct{ e *Engine }

func (d driver) Start(id uint64)       { d.e.startOp(id) }
func (d driver) Cancel(id uint64) bool { return d.e.cancelOp(id) }

// Complete finalizes id, then posts a nop so the driver thread's port
// dequeue returns and drains it, whether id finished inline during
// Submit or on a worker/timer/event-source goroutine.
func (d driver) Complete(id uint64, err error) {
	d.e.finishOp(id, err)
	_ = d.e.port.Post(key.Encode(key.Nop, 0), nil)
}

// Destroy quiesces all in-flight operations, tears down the worker pool,
// and closes the completion port.
func (e *Engine) Destroy() error {
	e.coord.Shutdown(driver{e})
	e.pool.Close()
	return e.port.Destroy()
}

// Queue hands a batch to the coordinator for slot allocation (spec §6).
func (e *Engine) Queue(ops []uringlator.Op) ([]uint64, error) {
	return e.coord.Queue(ops)
}

// Complete runs one main-loop iteration (spec §4.5) and returns the
// number of completions and errors drained.
func (e *Engine) Complete(mode Mode, handler Handler) (numCompleted, numErrors int, err error) {
	// Step 1: submit queued but unstarted operations.
	e.coord.Submit(driver{e})

	// Step 2: compute the wait bound from the timer queue.
	timeoutMillis := e.waitBoundMillis(mode)

	// Step 3: dequeue one port completion.
	qty, k, overlapped, dequeueErr := e.port.Dequeue(timeoutMillis)

	// Step 4/5: route by key type and call finish.
	if err2 := e.routeCompletion(qty, k, overlapped, dequeueErr); err2 != nil {
		err = err2
	}

	// Step 6: drain whatever is ready — the one completion just routed,
	// plus anything Submit finished inline this round — into the
	// caller's counters.
	for _, c := range e.coord.DrainCompletions(0) {
		if handler != nil {
			handler(c.ID, c.Result)
		}
		if c.Result.Err != nil {
			numErrors++
		} else {
			numCompleted++
		}
	}
	e.signaled.Store(false)

	return
}

func (e *Engine) waitBoundMillis(mode Mode) uint32 {
	if e.signaled.Load() || mode == NonBlocking {
		return 0
	}
	if d, ok := e.timers.NextFireDelay(); ok {
		ms := d.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		if ms > int64(dwordMax) {
			ms = int64(dwordMax)
		}
		return uint32(ms)
	}
	return windows.INFINITE
}

const dwordMax = 0xffffffff

// Immediate is the convenience one-shot: build a thread-local engine,
// queue ops, drain blockingly until empty, and tear down (spec §6).
func Immediate(settings Settings, ops []uringlator.Op) (numErrors int, err error) {
	e, err := Init(settings)
	if err != nil {
		return 0, err
	}
	defer e.Destroy()

	ids, err := e.Queue(ops)
	if err != nil {
		return 0, err
	}
	remaining := len(ids)
	for remaining > 0 {
		completed, errs, loopErr := e.Complete(Blocking, nil)
		if loopErr != nil {
			return numErrors, loopErr
		}
		remaining -= completed + errs
		numErrors += errs
	}
	return numErrors, nil
}

func unexpectedOSError(op string, cause error) error {
	return errors.New(
		"unexpected os error",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, op),
		errors.WithWrap(cause),
	)
}
