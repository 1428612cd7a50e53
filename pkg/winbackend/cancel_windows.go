//go:build windows

package winbackend

import (
	"syscall"

	"github.com/brickingsoft/wincp/pkg/optable"
)

// cancelOp implements spec §4.3's per-tag cancellation table. It returns
// true if the slot was finished here (the coordinator should treat it as
// already drained), false if cancellation was merely requested and the
// slot will finish naturally through the normal completion path.
func (e *Engine) cancelOp(id uint64) bool {
	tag, ok := e.coord.Table().Tag(id)
	if !ok {
		return true
	}
	if stateVal, ok := e.coord.Table().State(id); ok {
		if _, isBlocking := stateVal.(BlockingState); isBlocking {
			// already running on the worker pool; no kernel-level
			// cancellation exists for an arbitrary blocking call.
			return false
		}
	}
	switch tag {
	case optable.Read, optable.Write, optable.Readv, optable.Writev,
		optable.Accept, optable.Recv, optable.Send, optable.RecvMsg, optable.SendMsg:
		return e.cancelOverlapped(id)
	case optable.Timeout, optable.LinkTimeout:
		return e.cancelTimer(id)
	case optable.ChildExit:
		return e.cancelChildExit(id)
	case optable.WaitEventSource:
		return e.cancelWaitEventSource(id)
	default:
		return false
	}
}

// cancelOverlapped requests cancellation of a port-eligible I/O op via
// CancelIoEx. The kernel still delivers a completion (ERROR_OPERATION_
// ABORTED, or a benign success if the op raced to finish first) through
// the ordinary dequeue path, so this never finishes the slot itself.
func (e *Engine) cancelOverlapped(id uint64) bool {
	ctxVal, ok := e.coord.Table().Context(id)
	if !ok {
		return false
	}
	ctx, ok := ctxVal.(*IoContext)
	if !ok {
		return false
	}
	stateVal, _ := e.coord.Table().State(id)
	handle, ok := handleOf(stateVal)
	if !ok {
		return false
	}
	_ = syscall.CancelIoEx(syscall.Handle(handle), &ctx.Overlapped)
	return false
}

// cancelTimer disarms a pending timeout/link_timeout. If the timer had
// already fired, its own callback owns finishing the slot instead.
func (e *Engine) cancelTimer(id uint64) bool {
	if err := e.timers.Disarm(id); err != nil {
		return false
	}
	e.coord.Finish(driver{e}, id, &CancellationError{}, optable.ThreadUnsafe)
	return true
}

// cancelChildExit releases the job object, which tears down its
// completion-port association (spec §4.3): no further message for this
// slot will arrive, so cancel must finish it directly.
func (e *Engine) cancelChildExit(id uint64) bool {
	ctxVal, ok := e.coord.Table().Context(id)
	if !ok {
		return false
	}
	ctx, ok := ctxVal.(*IoContext)
	if !ok || ctx.Job == nil {
		return false
	}
	_ = ctx.Job.Close()
	ctx.Job = nil
	ctx.CleanupTag = CleanupNone
	e.coord.Finish(driver{e}, id, &CancellationError{}, optable.ThreadUnsafe)
	return true
}

// cancelWaitEventSource removes the parked waiter from its event source's
// list. If RemoveWaiter reports the waiter already gone, Notify won the
// race and the slot will finish through its own notify path instead.
func (e *Engine) cancelWaitEventSource(id uint64) bool {
	scratchVal, ok := e.coord.Table().Scratch(id)
	if !ok {
		return false
	}
	sc, ok := scratchVal.(*eventWaiterScratch)
	if !ok || sc.waiter == nil {
		return false
	}
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(WaitEventSourceState)
	if !ok || st.Source == nil {
		return false
	}
	if err := st.Source.RemoveWaiter(sc.waiter); err != nil {
		return false
	}
	e.coord.Finish(driver{e}, id, &CancellationError{}, optable.ThreadUnsafe)
	return true
}
