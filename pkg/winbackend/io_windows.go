//go:build windows

package winbackend

import (
	"syscall"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/optable"
	"golang.org/x/sys/windows"
)

// startReadWrite submits a single read or write (spec §4.2's read/write
// bullet). A negative Offset queries the handle's current file position
// by omitting the overlapped offset fields, matching ReadFile/WriteFile's
// own "no overlapped offset" convention only insofar as we zero it; pipe
// and console handles ignore the offset regardless.
//
// Per spec §4.2, the handle the caller passed in is never assumed to have
// been opened with FILE_FLAG_OVERLAPPED itself: startReadWrite first tries
// to re-open it via reopenOverlapped and issues the read/write against
// that duplicate, handing the duplicate's ownership to the IoContext
// (CleanupDuplicatedHandle, released in finalizeReadWrite). A handle kind
// ReOpenFile refuses (pipes, consoles, sockets) falls back to operating on
// the original handle directly, same as before.
func (e *Engine) startReadWrite(id uint64, tag optable.OpTag) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(ReadWriteState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	handle := windows.Handle(st.Handle)
	if err := checkDirection(handle, tag == optable.Read); err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	ctx := acquireIoContext(id)
	ioHandle := handle
	if dup, dupErr := reopenOverlapped(handle, 0); dupErr == nil {
		ioHandle = dup
		ctx.CleanupTag = CleanupDuplicatedHandle
		ctx.DuplicatedHandle = syscall.Handle(dup)
	}

	if err := e.port.AssociateHandle(ioHandle); err != nil {
		ctx.release()
		releaseIoContext(ctx)
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	if st.Offset >= 0 {
		ctx.Overlapped.OffsetHigh = uint32(st.Offset >> 32)
		ctx.Overlapped.Offset = uint32(uint64(st.Offset))
	}
	e.coord.Table().SetContext(id, ctx)

	var n uint32
	var opErr error
	if tag == optable.Read {
		opErr = syscall.ReadFile(syscall.Handle(ioHandle), st.Buf, &n, &ctx.Overlapped)
	} else {
		opErr = syscall.WriteFile(syscall.Handle(ioHandle), st.Buf, &n, &ctx.Overlapped)
	}

	switch {
	case opErr == nil:
		// FILE_SKIP_COMPLETION_PORT_ON_SUCCESS means a synchronous success
		// never reaches the port; finalize inline.
		ctx.Transferred = n
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
	case errors.Is(syscall.ERROR_IO_PENDING, opErr):
		// will complete through the port.
	default:
		e.coord.Finish(driver{e}, id, opErr, optable.ThreadUnsafe)
	}
}

// finalizeReadWrite writes the transferred byte count back into the
// Result column and releases the slot's IoContext.
func (e *Engine) finalizeReadWrite(id uint64, result *optable.Result, rawErr error) {
	ctxVal, _ := e.coord.Table().Context(id)
	if ctx, ok := ctxVal.(*IoContext); ok {
		result.N = int(ctx.Transferred)
		ctx.release()
		releaseIoContext(ctx)
	}
	result.Err = classifyError("read_write", rawErr)
}

// startVector submits a scatter/gather read or write. This backend has
// no ReadFileScatter/WriteFileGather binding available (they require
// page-aligned, page-sized buffers, a constraint the generic [][]byte
// front-end shape doesn't guarantee), so it drives the first segment on
// the worker pool instead of through the port — still async with respect
// to the caller's complete() loop, just not port-eligible in this
// implementation. Per spec §4.2/§9 this backend does not coalesce: only
// st.Iov[0] is submitted, and an empty vector short-circuits to a
// zero-byte success without touching the pool at all; the front end is
// responsible for issuing a follow-up op for any remaining segments. A
// wincp_singlethreaded build runs the same call inline via runOnPool
// (spec §4.6).
func (e *Engine) startVector(id uint64, tag optable.OpTag) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(VectorState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}

	if len(st.Iov) == 0 {
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
		return
	}
	seg := st.Iov[0]

	err := e.runOnPool(func() {
		var n uint32
		var opErr error
		if len(seg) > 0 {
			handle := syscall.Handle(st.Handle)
			if tag == optable.Readv {
				opErr = syscall.ReadFile(handle, seg, &n, nil)
			} else {
				opErr = syscall.WriteFile(handle, seg, &n, nil)
			}
		}
		if result, ok := e.coord.Table().ResultPtr(id); ok {
			result.N = int(n)
		}
		e.coord.Finish(driver{e}, id, opErr, optable.ThreadSafe)
	})
	if err != nil {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start_vector", err), optable.ThreadUnsafe)
	}
}

// finalizeVector classifies the single-segment read/write's terminal
// error. N was already written by the worker closure.
func (e *Engine) finalizeVector(id uint64, result *optable.Result, rawErr error) {
	result.Err = classifyError("vector", rawErr)
}
