//go:build windows

package winbackend

import (
	"os"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/optable"
	"golang.org/x/sys/windows"
)

// finishOp is the coordinator's Driver.Complete hook: completion
// finalization (spec §4.4), run exactly once per slot before it is
// handed back to the caller. It classifies the terminal OS error into
// the spec §7 taxonomy, writes the typed Result column, and releases
// whatever this slot's IoContext/scratch owns.
func (e *Engine) finishOp(id uint64, rawErr error) {
	tag, ok := e.coord.Table().Tag(id)
	if !ok {
		return
	}
	result, ok := e.coord.Table().ResultPtr(id)
	if !ok {
		return
	}

	if stateVal, ok := e.coord.Table().State(id); ok {
		if _, isBlocking := stateVal.(BlockingState); isBlocking {
			e.finalizeBlocking(id, result, rawErr)
			return
		}
	}

	switch tag {
	case optable.Read, optable.Write:
		e.finalizeReadWrite(id, result, rawErr)
	case optable.Readv, optable.Writev:
		e.finalizeVector(id, result, rawErr)
	case optable.Accept:
		e.finalizeAccept(id, result, rawErr)
	case optable.Recv, optable.Send:
		e.finalizeStream(id, result, rawErr)
	case optable.RecvMsg, optable.SendMsg:
		e.finalizeStreamMsg(id, result, rawErr)
	case optable.Timeout, optable.LinkTimeout:
		result.Err = classifyError("timeout", rawErr)
	case optable.ChildExit:
		e.finalizeChildExit(id, result, rawErr)
	case optable.WaitEventSource:
		e.finalizeWaitEventSource(id, result, rawErr)
	case optable.NotifyEventSource, optable.CloseEventSource:
		result.Err = classifyError("notify_event_source", rawErr)
	case optable.Poll:
		if rawErr != nil {
			result.Err = newOpError(KindNotSupported, "poll", rawErr)
		}
	default:
		result.Err = classifyError("unknown", rawErr)
	}
}

// classifyError maps a raw OS/cancellation error onto the spec §7
// taxonomy's Kind, wrapping it in an *OpError so callers can branch on
// Kind without string matching. nil stays nil.
func classifyError(op string, raw error) error {
	if raw == nil {
		return nil
	}
	if ce, ok := raw.(*CancellationError); ok {
		return newOpError(KindCanceled, op, ce)
	}

	switch {
	case errors.Is(windows.ERROR_OPERATION_ABORTED, raw), errors.Is(windows.ERROR_CANCELLED, raw):
		return newOpError(KindCanceled, op, raw)
	case errors.Is(windows.WSAECONNRESET, raw), errors.Is(windows.WSAENETUNREACH, raw),
		errors.Is(windows.WSAEMSGSIZE, raw), errors.Is(windows.WSAESHUTDOWN, raw),
		errors.Is(windows.WSAENOTCONN, raw), errors.Is(windows.WSAEACCES, raw),
		errors.Is(windows.WSAEADDRNOTAVAIL, raw), errors.Is(windows.WSAENOTSOCK, raw),
		errors.Is(windows.WSAEAFNOSUPPORT, raw), errors.Is(windows.WSAENOBUFS, raw):
		return newOpError(KindTransport, op, os.NewSyscallError(op, raw))
	default:
		return newOpError(KindUnexpected, op, os.NewSyscallError(op, raw))
	}
}
