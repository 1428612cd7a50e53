//go:build windows

package winbackend

import "github.com/brickingsoft/wincp/pkg/optable"

// startOp dispatches a freshly pulled-from-pending operation to its
// per-tag submission handler (spec §4.2). Every handler either issues
// an overlapped call that will complete through the port, arms a timer,
// hands work to the worker pool, or finishes the slot inline.
func (e *Engine) startOp(id uint64) {
	tag, ok := e.coord.Table().Tag(id)
	if !ok {
		return
	}
	if stateVal, ok := e.coord.Table().State(id); ok {
		if _, isBlocking := stateVal.(BlockingState); isBlocking {
			e.startBlocking(id)
			return
		}
	}
	switch tag {
	case optable.Read, optable.Write:
		e.startReadWrite(id, tag)
	case optable.Readv, optable.Writev:
		e.startVector(id, tag)
	case optable.Accept:
		e.startAccept(id)
	case optable.Recv, optable.Send:
		e.startStream(id, tag)
	case optable.RecvMsg, optable.SendMsg:
		e.startStreamMsg(id, tag)
	case optable.Timeout:
		e.startTimeout(id)
	case optable.LinkTimeout:
		e.startLinkTimeout(id)
	case optable.ChildExit:
		e.startChildExit(id)
	case optable.WaitEventSource:
		e.startWaitEventSource(id)
	case optable.NotifyEventSource:
		e.startNotifyEventSource(id)
	case optable.CloseEventSource:
		e.startCloseEventSource(id)
	case optable.Poll:
		e.startPoll(id)
	default:
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
	}
}
