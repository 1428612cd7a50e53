//go:build windows

package winbackend

import (
	"syscall"

	"github.com/brickingsoft/wincp/pkg/optable"
)

// startBlocking dispatches an operation this backend cannot drive through
// the completion port to the worker pool (spec §4.2's closing bullet),
// retrying the call while it reports EWOULDBLOCK/EAGAIN. A
// wincp_singlethreaded build has no worker pool, so runOnPool runs the
// retry loop inline on the caller's thread instead (spec §4.6).
func (e *Engine) startBlocking(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(BlockingState)
	if !ok || st.Call == nil {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}

	err := e.runOnPool(func() {
		var n int
		var callErr error
		for {
			n, callErr = st.Call()
			if callErr == syscall.EWOULDBLOCK || callErr == syscall.EAGAIN {
				continue
			}
			break
		}
		if result, ok := e.coord.Table().ResultPtr(id); ok {
			result.N = n
		}
		e.coord.Finish(driver{e}, id, callErr, optable.ThreadSafe)
	})
	if err != nil {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start_blocking", err), optable.ThreadUnsafe)
	}
}

func (e *Engine) finalizeBlocking(_ uint64, result *optable.Result, rawErr error) {
	result.Err = classifyError("blocking", rawErr)
}
