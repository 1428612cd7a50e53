//go:build windows

package winbackend

import "github.com/brickingsoft/wincp/pkg/optable"

// startTimeout arms a plain delay op (spec §4.2's timeout bullet): its
// own expiry is success, not an error.
func (e *Engine) startTimeout(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(TimeoutState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	e.timers.Arm(id, st.Duration, e.onTimeoutFired)
}

func (e *Engine) onTimeoutFired(id uint64) {
	e.coord.Finish(driver{e}, id, nil, optable.ThreadSafe)
}

// startLinkTimeout arms a timer that, on expiry, cancels the operation
// it is linked to (spec §4.2's link_timeout bullet, §5's link-timeout
// race with natural completion). If LinkedID has already finished by
// the time the timer fires, cancelOp is a no-op.
func (e *Engine) startLinkTimeout(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(LinkTimeoutState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	linkedID := st.LinkedID
	e.timers.Arm(id, st.Duration, func(fired uint64) {
		e.cancelOp(linkedID)
		e.coord.Finish(driver{e}, fired, nil, optable.ThreadSafe)
	})
}
