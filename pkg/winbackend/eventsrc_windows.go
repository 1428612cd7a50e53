//go:build windows

package winbackend

import (
	"github.com/brickingsoft/wincp/pkg/eventsource"
	"github.com/brickingsoft/wincp/pkg/key"
	"github.com/brickingsoft/wincp/pkg/optable"
)

// portNotifier adapts Engine's completion port into an
// eventsource.Notifier, so a waiter parked by wait_event_source wakes
// through the same dequeue loop as every other operation (spec §4.7).
type portNotifier struct{ e *Engine }

func (n portNotifier) NotifySlot(slotID uint64) error {
	return n.e.port.Post(key.Encode(key.EventSource, slotID), nil)
}

// startWaitEventSource tries a non-blocking decrement and, on failure,
// registers a waiter to actually park the slot, both atomically via
// TryWaitOrRegister (spec §4.7: a waiter and a pending semaphore permit
// are never both outstanding for the same Notify — WaitNonBlocking
// followed by a separately-locked AddWaiter would reopen that race
// against a concurrent Notify).
func (e *Engine) startWaitEventSource(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(WaitEventSourceState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	w := &eventsource.Waiter{SlotID: id, Notifier: portNotifier{e}}
	if st.Source.TryWaitOrRegister(w) {
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
		return
	}
	e.coord.Table().SetScratch(id, &eventWaiterScratch{waiter: w})
}

func (e *Engine) finalizeWaitEventSource(_ uint64, result *optable.Result, rawErr error) {
	result.Err = classifyError("wait_event_source", rawErr)
}

// startNotifyEventSource and startCloseEventSource run off the submission
// thread via runOnPool: neither call is port-eligible, and both may briefly
// contend the source's mutex against a concurrent wait_event_source
// registration. A wincp_singlethreaded build has no worker pool to hand
// these to, so runOnPool executes them inline there instead (spec §4.6).
func (e *Engine) startNotifyEventSource(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(NotifyEventSourceState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	err := e.runOnPool(func() {
		notifyErr := st.Source.Notify()
		e.coord.Finish(driver{e}, id, notifyErr, optable.ThreadSafe)
	})
	if err != nil {
		e.coord.Finish(driver{e}, id, unexpectedOSError("notify_event_source", err), optable.ThreadUnsafe)
	}
}

func (e *Engine) startCloseEventSource(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(CloseEventSourceState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	err := e.runOnPool(func() {
		st.Source.Close()
		e.coord.Finish(driver{e}, id, nil, optable.ThreadSafe)
	})
	if err != nil {
		e.coord.Finish(driver{e}, id, unexpectedOSError("close_event_source", err), optable.ThreadUnsafe)
	}
}
