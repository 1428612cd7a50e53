//go:build windows

package winbackend

import (
	"unsafe"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/key"
	"github.com/brickingsoft/wincp/pkg/optable"
	"golang.org/x/sys/windows"
)

// routeCompletion implements spec §4.5 steps 4-5: given one dequeued
// completion, recover which slot it belongs to and hand it to the
// coordinator for finalization. A WAIT_TIMEOUT dequeue error with no
// overlapped pointer means nothing fired before the wait bound expired
// and is not itself an error.
func (e *Engine) routeCompletion(qty uint32, k key.Key, overlapped *windows.Overlapped, dequeueErr error) error {
	if dequeueErr != nil && overlapped == nil && k == 0 {
		if errors.Is(windows.WAIT_TIMEOUT, dequeueErr) {
			return nil
		}
		return unexpectedOSError("dequeue", dequeueErr)
	}

	switch k.Tag() {
	case key.Nop:
		e.signaled.Store(true)
		return nil
	case key.Shutdown:
		return nil
	case key.EventSource:
		e.coord.Finish(driver{e}, k.ID(), nil, optable.ThreadUnsafe)
		return nil
	case key.ChildExit:
		e.routeChildExit(k.ID(), qty, overlapped)
		return nil
	case key.Overlapped:
		if overlapped == nil {
			return nil
		}
		ctx := (*IoContext)(unsafe.Pointer(overlapped))
		ctx.Transferred = qty
		var opErr error
		if dequeueErr != nil {
			opErr = dequeueErr
		}
		e.coord.Finish(driver{e}, ctx.SlotID, opErr, optable.ThreadUnsafe)
		return nil
	default:
		return nil
	}
}
