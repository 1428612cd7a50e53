//go:build windows

package winbackend

import "github.com/brickingsoft/wincp/pkg/optable"

// Poll has no IOCP equivalent this backend can drive (spec §6's
// is_supported already rejects a batch containing it); a poll slot that
// somehow reaches start still fails cleanly rather than hanging.
func (e *Engine) startPoll(id uint64) {
	e.coord.Finish(driver{e}, id, ErrNotSupported, optable.ThreadUnsafe)
}
