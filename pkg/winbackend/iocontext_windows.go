//go:build windows

package winbackend

import (
	"sync"
	"syscall"

	"github.com/brickingsoft/wincp/pkg/jobobject"
)

// CleanupTag identifies what, if anything, an IoContext owns and must
// release exactly once at completion drain (spec §3's IoContext
// invariant).
type CleanupTag uint8

const (
	CleanupNone CleanupTag = iota
	CleanupDuplicatedHandle
	CleanupJob
)

// IoContext holds the native overlapped record, the owned-cleanup tag,
// and the transferred-bytes count populated on success. Its address
// (more precisely, the SlotID field stored beside the overlapped record,
// per spec §9 option b) is how the completion dequeuer recovers the
// originating slot.
type IoContext struct {
	Overlapped syscall.Overlapped

	// SlotID is embedded directly so the completion dequeuer recovers
	// the slot without pointer arithmetic against a column base (spec
	// §9's safer "option b").
	SlotID uint64

	CleanupTag      CleanupTag
	DuplicatedHandle syscall.Handle
	Job              *jobobject.Job

	Transferred uint32
}

var ioContexts = sync.Pool{New: func() interface{} { return &IoContext{} }}

func acquireIoContext(slotID uint64) *IoContext {
	ctx := ioContexts.Get().(*IoContext)
	ctx.Overlapped = syscall.Overlapped{}
	ctx.SlotID = slotID
	ctx.CleanupTag = CleanupNone
	ctx.DuplicatedHandle = 0
	ctx.Job = nil
	ctx.Transferred = 0
	return ctx
}

func releaseIoContext(ctx *IoContext) {
	ioContexts.Put(ctx)
}

// release performs the owned-cleanup release exactly once, per the
// IoContext invariant: closing a duplicated handle, or releasing a job
// object. A failure here is a fatal assertion (spec §7): the owner of
// the cleanup is responsible for a correct handle and must abort on
// violation rather than leak.
func (ctx *IoContext) release() {
	switch ctx.CleanupTag {
	case CleanupDuplicatedHandle:
		if ctx.DuplicatedHandle != 0 {
			if err := syscall.Close(ctx.DuplicatedHandle); err != nil {
				panic("winbackend: closing duplicated handle failed: " + err.Error())
			}
			ctx.DuplicatedHandle = 0
		}
	case CleanupJob:
		if ctx.Job != nil {
			if err := ctx.Job.Close(); err != nil {
				panic("winbackend: closing job object failed: " + err.Error())
			}
			ctx.Job = nil
		}
	}
	ctx.CleanupTag = CleanupNone
}
