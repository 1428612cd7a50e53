//go:build windows

package winbackend

import (
	"github.com/brickingsoft/wincp/pkg/jobobject"
	"github.com/brickingsoft/wincp/pkg/optable"
	"golang.org/x/sys/windows"
)

// startChildExit wraps the target process in a fresh job object and
// associates that job with this engine's port, so process termination
// arrives as an ordinary port completion (spec §4.2's child_exit
// bullet, grounded in pkg/jobobject).
func (e *Engine) startChildExit(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(ChildExitState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}

	job, err := jobobject.Create()
	if err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}
	if err := job.AssignProcess(windows.Handle(st.ProcessHandle)); err != nil {
		_ = job.Close()
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}
	if err := job.AssociateWithPort(e.port.Handle(), id); err != nil {
		_ = job.Close()
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	ctx := acquireIoContext(id)
	ctx.CleanupTag = CleanupJob
	ctx.Job = job
	e.coord.Table().SetContext(id, ctx)
}

// routeChildExit filters job-object completion messages down to the two
// that mean the process has actually terminated; every other message
// code (new process, memory limit, active process zero, ...) is
// irrelevant to child_exit and left pending for a later message.
func (e *Engine) routeChildExit(id uint64, msg uint32, _ *windows.Overlapped) {
	if msg != uint32(jobobject.MsgExitProcess) && msg != uint32(jobobject.MsgAbnormalExitProcess) {
		return
	}
	e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
}

// finalizeChildExit reads the process's exit code and releases the job,
// which tears down its port association (spec §4.3).
func (e *Engine) finalizeChildExit(id uint64, result *optable.Result, rawErr error) {
	defer func() {
		ctxVal, _ := e.coord.Table().Context(id)
		if ctx, ok := ctxVal.(*IoContext); ok {
			ctx.release()
			releaseIoContext(ctx)
		}
	}()

	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(ChildExitState)
	if ok {
		ctxVal, _ := e.coord.Table().Context(id)
		if ctx, ok := ctxVal.(*IoContext); ok && ctx.Job != nil {
			code, known := ctx.Job.ExitCode(windows.Handle(st.ProcessHandle))
			result.Term = optable.TermStatus{Known: known, ExitCode: code}
		}
	}
	result.Err = classifyError("child_exit", rawErr)
}
