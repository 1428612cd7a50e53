//go:build windows

// Package jobobject wraps the Windows job-object APIs the child_exit
// operation uses (spec §4.2, §4.3): a job is created per operation,
// the target process is assigned to it, and the job is associated with
// the driver's completion port so process-exit messages arrive as
// ordinary port completions instead of requiring a dedicated wait
// thread.
package jobobject

import (
	"os"
	"unsafe"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/key"
	"golang.org/x/sys/windows"
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "jobobject"
)

// Message codes carried by JOBOBJECT_ASSOCIATE_COMPLETION_PORT
// completions that matter to child_exit; every other message code is
// ignored (spec §4.2).
const (
	MsgExitProcess         = windows.JOB_OBJECT_MSG_EXIT_PROCESS
	MsgAbnormalExitProcess = windows.JOB_OBJECT_MSG_ABNORMAL_EXIT_PROCESS
)

// Job is the owned resource the IoContext's cleanup tag releases exactly
// once (success, cancel, or error) per spec §3's IoContext invariant.
type Job struct {
	handle windows.Handle
}

// Create allocates an unnamed job object.
func Create() (*Job, error) {
	h, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return nil, errors.New(
			"create job object failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("create_job_object", err)),
		)
	}
	return &Job{handle: h}, nil
}

// Handle returns the native job handle.
func (j *Job) Handle() windows.Handle {
	return j.handle
}

// AssignProcess puts proc under this job, so the job observes its exit.
func (j *Job) AssignProcess(proc windows.Handle) error {
	if err := windows.AssignProcessToJobObject(j.handle, proc); err != nil {
		return errors.New(
			"assign process to job failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("assign_process_to_job_object", err)),
		)
	}
	return nil
}

// AssociateWithPort registers the job with port under completion key
// type=child_exit, id=slotID, so its exit messages land in the driver's
// normal dequeue loop.
func (j *Job) AssociateWithPort(port windows.Handle, slotID uint64) error {
	info := windows.JOBOBJECT_ASSOCIATE_COMPLETION_PORT{
		CompletionKey:  uintptr(key.Encode(key.ChildExit, slotID)),
		CompletionPort: port,
	}
	_, err := windows.SetInformationJobObject(
		j.handle,
		windows.JobObjectAssociateCompletionPortInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		return errors.New(
			"associate job with completion port failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("set_information_job_object", err)),
		)
	}
	return nil
}

// ExitCode reads proc's exit code. known is false if the kernel call
// fails, matching spec §4.2's "unknown if the kernel call fails".
func (j *Job) ExitCode(proc windows.Handle) (code uint32, known bool) {
	var ec uint32
	if err := windows.GetExitCodeProcess(proc, &ec); err != nil {
		return 0, false
	}
	return ec, true
}

// Close releases the job handle. Closing the job terminates its
// completion-port association, which is what cancel relies on (spec
// §4.3's child_exit bullet: "release the job (closing the job
// terminates the association)").
func (j *Job) Close() error {
	if j.handle == 0 || j.handle == windows.InvalidHandle {
		return nil
	}
	err := windows.CloseHandle(j.handle)
	j.handle = 0
	if err != nil {
		return errors.New(
			"close job handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("close_handle", err)),
		)
	}
	return nil
}
