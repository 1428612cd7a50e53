//go:build windows

// Package iocp owns the native completion-port handle: association of
// kernel handles and sockets, posting of custom wakeups, and the
// num_threads shutdown-message teardown sequence.
package iocp

import (
	"os"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/key"
	"golang.org/x/sys/windows"
)

// Port wraps a native completion-port handle plus the number of worker
// threads expected to drain it — used only to generate that many shutdown
// messages on Destroy.
type Port struct {
	handle     windows.Handle
	numThreads uint32
}

// Create builds a port sized for numThreads concurrent dequeuers. A
// numThreads of 0 lets the kernel choose (one dequeuer per CPU).
func Create(numThreads uint32) (*Port, error) {
	handle, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, numThreads)
	if err != nil {
		return nil, errors.New(
			"create completion port failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("create_io_completion_port", err)),
		)
	}
	return &Port{handle: handle, numThreads: numThreads}, nil
}

// Handle returns the native port handle, for association calls made by
// other packages (e.g. job objects) that need the raw value.
func (p *Port) Handle() windows.Handle {
	return p.handle
}

// AssociateHandle enables skip-port-on-success on handle (so a
// synchronously completed overlapped I/O is reported inline rather than
// enqueued), then associates handle with the port under key type Overlapped.
// Re-association of an already-associated handle is treated as success.
func (p *Port) AssociateHandle(handle windows.Handle) error {
	if err := windows.SetFileCompletionNotificationModes(handle, windows.FILE_SKIP_COMPLETION_PORT_ON_SUCCESS); err != nil {
		// already associated / already set is not fatal; only a hard
		// failure to associate below is.
		_ = err
	}
	if _, err := windows.CreateIoCompletionPort(handle, p.handle, uintptr(key.Encode(key.Overlapped, 0)), 0); err != nil {
		if errors.Is(windows.ERROR_INVALID_PARAMETER, err) {
			// already associated with this port: acceptable.
			return nil
		}
		return errors.New(
			"associate handle failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("create_io_completion_port", err)),
		)
	}
	return nil
}

// AssociateSocket is AssociateHandle for a socket handle.
func (p *Port) AssociateSocket(sock windows.Handle) error {
	return p.AssociateHandle(sock)
}

// Post enqueues a zero-byte completion carrying k and an optional
// overlapped pointer, used for custom wakeups (nop, shutdown, event
// source, child exit, job messages).
func (p *Port) Post(k key.Key, overlapped *windows.Overlapped) error {
	if err := windows.PostQueuedCompletionStatus(p.handle, 0, uintptr(k), overlapped); err != nil {
		return errors.New(
			"post completion failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("post_queued_completion_status", err)),
		)
	}
	return nil
}

// Dequeue blocks (up to timeoutMillis, or windows.INFINITE) for one
// completion and returns the transferred byte count, the key, the
// overlapped pointer (nil for key-only posts), and any error. A timeout
// is reported via the standard WAIT_TIMEOUT syscall error, not as a
// distinguished return value, matching GetQueuedCompletionStatus.
func (p *Port) Dequeue(timeoutMillis uint32) (qty uint32, k key.Key, overlapped *windows.Overlapped, err error) {
	var rawKey uintptr
	getErr := windows.GetQueuedCompletionStatus(p.handle, &qty, &rawKey, &overlapped, timeoutMillis)
	k = key.Key(rawKey)
	if getErr != nil {
		err = getErr
	}
	return
}

// Destroy posts exactly numThreads shutdown messages — required because
// some kernels (notably WINE) do not wake blocked dequeuers on port
// close — then closes the port.
func (p *Port) Destroy() error {
	for i := uint32(0); i < p.numThreads; i++ {
		_ = p.Post(key.Encode(key.Shutdown, 0), nil)
	}
	if err := windows.CloseHandle(p.handle); err != nil {
		return errors.New(
			"destroy completion port failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithWrap(os.NewSyscallError("close_handle", err)),
		)
	}
	return nil
}
