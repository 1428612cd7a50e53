//go:build windows

package winbackend

import "golang.org/x/sys/windows"

// kernel32 and ReOpenFile are resolved lazily: golang.org/x/sys/windows
// wraps no ReOpenFile binding (confirmed against the vendored copy under
// cmd/vendor/golang.org/x/sys/windows), so this follows the same
// LazyDLL-for-a-missing-binding idiom fileaccess_windows.go uses for
// NtQueryInformationFile, and the one
// other_examples/jstarks-npiperelay__overlappedfile.go uses for
// GetOverlappedResult: MustLoadDLL/NewLazySystemDLL against the exporting
// DLL, then NewProc/MustFindProc the missing call by name.
var (
	kernel32       = windows.NewLazySystemDLL("kernel32.dll")
	procReOpenFile = kernel32.NewProc("ReOpenFile")
)

const reopenShareFlags = windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE | windows.FILE_SHARE_DELETE

// reopenOverlapped duplicates handle into a second handle opened with
// FILE_FLAG_OVERLAPPED (spec §4.2: "re-open the handle with overlapped
// mode ... assign ownership of the duplicate to the IoContext"), so a
// read/write op never depends on the caller's original handle having been
// opened overlapped itself. desiredAccess of 0 asks ReOpenFile to infer the
// access rights from the original handle, its own documented behavior.
//
// ReOpenFile fails for handle kinds it was never meant to duplicate this
// way (pipes, consoles, sockets passed in as a raw handle); the caller
// falls back to associating the original handle directly in that case.
func reopenOverlapped(handle windows.Handle, desiredAccess uint32) (windows.Handle, error) {
	r1, _, callErr := procReOpenFile.Call(
		uintptr(handle),
		uintptr(desiredAccess),
		uintptr(reopenShareFlags),
		uintptr(windows.FILE_FLAG_OVERLAPPED),
	)
	dup := windows.Handle(r1)
	if dup == windows.InvalidHandle {
		return 0, callErr
	}
	return dup, nil
}
