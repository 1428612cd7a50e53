//go:build windows

package winbackend

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ntdll and NtQueryInformationFile are resolved lazily, the same LazyDLL
// pattern the pack's other completion-port drivers use for functions
// golang.org/x/sys/windows doesn't wrap directly.
var (
	ntdll                     = windows.NewLazySystemDLL("ntdll.dll")
	procNtQueryInformationFile = ntdll.NewProc("NtQueryInformationFile")
)

// fileAccessInformation mirrors ntdll's FILE_ACCESS_INFORMATION, the
// payload FileAccessInformation (class 8) returns.
type fileAccessInformation struct {
	AccessFlags uint32
}

const fileAccessInformationClass = 8

// ioStatusBlock mirrors IO_STATUS_BLOCK; only Status/Information are
// read, the union's pointer-sized first field covers both layouts.
type ioStatusBlock struct {
	Status      uintptr
	Information uintptr
}

// queryFileAccessRights reads the access mask the handle was opened
// with, so startReadWrite can reject a read against a write-only handle
// (or vice versa) with KindOrientation instead of letting the kernel's
// own ERROR_ACCESS_DENIED surface as an opaque KindUnexpected (spec §7).
func queryFileAccessRights(handle windows.Handle) (uint32, error) {
	var info fileAccessInformation
	var iosb ioStatusBlock
	r1, _, _ := procNtQueryInformationFile.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&iosb)),
		uintptr(unsafe.Pointer(&info)),
		uintptr(unsafe.Sizeof(info)),
		fileAccessInformationClass,
	)
	if r1 != 0 {
		return 0, os.NewSyscallError("nt_query_information_file", ntStatusError(r1))
	}
	return info.AccessFlags, nil
}

type ntStatusError uintptr

func (e ntStatusError) Error() string {
	return "ntstatus 0x" + uintHex(uintptr(e))
}

func uintHex(v uintptr) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

const (
	fileReadData  = 0x0001
	fileWriteData = 0x0002
)

// checkDirection verifies handle was opened for the direction a read or
// write needs. A query failure is not itself fatal to the operation —
// some handle kinds (pipes, consoles) don't answer this query — so it
// only rejects on an explicit, successfully-read missing bit.
func checkDirection(handle windows.Handle, wantRead bool) error {
	access, err := queryFileAccessRights(handle)
	if err != nil {
		return nil
	}
	want := uint32(fileWriteData)
	if wantRead {
		want = fileReadData
	}
	if access&want == 0 {
		return ErrNotOpenForDirection
	}
	return nil
}
