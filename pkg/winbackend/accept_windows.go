//go:build windows

package winbackend

import (
	"net"
	"os"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/optable"
	"golang.org/x/sys/windows"
)

// startAccept submits an AcceptEx call (spec §4.2's accept bullet). The
// pre-created socket and its dedicated scratch buffer live for the
// duration of the call; GetAcceptExSockaddrs and SO_UPDATE_ACCEPT_CONTEXT
// both run at finalize time, once the kernel has filled scratch.buf in.
func (e *Engine) startAccept(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(AcceptState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}

	if err := e.port.AssociateHandle(windows.Handle(st.ListenHandle)); err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	sock, sockErr := windows.WSASocket(int32(st.Family), int32(st.SockType), int32(st.Protocol), nil, 0, windows.WSA_FLAG_OVERLAPPED)
	if sockErr != nil {
		e.coord.Finish(driver{e}, id, os.NewSyscallError("wsasocket", sockErr), optable.ThreadUnsafe)
		return
	}

	scratch := &acceptScratch{acceptSock: syscall.Handle(sock)}
	e.coord.Table().SetScratch(id, scratch)

	ctx := acquireIoContext(id)
	e.coord.Table().SetContext(id, ctx)

	sockaddrSize := uint32(unsafe.Sizeof(rawSockaddrAnySample)) + 16
	var n uint32
	acceptErr := syscall.AcceptEx(
		syscall.Handle(st.ListenHandle), scratch.acceptSock,
		&scratch.buf[0], 0,
		sockaddrSize, sockaddrSize,
		&n, &ctx.Overlapped,
	)
	if acceptErr == nil {
		// FILE_SKIP_COMPLETION_PORT_ON_SUCCESS means a synchronous success
		// never reaches the port; finalize inline.
		ctx.Transferred = n
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
		return
	}
	if !errors.Is(syscall.ERROR_IO_PENDING, acceptErr) {
		_ = windows.CloseHandle(sock)
		e.coord.Table().SetScratch(id, nil)
		releaseIoContext(ctx)
		e.coord.Table().SetContext(id, nil)
		e.coord.Finish(driver{e}, id, os.NewSyscallError("acceptex", acceptErr), optable.ThreadUnsafe)
	}
}

// finalizeAccept applies SO_UPDATE_ACCEPT_CONTEXT so getsockname/getpeername
// and further socket options work on the accepted socket, extracts the
// peer address GetAcceptExSockaddrs parsed out of scratch.buf, and
// associates the new socket with this engine's port for its own future
// operations.
func (e *Engine) finalizeAccept(id uint64, result *optable.Result, rawErr error) {
	defer func() {
		ctxVal, _ := e.coord.Table().Context(id)
		if ctx, ok := ctxVal.(*IoContext); ok {
			releaseIoContext(ctx)
		}
	}()

	scratchVal, _ := e.coord.Table().Scratch(id)
	scratch, ok := scratchVal.(*acceptScratch)
	if !ok {
		result.Err = classifyError("accept", rawErr)
		return
	}
	sock := scratch.acceptSock

	if rawErr != nil {
		_ = syscall.Closesocket(sock)
		result.Err = classifyError("accept", rawErr)
		return
	}

	stateVal, _ := e.coord.Table().State(id)
	st, _ := stateVal.(AcceptState)

	listenHandle := syscall.Handle(st.ListenHandle)
	if setErr := syscall.Setsockopt(
		sock, windows.SOL_SOCKET, windows.SO_UPDATE_ACCEPT_CONTEXT,
		(*byte)(unsafe.Pointer(&listenHandle)), int32(unsafe.Sizeof(listenHandle)),
	); setErr != nil {
		_ = syscall.Closesocket(sock)
		result.Err = classifyError("accept", setErr)
		return
	}

	sockaddrSize := uint32(unsafe.Sizeof(rawSockaddrAnySample)) + 16
	var localSockaddr, remoteSockaddr *syscall.RawSockaddrAny
	var localLen, remoteLen int32
	if parseErr := syscall.GetAcceptExSockaddrs(
		&scratch.buf[0], 0, sockaddrSize, sockaddrSize,
		&localSockaddr, &localLen, &remoteSockaddr, &remoteLen,
	); parseErr == nil {
		if remoteSockaddr != nil {
			if sa, saErr := remoteSockaddr.Sockaddr(); saErr == nil {
				result.Addr = sockaddrToAddr(sa)
				result.AddrLen = int(remoteLen)
			}
		}
	} else if psa, psaErr := syscall.Getpeername(sock); psaErr == nil {
		// GetAcceptExSockaddrs failing on a socket AcceptEx itself just
		// completed would be unexpected; fall back to the live socket's
		// peer rather than leave result.Addr empty.
		result.Addr = sockaddrToAddr(psa)
	}

	if err := e.port.AssociateSocket(windows.Handle(sock)); err != nil {
		_ = syscall.Closesocket(sock)
		result.Err = classifyError("accept", err)
		return
	}

	result.Fd = RawHandle(sock)
	result.Err = nil
}

func sockaddrToAddr(sa syscall.Sockaddr) net.Addr {
	switch a := sa.(type) {
	case *syscall.SockaddrInet4:
		return &net.TCPAddr{IP: append([]byte(nil), a.Addr[:]...), Port: a.Port}
	case *syscall.SockaddrInet6:
		return &net.TCPAddr{IP: append([]byte(nil), a.Addr[:]...), Port: a.Port}
	default:
		return nil
	}
}
