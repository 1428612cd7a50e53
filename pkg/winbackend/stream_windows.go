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

// addrToSockaddr converts the subset of net.Addr this backend's SendTo
// path accepts (spec SUPPLEMENTED FEATURES: packet addressing) into the
// syscall.Sockaddr WSASendto needs.
func addrToSockaddr(addr net.Addr) (syscall.Sockaddr, error) {
	var ip net.IP
	var port int
	switch a := addr.(type) {
	case *net.UDPAddr:
		ip, port = a.IP, a.Port
	case *net.TCPAddr:
		ip, port = a.IP, a.Port
	default:
		return nil, errUnsupportedAddr
	}
	if v4 := ip.To4(); v4 != nil {
		sa := &syscall.SockaddrInet4{Port: port}
		copy(sa.Addr[:], v4)
		return sa, nil
	}
	sa := &syscall.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, nil
}

// startStream submits a recv or send (spec §4.2's recv/send bullet),
// optionally carrying packet addressing (spec SUPPLEMENTED FEATURES).
func (e *Engine) startStream(id uint64, tag optable.OpTag) {
	switch tag {
	case optable.Recv:
		e.startRecv(id)
	case optable.Send:
		e.startSend(id)
	}
}

func (e *Engine) startRecv(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(RecvState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	if err := e.port.AssociateSocket(windows.Handle(st.Handle)); err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	scratch := &streamScratch{}
	if len(st.Buf) > 0 {
		scratch.wsabuf = syscall.WSABuf{Len: uint32(len(st.Buf)), Buf: &st.Buf[0]}
	}
	e.coord.Table().SetScratch(id, scratch)

	ctx := acquireIoContext(id)
	e.coord.Table().SetContext(id, ctx)

	var n uint32
	var flags uint32
	var opErr error
	if st.FromAddr {
		scratch.fromAddrLen = int32(unsafe.Sizeof(scratch.fromAddr))
		opErr = syscall.WSARecvFrom(
			syscall.Handle(st.Handle), &scratch.wsabuf, 1, &n, &flags,
			&scratch.fromAddr, &scratch.fromAddrLen, &ctx.Overlapped, nil,
		)
	} else {
		opErr = syscall.WSARecv(
			syscall.Handle(st.Handle), &scratch.wsabuf, 1, &n, &flags,
			&ctx.Overlapped, nil,
		)
	}

	switch {
	case opErr == nil:
		ctx.Transferred = n
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
	case errors.Is(syscall.ERROR_IO_PENDING, opErr):
	default:
		e.coord.Finish(driver{e}, id, opErr, optable.ThreadUnsafe)
	}
}

func (e *Engine) startSend(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(SendState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	if err := e.port.AssociateSocket(windows.Handle(st.Handle)); err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	scratch := &streamScratch{}
	if len(st.Buf) > 0 {
		scratch.wsabuf = syscall.WSABuf{Len: uint32(len(st.Buf)), Buf: &st.Buf[0]}
	}
	e.coord.Table().SetScratch(id, scratch)

	ctx := acquireIoContext(id)
	e.coord.Table().SetContext(id, ctx)

	var n uint32
	var opErr error
	if st.ToAddr != nil {
		sa, saErr := addrToSockaddr(st.ToAddr)
		if saErr != nil {
			releaseIoContext(ctx)
			e.coord.Table().SetContext(id, nil)
			e.coord.Finish(driver{e}, id, saErr, optable.ThreadUnsafe)
			return
		}
		opErr = syscall.WSASendto(syscall.Handle(st.Handle), &scratch.wsabuf, 1, &n, 0, sa, &ctx.Overlapped, nil)
	} else {
		opErr = syscall.WSASend(syscall.Handle(st.Handle), &scratch.wsabuf, 1, &n, 0, &ctx.Overlapped, nil)
	}

	switch {
	case opErr == nil:
		ctx.Transferred = n
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
	case errors.Is(syscall.ERROR_IO_PENDING, opErr):
	default:
		e.coord.Finish(driver{e}, id, opErr, optable.ThreadUnsafe)
	}
}

// finalizeStream writes the transferred byte count and (for a
// FromAddr recv) the peer address back into the Result column.
func (e *Engine) finalizeStream(id uint64, result *optable.Result, rawErr error) {
	defer func() {
		ctxVal, _ := e.coord.Table().Context(id)
		if ctx, ok := ctxVal.(*IoContext); ok {
			result.N = int(ctx.Transferred)
			releaseIoContext(ctx)
		}
	}()

	if scratchVal, ok := e.coord.Table().Scratch(id); ok {
		if scratch, ok := scratchVal.(*streamScratch); ok && scratch.fromAddrLen > 0 && rawErr == nil {
			if sa, saErr := scratch.fromAddr.Sockaddr(); saErr == nil {
				result.Addr = sockaddrToAddr(sa)
			}
		}
	}
	result.Err = classifyError("stream", rawErr)
}

var errUnsupportedAddr = errors.Define("unsupported address type for packet send")
