//go:build windows

package winbackend

import (
	"net"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/wincp/pkg/optable"
	"golang.org/x/sys/windows"
)

// addrToRawSockaddrAny packs addr's IP/port into a raw sockaddr in the
// layout WSARecvMsg/WSASendMsg's WSAMsg.Name expects. Built by hand
// rather than through syscall.Sockaddr, whose sockaddr() conversion
// method is unexported outside package syscall.
func addrToRawSockaddrAny(addr net.Addr) (syscall.RawSockaddrAny, int32, error) {
	var ip net.IP
	var port int
	switch a := addr.(type) {
	case *net.UDPAddr:
		ip, port = a.IP, a.Port
	case *net.TCPAddr:
		ip, port = a.IP, a.Port
	default:
		return syscall.RawSockaddrAny{}, 0, errUnsupportedAddr
	}

	var raw syscall.RawSockaddrAny
	if v4 := ip.To4(); v4 != nil {
		in4 := (*syscall.RawSockaddrInet4)(unsafe.Pointer(&raw))
		in4.Family = syscall.AF_INET
		p := (*[2]byte)(unsafe.Pointer(&in4.Port))
		p[0], p[1] = byte(port>>8), byte(port)
		copy(in4.Addr[:], v4)
		return raw, int32(unsafe.Sizeof(*in4)), nil
	}
	in6 := (*syscall.RawSockaddrInet6)(unsafe.Pointer(&raw))
	in6.Family = syscall.AF_INET6
	p := (*[2]byte)(unsafe.Pointer(&in6.Port))
	p[0], p[1] = byte(port>>8), byte(port)
	copy(in6.Addr[:], ip.To16())
	return raw, int32(unsafe.Sizeof(*in6)), nil
}

// startStreamMsg submits a recv_msg or send_msg: the only path in this
// backend carrying out-of-band control data alongside the payload
// (spec §4.2's recv_msg/send_msg bullet).
func (e *Engine) startStreamMsg(id uint64, tag optable.OpTag) {
	if tag == optable.RecvMsg {
		e.startRecvMsg(id)
	} else {
		e.startSendMsg(id)
	}
}

func (e *Engine) startRecvMsg(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(RecvMsgState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	if err := e.port.AssociateSocket(windows.Handle(st.Handle)); err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	scratch := &msgScratch{name: make([]byte, unsafe.Sizeof(syscall.RawSockaddrAny{}))}
	if len(st.Buf) > 0 {
		scratch.wsabuf = windows.WSABuf{Len: uint32(len(st.Buf)), Buf: &st.Buf[0]}
	}
	scratch.msg.Name = (*syscall.RawSockaddrAny)(unsafe.Pointer(&scratch.name[0]))
	scratch.msg.Namelen = int32(len(scratch.name))
	scratch.msg.Buffers = &scratch.wsabuf
	scratch.msg.BufferCount = 1
	if len(st.OOB) > 0 {
		scratch.control = st.OOB
		scratch.msg.Control = windows.WSABuf{Len: uint32(len(st.OOB)), Buf: &st.OOB[0]}
	}
	e.coord.Table().SetScratch(id, scratch)

	ctx := acquireIoContext(id)
	e.coord.Table().SetContext(id, ctx)

	var n uint32
	wsaOverlapped := (*windows.Overlapped)(unsafe.Pointer(&ctx.Overlapped))
	opErr := windows.WSARecvMsg(windows.Handle(st.Handle), &scratch.msg, &n, wsaOverlapped, nil)

	switch {
	case opErr == nil:
		ctx.Transferred = n
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
	case errors.Is(windows.ERROR_IO_PENDING, opErr):
	default:
		e.coord.Finish(driver{e}, id, opErr, optable.ThreadUnsafe)
	}
}

func (e *Engine) startSendMsg(id uint64) {
	stateVal, _ := e.coord.Table().State(id)
	st, ok := stateVal.(SendMsgState)
	if !ok {
		e.coord.Finish(driver{e}, id, unexpectedOSError("start", errUnknownTag), optable.ThreadUnsafe)
		return
	}
	if err := e.port.AssociateSocket(windows.Handle(st.Handle)); err != nil {
		e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
		return
	}

	scratch := &msgScratch{}
	if len(st.Buf) > 0 {
		scratch.wsabuf = windows.WSABuf{Len: uint32(len(st.Buf)), Buf: &st.Buf[0]}
	}
	scratch.msg.Buffers = &scratch.wsabuf
	scratch.msg.BufferCount = 1
	if len(st.OOB) > 0 {
		scratch.control = st.OOB
		scratch.msg.Control = windows.WSABuf{Len: uint32(len(st.OOB)), Buf: &st.OOB[0]}
	}
	if st.Addr != nil {
		raw, rawLen, err := addrToRawSockaddrAny(st.Addr)
		if err != nil {
			e.coord.Finish(driver{e}, id, err, optable.ThreadUnsafe)
			return
		}
		scratch.name = (*[unsafe.Sizeof(syscall.RawSockaddrAny{})]byte)(unsafe.Pointer(&raw))[:]
		scratch.msg.Name = (*syscall.RawSockaddrAny)(unsafe.Pointer(&scratch.name[0]))
		scratch.msg.Namelen = rawLen
	}
	e.coord.Table().SetScratch(id, scratch)

	ctx := acquireIoContext(id)
	e.coord.Table().SetContext(id, ctx)

	var n uint32
	wsaOverlapped := (*windows.Overlapped)(unsafe.Pointer(&ctx.Overlapped))
	opErr := windows.WSASendMsg(windows.Handle(st.Handle), &scratch.msg, scratch.msg.Flags, &n, wsaOverlapped, nil)

	switch {
	case opErr == nil:
		ctx.Transferred = n
		e.coord.Finish(driver{e}, id, nil, optable.ThreadUnsafe)
	case errors.Is(windows.ERROR_IO_PENDING, opErr):
	default:
		e.coord.Finish(driver{e}, id, opErr, optable.ThreadUnsafe)
	}
}

// finalizeStreamMsg writes back the transferred byte count and, for
// recv_msg, the sender address recovered from the WSAMsg's Name field.
func (e *Engine) finalizeStreamMsg(id uint64, result *optable.Result, rawErr error) {
	defer func() {
		ctxVal, _ := e.coord.Table().Context(id)
		if ctx, ok := ctxVal.(*IoContext); ok {
			result.N = int(ctx.Transferred)
			releaseIoContext(ctx)
		}
	}()

	if scratchVal, ok := e.coord.Table().Scratch(id); ok {
		if scratch, ok := scratchVal.(*msgScratch); ok && rawErr == nil && scratch.msg.Name != nil {
			if sa, saErr := scratch.msg.Name.Sockaddr(); saErr == nil {
				result.Addr = sockaddrToAddr(sa)
			}
		}
	}
	result.Err = classifyError("stream_msg", rawErr)
}
