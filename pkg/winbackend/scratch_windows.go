//go:build windows

package winbackend

import (
	"syscall"
	"unsafe"

	"github.com/brickingsoft/wincp/pkg/eventsource"
	"golang.org/x/sys/windows"
)

var rawSockaddrAnySample syscall.RawSockaddrAny

// acceptScratchSize holds two sockaddr-storage records plus 16 bytes
// each, the layout AcceptEx requires (spec §3, §4.2).
const acceptScratchSize = int(unsafe.Sizeof(rawSockaddrAnySample))*2 + 32

// acceptScratch is the backend scratch for an accept operation.
type acceptScratch struct {
	buf        [acceptScratchSize]byte
	acceptSock syscall.Handle
}

// streamScratch is the backend scratch for recv/send: a single-element
// WSA buffer descriptor built from the caller's slice. recv_msg/send_msg
// use msgScratch instead.
type streamScratch struct {
	wsabuf syscall.WSABuf
	// msgName/msgControl are not set by any path in this package.
	msgName    []byte
	msgControl []byte
	// fromAddr backs WSARecvFrom's out-parameter for RecvState.FromAddr.
	fromAddr    syscall.RawSockaddrAny
	fromAddrLen int32
}

// msgScratch is the backend scratch for recv_msg/send_msg: the WSAMsg
// descriptor WSARecvMsg/WSASendMsg take directly, plus the buffers
// backing its name/control/data fields so they outlive the overlapped
// call.
type msgScratch struct {
	msg     windows.WSAMsg
	wsabuf  windows.WSABuf
	name    []byte
	control []byte
}

// eventWaiterScratch is the backend scratch for wait_event_source: the
// waiter node the event source holds by reference while this slot is
// parked. Spec §9 ("Event-source linkage") requires the node to outlive
// its presence in the list. The node leaves the list through Notify
// (which pops it) or cancel (RemoveWaiter); nothing at slot release
// checks that it has left.
type eventWaiterScratch struct {
	waiter *eventsource.Waiter
}
