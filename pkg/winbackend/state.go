package winbackend

import (
	"net"
	"time"
)

// RawHandle is a platform-width handle value, kept as a plain integer so
// the op-state types in this file need no Windows build tag; the
// windows-only files in this package cast to/from windows.Handle at the
// syscall boundary.
type RawHandle uintptr

// State is the opaque, typed per-op payload the coordinator's Op.State
// carries (spec §3 "typed state payload"). The cross-platform front end
// that builds these is out of scope (§1); this package defines one
// concrete struct per operation tag for its own internal use.
type State interface {
	isState()
}

type ReadWriteState struct {
	Handle RawHandle
	Buf    []byte
	// Offset < 0 is the "query the current position" sentinel (§4.2).
	Offset int64
}

func (ReadWriteState) isState() {}

type VectorState struct {
	Handle RawHandle
	Iov    [][]byte
	Offset int64
}

func (VectorState) isState() {}

type AcceptState struct {
	ListenHandle RawHandle
	Family       int
	SockType     int
	Protocol     int
}

func (AcceptState) isState() {}

type RecvState struct {
	Handle RawHandle
	Buf    []byte
	// FromAddr requests packet addressing (RecvFrom semantics).
	FromAddr bool
}

func (RecvState) isState() {}

type SendState struct {
	Handle RawHandle
	Buf    []byte
	// ToAddr, when non-nil, requests packet addressing (SendTo semantics).
	ToAddr net.Addr
}

func (SendState) isState() {}

type RecvMsgState struct {
	Handle RawHandle
	Buf    []byte
	OOB    []byte
}

func (RecvMsgState) isState() {}

type SendMsgState struct {
	Handle RawHandle
	Buf    []byte
	OOB    []byte
	Addr   net.Addr
}

func (SendMsgState) isState() {}

type TimeoutState struct {
	Duration time.Duration
}

func (TimeoutState) isState() {}

// LinkTimeoutState carries the id of the operation it is linked to, so
// startLinkTimeout's timer callback can cancel that op when the timeout
// fires (spec §4.2, §5).
type LinkTimeoutState struct {
	Duration time.Duration
	LinkedID uint64
}

func (LinkTimeoutState) isState() {}

type ChildExitState struct {
	ProcessHandle RawHandle
}

func (ChildExitState) isState() {}

type WaitEventSourceState struct {
	Source *EventSource
}

func (WaitEventSourceState) isState() {}

type NotifyEventSourceState struct {
	Source *EventSource
}

func (NotifyEventSourceState) isState() {}

type CloseEventSourceState struct {
	Source *EventSource
}

func (CloseEventSourceState) isState() {}

type PollState struct{}

func (PollState) isState() {}

// BlockingState wraps any operation this backend cannot drive through
// the completion port (TTY translation, splice-equivalents, path-level
// fs ops, socket-create, etc., per spec §4.2's closing bullet). Call
// retries on a would-block condition and otherwise reports the first
// terminal result.
type BlockingState struct {
	Call func() (n int, err error)
}

func (BlockingState) isState() {}
