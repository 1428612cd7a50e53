package winbackend

import "github.com/brickingsoft/errors"

// Kind is the error taxonomy spec §7 describes: kinds, not names. Every
// terminal error this backend surfaces carries one of these.
type Kind uint8

const (
	KindSuccess Kind = iota
	// KindOrientation: handle not open for the requested direction.
	KindOrientation
	// KindTransport: connection reset, unreachable network, message too
	// big, shutdown, socket not connected, access denied, address not
	// available, not a socket, address family unsupported, insufficient
	// resources/buffers.
	KindTransport
	// KindCanceled: the caller-provided reason on a successful cancel.
	KindCanceled
	// KindNotSupported: poll. A recv_msg whose extension function cannot
	// be resolved fails through classifyError as KindUnexpected.
	KindNotSupported
	// KindUnexpected: untranslated OS error, the single generic
	// unexpected-OS-error sentinel.
	KindUnexpected
)

var (
	ErrNotOpenForDirection = errors.Define("handle not open for requested direction")
	ErrNotSupported        = errors.Define("operation not supported on this backend")
	ErrUnexpected          = errors.Define("unexpected os error")
	errUnknownTag          = errors.Define("unknown operation tag")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "winbackend"
)

const (
	errMetaOpKey       = "op"
	errMetaOpRead      = "read"
	errMetaOpWrite     = "write"
	errMetaOpAccept    = "accept"
	errMetaOpRecv      = "recv"
	errMetaOpSend      = "send"
	errMetaOpRecvMsg   = "recv_msg"
	errMetaOpSendMsg   = "send_msg"
	errMetaOpTimeout   = "timeout"
	errMetaOpChildExit = "child_exit"
	errMetaOpWaitEvent = "wait_event_source"
	errMetaOpPoll      = "poll"
	errMetaOpBlocking  = "blocking"
)

// OpError pairs a Kind with the underlying wrapped cause, so callers can
// branch on taxonomy without string-matching.
type OpError struct {
	Kind Kind
	Op   string
	err  error
}

func (e *OpError) Error() string {
	if e.err != nil {
		return e.op() + ": " + e.err.Error()
	}
	return e.op()
}

func (e *OpError) op() string {
	if e.Op == "" {
		return "winbackend"
	}
	return "winbackend: " + e.Op
}

func (e *OpError) Unwrap() error { return e.err }

func newOpError(kind Kind, op string, cause error) *OpError {
	return &OpError{Kind: kind, Op: op, err: cause}
}

// CancellationError is the caller-supplied reason delivered on a
// successful cancel (spec §4.3, §7 "Cancellation").
type CancellationError struct {
	Reason error
}

func (e *CancellationError) Error() string {
	if e.Reason != nil {
		return "canceled: " + e.Reason.Error()
	}
	return "canceled"
}

func (e *CancellationError) Unwrap() error { return e.Reason }
