//go:build windows

package winbackend

// handleOf extracts the handle an operation's overlapped call targets,
// for cancellation (spec §4.3) and the few finalize paths that need it
// again after the call returns.
func handleOf(state interface{}) (RawHandle, bool) {
	switch s := state.(type) {
	case ReadWriteState:
		return s.Handle, true
	case VectorState:
		return s.Handle, true
	case AcceptState:
		return s.ListenHandle, true
	case RecvState:
		return s.Handle, true
	case SendState:
		return s.Handle, true
	case RecvMsgState:
		return s.Handle, true
	case SendMsgState:
		return s.Handle, true
	default:
		return 0, false
	}
}
