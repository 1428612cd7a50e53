//go:build windows && !wincp_singlethreaded

package winbackend

// runOnPool hands fn to the worker pool. Builds tagged wincp_singlethreaded
// never link this file; see dispatch_stub_windows.go for that build's
// inline-execution substitute.
func (e *Engine) runOnPool(fn func()) error {
	return e.pool.Spawn(fn)
}
