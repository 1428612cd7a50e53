//go:build windows && wincp_singlethreaded

package winbackend

// runOnPool runs fn inline on the caller's thread. A wincp_singlethreaded
// build's Spawner is workerpool.NewStub, whose Spawn always panics
// (pkg/workerpool/stub.go) — nothing in this package may call e.pool.Spawn
// directly; every would-be dispatch goes through this function instead, per
// spec §4.2/§4.6: single-threaded builds run blocking operations inline on
// the caller's thread rather than on a worker pool that does not exist.
func (e *Engine) runOnPool(fn func()) error {
	fn()
	return nil
}
