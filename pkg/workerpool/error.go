package workerpool

import "github.com/brickingsoft/errors"

var (
	// ErrClosed is returned by Spawn once Close has begun tearing the
	// pool down.
	ErrClosed = errors.Define("pool closed")
	// ErrSingleThreaded is the fatal-panic message used by the
	// single-threaded stub (spec §4.6): a build with the pool disabled
	// must never be asked to spawn.
	ErrSingleThreaded = errors.Define("blocking pool disabled in a single-threaded build")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "workerpool"
)
