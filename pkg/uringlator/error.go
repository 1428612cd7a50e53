package uringlator

import "github.com/brickingsoft/errors"

// ErrShutdown is returned by Queue once Shutdown has begun quiescing the
// coordinator.
var ErrShutdown = errors.Define("coordinator shutting down")

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "uringlator"
)
