package timerqueue

import "github.com/brickingsoft/errors"

// ErrNotFound is returned by Disarm when the timer already fired (or was
// never armed), matching the "disarm-race" case the Windows driver relies
// on for link_timeout/timeout cancellation (§4.3).
var ErrNotFound = errors.Define("timer not found")

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "timerqueue"
)
