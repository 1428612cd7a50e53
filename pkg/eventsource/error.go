package eventsource

import "github.com/brickingsoft/errors"

// ErrNotFound is returned by RemoveWaiter when the node is not (or is no
// longer) registered — the signal that cancel lost a race against a
// concurrent Notify (spec §4.3, §5).
var ErrNotFound = errors.Define("waiter not found")

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "eventsource"
)
