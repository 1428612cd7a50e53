package optable

import "github.com/brickingsoft/errors"

// ErrGone is returned by the table's internal lookup when the id names a
// slot that has already been released — the race spec §4.5 step 4 calls
// "raced with cancel; drop the completion". The exported accessors report
// it as a false ok/bool result.
var ErrGone = errors.Define("slot gone")

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "optable"
)
