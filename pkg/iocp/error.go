package iocp

import "github.com/brickingsoft/errors"

var (
	// ErrUnexpected is the single generic unexpected-OS-error sentinel
	// surfaced when a native call fails in a way this package does not
	// translate further.
	ErrUnexpected = errors.Define("unexpected os error")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "iocp"
)
