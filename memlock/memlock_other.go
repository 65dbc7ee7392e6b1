//go:build !unix

package memlock

import "errors"

var errUnsupported = errors.New("memory locking not supported on this platform")

func lock(b []byte) error {
	return &LockError{Size: len(b), Err: errUnsupported}
}

func unlock(b []byte) error { return nil }
