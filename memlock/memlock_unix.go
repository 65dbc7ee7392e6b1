//go:build unix

package memlock

import "golang.org/x/sys/unix"

func lock(b []byte) error {
	if err := unix.Mlock(b); err != nil {
		return &LockError{Size: len(b), Err: err}
	}
	return nil
}

func unlock(b []byte) error {
	return unix.Munlock(b)
}
