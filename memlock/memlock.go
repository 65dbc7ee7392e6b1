// Package memlock manages memory regions that hold signing-key material.
//
// A Buffer is an exclusively-owned byte region that is wiped on every exit
// path of its owner's lifetime. Where the platform supports it the region is
// additionally locked with mlock(2) so key bytes are never written to swap.
// Lock failures (for example when RLIMIT_MEMLOCK is exhausted) are not fatal:
// the buffer still works, Locked reports false, and the failure is counted so
// callers can surface the degraded mode.
package memlock

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
)

var (
	// ErrBufferFreed is returned when a freed buffer is used.
	ErrBufferFreed = errors.New("memlock: buffer already freed")
	// ErrInvalidSize is returned for non-positive allocation sizes.
	ErrInvalidSize = errors.New("memlock: invalid buffer size")
)

// LockError records a failed attempt to lock a region into memory. It is
// counted through LockFailures, never returned from New: lock failure is a
// degraded mode, not an allocation failure.
type LockError struct {
	Size int
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("memlock: locking %d bytes failed: %v", e.Size, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

var lockFailures atomic.Uint64
var liveBuffers atomic.Int64

// LockFailures returns the number of buffers that could not be locked into
// memory since process start.
func LockFailures() uint64 { return lockFailures.Load() }

// LiveBuffers returns the number of currently allocated buffers.
func LiveBuffers() int64 { return liveBuffers.Load() }

// Buffer is an exclusively-owned region for secret bytes. It must be released
// with Free; a finalizer wipes the contents if the owner leaks it.
type Buffer struct {
	data   []byte
	locked bool
	freed  bool
}

// New allocates a buffer of n zero bytes, locked into memory when supported.
func New(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	b := &Buffer{data: make([]byte, n)}
	if err := lock(b.data); err != nil {
		lockFailures.Add(1)
	} else {
		b.locked = true
	}
	liveBuffers.Add(1)
	runtime.SetFinalizer(b, (*Buffer).finalize)
	return b, nil
}

// FromBytes allocates a locked buffer initialized with a copy of src. The
// caller remains responsible for wiping src.
func FromBytes(src []byte) (*Buffer, error) {
	b, err := New(len(src))
	if err != nil {
		return nil, err
	}
	copy(b.data, src)
	return b, nil
}

// Bytes exposes the underlying region. The slice aliases the locked memory
// and must not outlive the buffer.
func (b *Buffer) Bytes() []byte {
	if b.freed {
		return nil
	}
	return b.data
}

// Len returns the region size in bytes.
func (b *Buffer) Len() int {
	if b.freed {
		return 0
	}
	return len(b.data)
}

// Locked reports whether the region is pinned in memory. False indicates the
// documented degraded mode where the OS refused the lock.
func (b *Buffer) Locked() bool { return b.locked && !b.freed }

// Zero wipes the region. The write cannot be elided by the compiler.
func (b *Buffer) Zero() {
	if b.freed || len(b.data) == 0 {
		return
	}
	zeros := make([]byte, len(b.data))
	subtle.ConstantTimeCopy(1, b.data, zeros)
}

// Free wipes, unlocks and releases the region. Safe to call more than once.
func (b *Buffer) Free() {
	if b.freed {
		return
	}
	b.Zero()
	if b.locked {
		// A failed munlock leaves the page pinned, which is harmless.
		_ = unlock(b.data)
		b.locked = false
	}
	b.freed = true
	b.data = nil
	liveBuffers.Add(-1)
	runtime.SetFinalizer(b, nil)
}

func (b *Buffer) finalize() {
	if !b.freed {
		b.Free()
	}
}

// Wipe zeroes an ordinary byte slice in place. It is the companion for
// secrets that pass through transient stack or heap slices rather than
// through a Buffer.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zeros)
}
