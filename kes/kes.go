// Package kes implements key-evolving signature schemes with forward
// security. A key covers a fixed number of periods; signing always uses the
// key's current period, and Update irreversibly evolves the key so that
// signatures for elapsed periods can never be forged again, even by an
// attacker who captures the current key.
//
// The schemes compose as a binary tree: Single wraps a plain one-period
// Ed25519 signer, Sum doubles the period count of any child scheme, and the
// Compact variants embed the leaf verification key in the signature to halve
// the per-level overhead.
package kes

import (
	"errors"
	"fmt"

	"github.com/ouroboros-crypto/praos/seed"
)

var (
	// ErrVerificationFailed is returned when a signature does not verify.
	ErrVerificationFailed = errors.New("kes: signature verification failed")
	// ErrKeyExpired is returned by Update once every period has elapsed.
	// An expired key never wraps around to period zero.
	ErrKeyExpired = errors.New("kes: signing key expired")
	// ErrKeyFreed is returned when a released signing key is used.
	ErrKeyFreed = errors.New("kes: signing key already freed")
	// ErrInvalidSignature is returned for signatures of the wrong length.
	ErrInvalidSignature = errors.New("kes: invalid signature encoding")
	// ErrInvalidVerificationKey is returned for keys of the wrong length.
	ErrInvalidVerificationKey = errors.New("kes: invalid verification key")
)

// PeriodError reports an operation against a period outside the key's range.
type PeriodError struct {
	Op     string
	Period uint64
	Total  uint64
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("kes: %s: period %d out of range, key covers periods [0, %d)", e.Op, e.Period, e.Total)
}

// Scheme describes one key-evolving signature scheme. Implementations are
// stateless and safe for concurrent use; all secret state lives in the
// SigningKey values they produce.
type Scheme interface {
	// Name returns a stable identifier, e.g. "kes-sum-6-blake2b-256".
	Name() string
	// SeedSize returns the seed length GenerateKey consumes.
	SeedSize() int
	// VerificationKeySize returns the encoded verification key length.
	VerificationKeySize() int
	// SignatureSize returns the encoded signature length.
	SignatureSize() int
	// SigningKeySize returns the length of the raw signing key encoding
	// produced by UnsoundSerializeSigningKey.
	SigningKeySize() int
	// TotalPeriods returns the number of periods a key covers.
	TotalPeriods() uint64
	// GenerateKey derives a signing key at period 0 from the seed. The seed
	// is read, not consumed; the caller still owns it.
	GenerateKey(s *seed.Seed) (SigningKey, error)
	// Verify checks sig over msg for the given period against vk.
	Verify(vk []byte, period uint64, msg, sig []byte) error
}

// SigningKey is the evolving secret key of one Scheme. Keys are not safe for
// concurrent use. Free releases the key at any point in its lifetime; Update
// past the last period expires the key but keeps the handle valid.
type SigningKey interface {
	// Scheme returns the scheme this key belongs to.
	Scheme() Scheme
	// VerificationKey returns the encoded public counterpart. It is stable
	// across the whole lifetime of the key.
	VerificationKey() []byte
	// Period returns the period signatures are currently produced for.
	Period() uint64
	// Sign produces a signature over msg bound to the given period, which
	// must equal the key's current period; any other period is rejected
	// with a PeriodError, never silently re-routed.
	Sign(period uint64, msg []byte) ([]byte, error)
	// Update evolves the key from its current period to the next, wiping
	// all material for the elapsed period. Returns ErrKeyExpired once the
	// key has no periods left.
	Update() error
	// Free wipes and releases all secret material.
	Free()
}

// checkVerifyInputs validates the common envelope of a Verify call.
func checkVerifyInputs(s Scheme, vk []byte, period uint64, sig []byte) error {
	if len(vk) != s.VerificationKeySize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidVerificationKey, len(vk), s.VerificationKeySize())
	}
	if len(sig) != s.SignatureSize() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignature, len(sig), s.SignatureSize())
	}
	if period >= s.TotalPeriods() {
		return &PeriodError{Op: "verify", Period: period, Total: s.TotalPeriods()}
	}
	return nil
}
