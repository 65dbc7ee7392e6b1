// Package dsign provides ordinary (non-evolving) digital signature schemes
// behind a single interface. The Ed25519 scheme is the base signer the
// key-evolving schemes build on; the secp256k1 schemes cover ECDSA and
// BIP-340 Schnorr for chains that verify against those curves.
package dsign

import (
	"errors"
	"fmt"

	"github.com/ouroboros-crypto/praos/seed"
)

var (
	// ErrVerificationFailed is returned when a signature does not verify.
	ErrVerificationFailed = errors.New("dsign: signature verification failed")
	// ErrInvalidVerificationKey is returned for malformed verification keys.
	ErrInvalidVerificationKey = errors.New("dsign: invalid verification key")
	// ErrInvalidSignature is returned for malformed signature encodings.
	ErrInvalidSignature = errors.New("dsign: invalid signature encoding")
	// ErrKeyFreed is returned when a released signing key is used.
	ErrKeyFreed = errors.New("dsign: signing key already freed")
)

// Algorithm describes one signature scheme. Implementations are stateless;
// all secret state lives in the SigningKey values they produce.
type Algorithm interface {
	// Name returns a stable identifier for the scheme.
	Name() string
	// VerificationKeySize returns the encoded verification key length.
	VerificationKeySize() int
	// SignatureSize returns the encoded signature length.
	SignatureSize() int
	// GenerateKey derives a signing key deterministically from the seed.
	// The seed is read, not consumed; the caller still owns it.
	GenerateKey(s *seed.Seed) (SigningKey, error)
	// Verify checks sig over msg against the encoded verification key.
	Verify(vk, msg, sig []byte) error
}

// SigningKey is a secret key for one Algorithm. Keys hold their secret
// material in locked memory and must be released with Free.
type SigningKey interface {
	// Algorithm returns the scheme this key belongs to.
	Algorithm() Algorithm
	// VerificationKey returns the encoded public counterpart.
	VerificationKey() []byte
	// Sign produces a signature over msg.
	Sign(msg []byte) ([]byte, error)
	// Free wipes and releases the secret material.
	Free()
}

// UnsoundSeedExporter is implemented by signing keys whose generating seed
// can be read back out of locked memory. Reading a seed defeats the locking
// guarantees, hence the name; it exists for raw key serialization and test
// vector generation only.
type UnsoundSeedExporter interface {
	// UnsoundSeedBytes returns a copy of the 32-byte generating seed.
	UnsoundSeedBytes() ([]byte, error)
}

// SizeError reports an encoded value of unexpected length.
type SizeError struct {
	Scheme string
	Field  string
	Got    int
	Want   int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("dsign: %s %s is %d bytes, want %d", e.Scheme, e.Field, e.Got, e.Want)
}
