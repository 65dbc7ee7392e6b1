// Package vrf implements the ECVRF-ED25519-SHA512-Elligator2 verifiable
// random function in the two wire formats used by Praos consensus: the
// 80-byte proof of IETF draft-irtf-cfrg-vrf-03 and the 128-byte
// batch-compatible proof of draft-13. Both variants share keys, the Ed25519
// group and the 64-byte output; they differ in the hash-to-curve map, the
// challenge transcript and the proof layout, so proofs are not
// interchangeable between them.
package vrf

import (
	"crypto/sha512"
	"errors"

	"filippo.io/edwards25519"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

const (
	// SeedSize is the signing key seed length in bytes.
	SeedSize = 32
	// VerificationKeySize is the encoded public key length in bytes.
	VerificationKeySize = 32
	// OutputSize is the VRF output length in bytes.
	OutputSize = 64

	// suite is the ECVRF-ED25519-SHA512-Elligator2 suite byte, shared by
	// both draft variants.
	suite = 0x04

	// Domain separation tags within the suite.
	tagHashToCurve = 0x01
	tagChallenge   = 0x02
	tagOutput      = 0x03
)

var (
	// ErrVerificationFailed is returned when a proof does not verify.
	ErrVerificationFailed = errors.New("vrf: proof verification failed")
	// ErrInvalidProof is returned for malformed proof encodings.
	ErrInvalidProof = errors.New("vrf: invalid proof encoding")
	// ErrInvalidVerificationKey is returned for undecodable or small-order
	// public keys.
	ErrInvalidVerificationKey = errors.New("vrf: invalid verification key")
	// ErrKeyFreed is returned when a released signing key is used.
	ErrKeyFreed = errors.New("vrf: signing key already freed")
)

// VRF is one proof-format variant of the verifiable random function.
// Implementations are stateless and safe for concurrent use.
type VRF interface {
	// Name returns a stable identifier for the variant.
	Name() string
	// ProofSize returns the encoded proof length in bytes.
	ProofSize() int
	// GenerateKey derives a signing key deterministically from the seed.
	// The seed is read, not consumed; the caller still owns it.
	GenerateKey(s *seed.Seed) (*SigningKey, error)
	// Verify checks the proof over alpha against the verification key and
	// returns the 64-byte output the proof commits to.
	Verify(vk, alpha, proof []byte) ([]byte, error)
	// ProofToOutput extracts the 64-byte output from a proof without
	// verifying it. Only use on proofs that have already been verified.
	ProofToOutput(proof []byte) ([]byte, error)
}

var (
	// Draft03 is the draft-03 variant with 80-byte proofs, the format of
	// Praos leader-election proofs.
	Draft03 VRF = draft03{}
	// Draft13 is the draft-13 batch-compatible variant with 128-byte
	// proofs that expose the verifier's U and V points.
	Draft13 VRF = draft13{}
)

// SigningKey is a VRF secret key. Only the 32-byte seed is kept resident, in
// locked memory; the secret scalar is re-derived per proof and wiped.
type SigningKey struct {
	vrf  VRF
	seed *memlock.Buffer
	vk   []byte
}

// VRF returns the variant this key produces proofs for.
func (k *SigningKey) VRF() VRF { return k.vrf }

// VerificationKey returns the encoded public counterpart.
func (k *SigningKey) VerificationKey() []byte { return k.vk }

// Prove produces a proof over alpha and the output it commits to.
func (k *SigningKey) Prove(alpha []byte) (proof, output []byte, err error) {
	if k.seed.Len() == 0 {
		return nil, nil, ErrKeyFreed
	}
	switch v := k.vrf.(type) {
	case draft03:
		return v.prove(k, alpha)
	case draft13:
		return v.prove(k, alpha)
	default:
		return nil, nil, errors.New("vrf: unknown variant")
	}
}

// Free wipes and releases the secret seed.
func (k *SigningKey) Free() { k.seed.Free() }

func newSigningKey(v VRF, sd *seed.Seed) (*SigningKey, error) {
	buf, err := memlock.FromBytes(sd.Bytes())
	if err != nil {
		return nil, err
	}
	x, z := expandSeed(buf.Bytes())
	memlock.Wipe(z)
	vk := (&edwards25519.Point{}).ScalarBaseMult(x).Bytes()
	return &SigningKey{vrf: v, seed: buf, vk: vk}, nil
}

// expandSeed derives the secret scalar and the nonce prefix from a seed per
// RFC 8032: the scalar is the clamped lower half of SHA-512(seed), the nonce
// prefix the upper half. The caller wipes z when done.
func expandSeed(sd []byte) (x *edwards25519.Scalar, z []byte) {
	h := sha512.Sum512(sd)
	x = edwards25519.NewScalar()
	if _, err := x.SetBytesWithClamping(h[:32]); err != nil {
		// SetBytesWithClamping only fails for inputs that are not 32
		// bytes long.
		panic(err)
	}
	z = make([]byte, 32)
	copy(z, h[32:])
	memlock.Wipe(h[:])
	return x, z
}

// nonceScalar derives the proof nonce k = SHA-512(z || hBytes) mod L.
func nonceScalar(z, hBytes []byte) *edwards25519.Scalar {
	h := sha512.New()
	h.Write(z)
	h.Write(hBytes)
	digest := h.Sum(nil)
	k := edwards25519.NewScalar()
	if _, err := k.SetUniformBytes(digest); err != nil {
		panic(err)
	}
	memlock.Wipe(digest)
	return k
}

// decodeVerificationKey decodes vk and rejects keys in the small subgroup,
// which would make every proof output predictable.
func decodeVerificationKey(vk []byte) (*edwards25519.Point, error) {
	if len(vk) != VerificationKeySize {
		return nil, ErrInvalidVerificationKey
	}
	Y := &edwards25519.Point{}
	if _, err := Y.SetBytes(vk); err != nil {
		return nil, ErrInvalidVerificationKey
	}
	if (&edwards25519.Point{}).MultByCofactor(Y).Equal(edwards25519.NewIdentityPoint()) == 1 {
		return nil, ErrInvalidVerificationKey
	}
	return Y, nil
}

// challengeScalar widens a 16-byte truncated challenge into a scalar.
func challengeScalar(c16 []byte) *edwards25519.Scalar {
	var wide [32]byte
	copy(wide[:], c16)
	c := edwards25519.NewScalar()
	if _, err := c.SetCanonicalBytes(wide[:]); err != nil {
		// A 16-byte value padded with zeros is always below the group
		// order.
		panic(err)
	}
	return c
}
