package dsign

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

// EcdsaSecp256k1 is ECDSA over secp256k1 with SHA-256 message hashing.
// Verification keys are 33-byte compressed points; signatures are the fixed
// 64-byte r||s encoding with s in the lower half of the group order,
// enforced on both Sign and Verify.
var EcdsaSecp256k1 Algorithm = ecdsaSecp256k1Algorithm{}

const (
	ecdsaVKSize  = 33
	ecdsaSigSize = 64
)

type ecdsaSecp256k1Algorithm struct{}

func (ecdsaSecp256k1Algorithm) Name() string             { return "ecdsa-secp256k1" }
func (ecdsaSecp256k1Algorithm) VerificationKeySize() int { return ecdsaVKSize }
func (ecdsaSecp256k1Algorithm) SignatureSize() int       { return ecdsaSigSize }

func (a ecdsaSecp256k1Algorithm) GenerateKey(s *seed.Seed) (SigningKey, error) {
	priv := deriveSecp256k1Key(s)
	if priv == nil {
		return nil, fmt.Errorf("%s: seed maps to the zero scalar", a.Name())
	}
	buf, err := memlock.FromBytes(priv.Serialize())
	if err != nil {
		return nil, fmt.Errorf("%s: locking key: %w", a.Name(), err)
	}
	vk := priv.PubKey().SerializeCompressed()
	priv.Zero()
	return &ecdsaSecp256k1SigningKey{key: buf, vk: vk}, nil
}

func (a ecdsaSecp256k1Algorithm) Verify(vk, msg, sig []byte) error {
	if len(vk) != ecdsaVKSize {
		return &SizeError{Scheme: a.Name(), Field: "verification key", Got: len(vk), Want: ecdsaVKSize}
	}
	if len(sig) != ecdsaSigSize {
		return &SizeError{Scheme: a.Name(), Field: "signature", Got: len(sig), Want: ecdsaSigSize}
	}
	pub, err := btcec.ParsePubKey(vk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVerificationKey, err)
	}
	var r, ss btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return ErrInvalidSignature
	}
	if overflow := ss.SetByteSlice(sig[32:]); overflow || ss.IsZero() {
		return ErrInvalidSignature
	}
	// Without the low-s rule every signature has a valid (r, N-s)
	// counterpart, breaking signature uniqueness.
	if ss.IsOverHalfOrder() {
		return ErrInvalidSignature
	}
	digest := sha256.Sum256(msg)
	if !ecdsa.NewSignature(&r, &ss).Verify(digest[:], pub) {
		return ErrVerificationFailed
	}
	return nil
}

type ecdsaSecp256k1SigningKey struct {
	key *memlock.Buffer
	vk  []byte
}

func (k *ecdsaSecp256k1SigningKey) Algorithm() Algorithm { return EcdsaSecp256k1 }

func (k *ecdsaSecp256k1SigningKey) VerificationKey() []byte { return k.vk }

func (k *ecdsaSecp256k1SigningKey) Sign(msg []byte) ([]byte, error) {
	if k.key.Len() == 0 {
		return nil, ErrKeyFreed
	}
	priv, _ := btcec.PrivKeyFromBytes(k.key.Bytes())
	defer priv.Zero()
	digest := sha256.Sum256(msg)
	// SignCompact prepends a recovery byte; the wire format carries r||s only.
	compact := ecdsa.SignCompact(priv, digest[:], true)
	sig := make([]byte, ecdsaSigSize)
	copy(sig, compact[1:])
	return sig, nil
}

func (k *ecdsaSecp256k1SigningKey) Free() { k.key.Free() }

// deriveSecp256k1Key interprets the seed as a big-endian scalar mod N and
// returns nil if it reduces to zero.
func deriveSecp256k1Key(s *seed.Seed) *btcec.PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(s.Bytes())
	if priv.Key.IsZero() {
		return nil
	}
	return priv
}
