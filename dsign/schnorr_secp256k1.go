package dsign

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

// SchnorrSecp256k1 is BIP-340 Schnorr over secp256k1 with SHA-256 message
// hashing. Verification keys are 32-byte x-only points; signatures are the
// 64-byte BIP-340 encoding.
var SchnorrSecp256k1 Algorithm = schnorrSecp256k1Algorithm{}

const (
	schnorrVKSize  = 32
	schnorrSigSize = 64
)

type schnorrSecp256k1Algorithm struct{}

func (schnorrSecp256k1Algorithm) Name() string             { return "schnorr-secp256k1" }
func (schnorrSecp256k1Algorithm) VerificationKeySize() int { return schnorrVKSize }
func (schnorrSecp256k1Algorithm) SignatureSize() int       { return schnorrSigSize }

func (a schnorrSecp256k1Algorithm) GenerateKey(s *seed.Seed) (SigningKey, error) {
	priv := deriveSecp256k1Key(s)
	if priv == nil {
		return nil, fmt.Errorf("%s: seed maps to the zero scalar", a.Name())
	}
	buf, err := memlock.FromBytes(priv.Serialize())
	if err != nil {
		return nil, fmt.Errorf("%s: locking key: %w", a.Name(), err)
	}
	vk := schnorr.SerializePubKey(priv.PubKey())
	priv.Zero()
	return &schnorrSecp256k1SigningKey{key: buf, vk: vk}, nil
}

func (a schnorrSecp256k1Algorithm) Verify(vk, msg, sig []byte) error {
	if len(vk) != schnorrVKSize {
		return &SizeError{Scheme: a.Name(), Field: "verification key", Got: len(vk), Want: schnorrVKSize}
	}
	if len(sig) != schnorrSigSize {
		return &SizeError{Scheme: a.Name(), Field: "signature", Got: len(sig), Want: schnorrSigSize}
	}
	pub, err := schnorr.ParsePubKey(vk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVerificationKey, err)
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	digest := sha256.Sum256(msg)
	if !parsed.Verify(digest[:], pub) {
		return ErrVerificationFailed
	}
	return nil
}

type schnorrSecp256k1SigningKey struct {
	key *memlock.Buffer
	vk  []byte
}

func (k *schnorrSecp256k1SigningKey) Algorithm() Algorithm { return SchnorrSecp256k1 }

func (k *schnorrSecp256k1SigningKey) VerificationKey() []byte { return k.vk }

func (k *schnorrSecp256k1SigningKey) Sign(msg []byte) ([]byte, error) {
	if k.key.Len() == 0 {
		return nil, ErrKeyFreed
	}
	priv, _ := btcec.PrivKeyFromBytes(k.key.Bytes())
	defer priv.Zero()
	digest := sha256.Sum256(msg)
	sig, err := schnorr.Sign(priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("schnorr-secp256k1: signing: %w", err)
	}
	return sig.Serialize(), nil
}

func (k *schnorrSecp256k1SigningKey) Free() { k.key.Free() }
