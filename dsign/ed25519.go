package dsign

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

// Ed25519 is the RFC 8032 Ed25519 scheme. It is the base signer used by the
// key-evolving schemes in the kes package.
var Ed25519 Algorithm = ed25519Algorithm{}

const (
	ed25519VKSize  = ed25519.PublicKeySize
	ed25519SigSize = ed25519.SignatureSize
)

type ed25519Algorithm struct{}

func (ed25519Algorithm) Name() string             { return "ed25519" }
func (ed25519Algorithm) VerificationKeySize() int { return ed25519VKSize }
func (ed25519Algorithm) SignatureSize() int       { return ed25519SigSize }

func (a ed25519Algorithm) GenerateKey(s *seed.Seed) (SigningKey, error) {
	buf, err := memlock.FromBytes(s.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ed25519: locking seed: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(buf.Bytes())
	vk := make([]byte, ed25519VKSize)
	copy(vk, priv.Public().(ed25519.PublicKey))
	memlock.Wipe(priv)
	return &ed25519SigningKey{seed: buf, vk: vk}, nil
}

func (a ed25519Algorithm) Verify(vk, msg, sig []byte) error {
	if len(vk) != ed25519VKSize {
		return &SizeError{Scheme: a.Name(), Field: "verification key", Got: len(vk), Want: ed25519VKSize}
	}
	if len(sig) != ed25519SigSize {
		return &SizeError{Scheme: a.Name(), Field: "signature", Got: len(sig), Want: ed25519SigSize}
	}
	if !ed25519.Verify(ed25519.PublicKey(vk), msg, sig) {
		return ErrVerificationFailed
	}
	return nil
}

// ed25519SigningKey keeps only the 32-byte seed resident and expands the
// full private key per signature, so the expanded scalar never persists.
type ed25519SigningKey struct {
	seed *memlock.Buffer
	vk   []byte
}

func (k *ed25519SigningKey) Algorithm() Algorithm { return Ed25519 }

func (k *ed25519SigningKey) VerificationKey() []byte { return k.vk }

func (k *ed25519SigningKey) Sign(msg []byte) ([]byte, error) {
	if k.seed.Len() == 0 {
		return nil, ErrKeyFreed
	}
	priv := ed25519.NewKeyFromSeed(k.seed.Bytes())
	sig := ed25519.Sign(priv, msg)
	memlock.Wipe(priv)
	return sig, nil
}

func (k *ed25519SigningKey) UnsoundSeedBytes() ([]byte, error) {
	if k.seed.Len() == 0 {
		return nil, ErrKeyFreed
	}
	return append([]byte(nil), k.seed.Bytes()...), nil
}

func (k *ed25519SigningKey) Free() { k.seed.Free() }
