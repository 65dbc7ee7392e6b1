package kes

import (
	"bytes"

	"github.com/ouroboros-crypto/praos/dsign"
	"github.com/ouroboros-crypto/praos/seed"
)

// NewCompactSingle returns the one-period leaf of the CompactSum
// compositions. Its signature carries the Ed25519 verification key alongside
// the raw signature, which lets CompactSum nodes leave one child key out of
// every signature and reconstruct it during verification.
func NewCompactSingle() Scheme { return compactSingleScheme{} }

// vkExtractor is implemented by schemes whose signatures carry enough
// material to reconstruct the signer's verification key. CompactSum nodes
// require it of their children.
type vkExtractor interface {
	// extractVK verifies sig over msg for the given period against the key
	// material embedded in sig itself and returns the reconstructed
	// verification key.
	extractVK(period uint64, msg, sig []byte) ([]byte, error)
}

type compactSingleScheme struct{}

func (compactSingleScheme) Name() string             { return "kes-compact-single-ed25519" }
func (compactSingleScheme) SeedSize() int            { return seed.Size }
func (compactSingleScheme) VerificationKeySize() int { return dsign.Ed25519.VerificationKeySize() }
func (compactSingleScheme) SigningKeySize() int      { return seed.Size }
func (compactSingleScheme) TotalPeriods() uint64     { return 1 }

func (compactSingleScheme) SignatureSize() int {
	return dsign.Ed25519.SignatureSize() + dsign.Ed25519.VerificationKeySize()
}

func (s compactSingleScheme) GenerateKey(sd *seed.Seed) (SigningKey, error) {
	inner, err := dsign.Ed25519.GenerateKey(sd)
	if err != nil {
		return nil, err
	}
	DefaultMetrics.KeyGenerations.Add(1)
	return &compactSingleSigningKey{scheme: s, inner: inner}, nil
}

func (s compactSingleScheme) Verify(vk []byte, period uint64, msg, sig []byte) error {
	return countVerify(s.verify(vk, period, msg, sig))
}

func (s compactSingleScheme) verify(vk []byte, period uint64, msg, sig []byte) error {
	if err := checkVerifyInputs(s, vk, period, sig); err != nil {
		return err
	}
	embedded, err := s.extractVK(period, msg, sig)
	if err != nil {
		return err
	}
	if !bytes.Equal(embedded, vk) {
		return ErrVerificationFailed
	}
	return nil
}

func (s compactSingleScheme) extractVK(period uint64, msg, sig []byte) ([]byte, error) {
	if len(sig) != s.SignatureSize() {
		return nil, ErrInvalidSignature
	}
	if period >= s.TotalPeriods() {
		return nil, &PeriodError{Op: "verify", Period: period, Total: s.TotalPeriods()}
	}
	raw := sig[:dsign.Ed25519.SignatureSize()]
	vk := sig[dsign.Ed25519.SignatureSize():]
	if err := dsign.Ed25519.Verify(vk, msg, raw); err != nil {
		return nil, ErrVerificationFailed
	}
	return vk, nil
}

type compactSingleSigningKey struct {
	scheme  Scheme
	inner   dsign.SigningKey
	expired bool
	freed   bool
}

func (k *compactSingleSigningKey) Scheme() Scheme { return k.scheme }

func (k *compactSingleSigningKey) VerificationKey() []byte { return k.inner.VerificationKey() }

func (k *compactSingleSigningKey) Period() uint64 { return 0 }

func (k *compactSingleSigningKey) Sign(period uint64, msg []byte) ([]byte, error) {
	if k.freed {
		return nil, ErrKeyFreed
	}
	if k.expired {
		return nil, ErrKeyExpired
	}
	if period != 0 {
		return nil, &PeriodError{Op: "sign", Period: period, Total: 1}
	}
	raw, err := k.inner.Sign(msg)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 0, k.scheme.SignatureSize())
	sig = append(sig, raw...)
	sig = append(sig, k.inner.VerificationKey()...)
	DefaultMetrics.Signatures.Add(1)
	return sig, nil
}

func (k *compactSingleSigningKey) Update() error {
	if k.freed {
		return ErrKeyFreed
	}
	if !k.expired {
		k.expired = true
		DefaultMetrics.Expirations.Add(1)
	}
	return ErrKeyExpired
}

func (k *compactSingleSigningKey) Free() {
	if k.freed {
		return
	}
	k.freed = true
	k.inner.Free()
	DefaultMetrics.KeysFreed.Add(1)
}
