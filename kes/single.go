package kes

import (
	"github.com/ouroboros-crypto/praos/dsign"
	"github.com/ouroboros-crypto/praos/seed"
)

// NewSingle returns the one-period scheme wrapping a plain Ed25519 signer.
// It is the leaf of the Sum compositions: signing and verification delegate
// directly to Ed25519 and Update expires the key immediately.
func NewSingle() Scheme { return singleScheme{} }

type singleScheme struct{}

func (singleScheme) Name() string             { return "kes-single-ed25519" }
func (singleScheme) SeedSize() int            { return seed.Size }
func (singleScheme) VerificationKeySize() int { return dsign.Ed25519.VerificationKeySize() }
func (singleScheme) SignatureSize() int       { return dsign.Ed25519.SignatureSize() }
func (singleScheme) SigningKeySize() int      { return seed.Size }
func (singleScheme) TotalPeriods() uint64     { return 1 }

func (s singleScheme) GenerateKey(sd *seed.Seed) (SigningKey, error) {
	inner, err := dsign.Ed25519.GenerateKey(sd)
	if err != nil {
		return nil, err
	}
	DefaultMetrics.KeyGenerations.Add(1)
	return &singleSigningKey{scheme: s, inner: inner}, nil
}

func (s singleScheme) Verify(vk []byte, period uint64, msg, sig []byte) error {
	return countVerify(s.verify(vk, period, msg, sig))
}

func (s singleScheme) verify(vk []byte, period uint64, msg, sig []byte) error {
	if err := checkVerifyInputs(s, vk, period, sig); err != nil {
		return err
	}
	if err := dsign.Ed25519.Verify(vk, msg, sig); err != nil {
		return ErrVerificationFailed
	}
	return nil
}

type singleSigningKey struct {
	scheme  Scheme
	inner   dsign.SigningKey
	expired bool
	freed   bool
}

func (k *singleSigningKey) Scheme() Scheme { return k.scheme }

func (k *singleSigningKey) VerificationKey() []byte { return k.inner.VerificationKey() }

func (k *singleSigningKey) Period() uint64 { return 0 }

func (k *singleSigningKey) Sign(period uint64, msg []byte) ([]byte, error) {
	if k.freed {
		return nil, ErrKeyFreed
	}
	if k.expired {
		return nil, ErrKeyExpired
	}
	if period != 0 {
		return nil, &PeriodError{Op: "sign", Period: period, Total: 1}
	}
	sig, err := k.inner.Sign(msg)
	if err != nil {
		return nil, err
	}
	DefaultMetrics.Signatures.Add(1)
	return sig, nil
}

func (k *singleSigningKey) Update() error {
	if k.freed {
		return ErrKeyFreed
	}
	if !k.expired {
		k.expired = true
		DefaultMetrics.Expirations.Add(1)
	}
	return ErrKeyExpired
}

func (k *singleSigningKey) Free() {
	if k.freed {
		return
	}
	k.freed = true
	k.inner.Free()
	DefaultMetrics.KeysFreed.Add(1)
}
