package kes

import (
	"bytes"
	"fmt"

	"github.com/ouroboros-crypto/praos/seed"
)

// NewCompactSum composes a scheme covering twice the child's periods, like
// NewSum, but each signature carries only the verification key of the child
// that did NOT sign. The signing child's key is reconstructed during
// verification from the leaf key embedded in the CompactSingle signature,
// saving one key per tree level. The child must itself be a Compact scheme.
func NewCompactSum(child Scheme, hash HashAlgorithm) (Scheme, error) {
	if err := checkComposition(child, hash); err != nil {
		return nil, err
	}
	extractor, ok := child.(vkExtractor)
	if !ok {
		return nil, fmt.Errorf("kes: child scheme %s does not embed its verification key", child.Name())
	}
	return compactSumScheme{
		child:     child.(internalScheme),
		extractor: extractor,
		hash:      hash,
	}, nil
}

// CompactSum returns the CompactSum composition of the given depth over the
// Ed25519 CompactSingle leaf, covering 2^depth periods. This is the scheme
// behind production operational certificates.
func CompactSum(depth int, hash HashAlgorithm) (Scheme, error) {
	return composeTree(NewCompactSingle(), depth, hash)
}

type compactSumScheme struct {
	child     internalScheme
	extractor vkExtractor
	hash      HashAlgorithm
}

func (s compactSumScheme) Name() string {
	return fmt.Sprintf("kes-compact-sum-%d-%s", treeDepth(s), s.hash.Name())
}

func (s compactSumScheme) SeedSize() int { return seed.Size }

func (s compactSumScheme) VerificationKeySize() int { return s.hash.Size() }

func (s compactSumScheme) SignatureSize() int {
	return s.child.SignatureSize() + s.child.VerificationKeySize()
}

func (s compactSumScheme) SigningKeySize() int {
	return s.child.SigningKeySize() + seed.Size + 2*s.child.VerificationKeySize()
}

func (s compactSumScheme) TotalPeriods() uint64 { return 2 * s.child.TotalPeriods() }

func (s compactSumScheme) GenerateKey(sd *seed.Seed) (SigningKey, error) {
	left, vk0, r1, vk1, err := generateHalves(s.child, s.hash, sd)
	if err != nil {
		return nil, err
	}
	DefaultMetrics.KeyGenerations.Add(1)
	return &compactSumSigningKey{
		sumSigningKey: sumSigningKey{
			child: left,
			r1:    r1,
			vk0:   vk0,
			vk1:   vk1,
			vk:    hashPair(s.hash, vk0, vk1),
		},
		compactScheme: s,
	}, nil
}

func (s compactSumScheme) Verify(vk []byte, period uint64, msg, sig []byte) error {
	return countVerify(s.verify(vk, period, msg, sig))
}

func (s compactSumScheme) verify(vk []byte, period uint64, msg, sig []byte) error {
	if err := checkVerifyInputs(s, vk, period, sig); err != nil {
		return err
	}
	reconstructed, err := s.extractVK(period, msg, sig)
	if err != nil {
		return err
	}
	if !bytes.Equal(reconstructed, vk) {
		return ErrVerificationFailed
	}
	return nil
}

// extractVK rebuilds this node's verification key from a signature: the
// signing child's key is reconstructed recursively down to the embedded
// leaf, the idle child's key is read from the signature, and the pair is
// hashed. The embedded leaf signature is verified on the way down, so a
// successful reconstruction also proves the signature.
func (s compactSumScheme) extractVK(period uint64, msg, sig []byte) ([]byte, error) {
	if len(sig) != s.SignatureSize() {
		return nil, ErrInvalidSignature
	}
	if period >= s.TotalPeriods() {
		return nil, &PeriodError{Op: "verify", Period: period, Total: s.TotalPeriods()}
	}
	childSig := sig[:s.child.SignatureSize()]
	vkOther := sig[s.child.SignatureSize():]

	tHalf := s.child.TotalPeriods()
	var vk0, vk1 []byte
	if period < tHalf {
		extracted, err := s.extractor.extractVK(period, msg, childSig)
		if err != nil {
			return nil, err
		}
		vk0, vk1 = extracted, vkOther
	} else {
		extracted, err := s.extractor.extractVK(period-tHalf, msg, childSig)
		if err != nil {
			return nil, err
		}
		vk0, vk1 = vkOther, extracted
	}
	return hashPair(s.hash, vk0, vk1), nil
}

// compactSumSigningKey evolves exactly like a Sum key; only the signature
// layout differs, appending the idle child's key instead of both.
type compactSumSigningKey struct {
	sumSigningKey
	compactScheme compactSumScheme
}

func (k *compactSumSigningKey) Scheme() Scheme { return k.compactScheme }

func (k *compactSumSigningKey) Sign(period uint64, msg []byte) ([]byte, error) {
	if k.freed {
		return nil, ErrKeyFreed
	}
	if k.child == nil {
		return nil, ErrKeyExpired
	}
	if period != k.period {
		return nil, &PeriodError{Op: "sign", Period: period, Total: k.compactScheme.TotalPeriods()}
	}
	childSig, err := k.child.Sign(k.child.Period(), msg)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 0, k.compactScheme.SignatureSize())
	sig = append(sig, childSig...)
	if k.period < k.compactScheme.child.TotalPeriods() {
		sig = append(sig, k.vk1...)
	} else {
		sig = append(sig, k.vk0...)
	}
	DefaultMetrics.Signatures.Add(1)
	return sig, nil
}

func (k *compactSumSigningKey) Update() error {
	if k.freed {
		return ErrKeyFreed
	}
	if k.child == nil {
		return ErrKeyExpired
	}
	tHalf := k.compactScheme.child.TotalPeriods()
	next := k.period + 1
	switch {
	case next >= 2*tHalf:
		k.expire()
		return ErrKeyExpired
	case next == tHalf:
		k.child.Free()
		right, err := k.compactScheme.child.GenerateKey(k.r1)
		k.r1.Free()
		k.r1 = nil
		if err != nil {
			k.child = nil
			return fmt.Errorf("kes: building right child at period %d: %w", next, err)
		}
		k.child = right
	default:
		if err := k.child.Update(); err != nil {
			return err
		}
	}
	k.period = next
	DefaultMetrics.Updates.Add(1)
	return nil
}
