package kes

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"

	"github.com/ouroboros-crypto/praos/seed"
)

// ErrHashTooShort is returned when a composition hash cannot produce seeds.
var ErrHashTooShort = errors.New("kes: composition hash digest shorter than a seed")

// NewSum composes a scheme covering twice the child's periods. A Sum key
// holds a left child key for the first half of its periods and the seed of
// the not-yet-built right child for the second half; the verification key is
// the hash of both child verification keys, so it stays stable while the key
// evolves underneath. Every signature carries both child verification keys.
func NewSum(child Scheme, hash HashAlgorithm) (Scheme, error) {
	if err := checkComposition(child, hash); err != nil {
		return nil, err
	}
	return sumScheme{child: child.(internalScheme), hash: hash}, nil
}

// Sum returns the Sum composition of the given depth over the Ed25519
// single-period leaf, covering 2^depth periods. Depth 6 with Blake2b-256 is
// the production block-signing configuration.
func Sum(depth int, hash HashAlgorithm) (Scheme, error) {
	return composeTree(NewSingle(), depth, hash)
}

func composeTree(leaf Scheme, depth int, hash HashAlgorithm) (Scheme, error) {
	if depth < 0 || depth > 62 {
		return nil, fmt.Errorf("kes: composition depth %d out of range [0, 62]", depth)
	}
	s := leaf
	for i := 0; i < depth; i++ {
		var err error
		switch leaf.(type) {
		case compactSingleScheme:
			s, err = NewCompactSum(s, hash)
		default:
			s, err = NewSum(s, hash)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func checkComposition(child Scheme, hash HashAlgorithm) error {
	if child == nil {
		return errors.New("kes: child scheme must not be nil")
	}
	if hash == nil {
		return errors.New("kes: hash algorithm must not be nil")
	}
	if hash.Size() < seed.Size {
		return fmt.Errorf("%w: %s digest is %d bytes, need %d", ErrHashTooShort, hash.Name(), hash.Size(), seed.Size)
	}
	if _, ok := child.(internalScheme); !ok {
		return fmt.Errorf("kes: child scheme %s is not composable", child.Name())
	}
	if child.TotalPeriods() > 1<<62 {
		return fmt.Errorf("kes: child scheme %s has too many periods to double", child.Name())
	}
	return nil
}

// internalScheme is the uncounted verification entry point shared by the
// schemes in this package, so recursive verification of a composed signature
// registers as one verification in the metrics.
type internalScheme interface {
	Scheme
	verify(vk []byte, period uint64, msg, sig []byte) error
}

// treeDepth reports how many Sum levels sit above the single-period leaf.
func treeDepth(s Scheme) int { return bits.Len64(s.TotalPeriods()) - 1 }

type sumScheme struct {
	child internalScheme
	hash  HashAlgorithm
}

func (s sumScheme) Name() string {
	return fmt.Sprintf("kes-sum-%d-%s", treeDepth(s), s.hash.Name())
}

func (s sumScheme) SeedSize() int { return seed.Size }

func (s sumScheme) VerificationKeySize() int { return s.hash.Size() }

func (s sumScheme) SignatureSize() int {
	return s.child.SignatureSize() + 2*s.child.VerificationKeySize()
}

func (s sumScheme) SigningKeySize() int {
	return s.child.SigningKeySize() + seed.Size + 2*s.child.VerificationKeySize()
}

func (s sumScheme) TotalPeriods() uint64 { return 2 * s.child.TotalPeriods() }

func (s sumScheme) GenerateKey(sd *seed.Seed) (SigningKey, error) {
	left, vk0, r1, vk1, err := generateHalves(s.child, s.hash, sd)
	if err != nil {
		return nil, err
	}
	DefaultMetrics.KeyGenerations.Add(1)
	return &sumSigningKey{
		scheme: s,
		child:  left,
		r1:     r1,
		vk0:    vk0,
		vk1:    vk1,
		vk:     hashPair(s.hash, vk0, vk1),
	}, nil
}

// generateHalves builds the left child key eagerly, derives the right
// child's verification key by generating and immediately discarding it, and
// retains only the right half seed.
func generateHalves(child Scheme, hash HashAlgorithm, sd *seed.Seed) (SigningKey, []byte, *seed.Seed, []byte, error) {
	r0, r1, err := expandSeed(hash, sd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	left, err := child.GenerateKey(r0)
	r0.Free()
	if err != nil {
		r1.Free()
		return nil, nil, nil, nil, err
	}
	right, err := child.GenerateKey(r1)
	if err != nil {
		left.Free()
		r1.Free()
		return nil, nil, nil, nil, err
	}
	vk0 := append([]byte(nil), left.VerificationKey()...)
	vk1 := append([]byte(nil), right.VerificationKey()...)
	right.Free()
	return left, vk0, r1, vk1, nil
}

func (s sumScheme) Verify(vk []byte, period uint64, msg, sig []byte) error {
	return countVerify(s.verify(vk, period, msg, sig))
}

func (s sumScheme) verify(vk []byte, period uint64, msg, sig []byte) error {
	if err := checkVerifyInputs(s, vk, period, sig); err != nil {
		return err
	}
	childSigSize := s.child.SignatureSize()
	childVKSize := s.child.VerificationKeySize()
	childSig := sig[:childSigSize]
	vk0 := sig[childSigSize : childSigSize+childVKSize]
	vk1 := sig[childSigSize+childVKSize:]

	if !bytes.Equal(hashPair(s.hash, vk0, vk1), vk) {
		return ErrVerificationFailed
	}
	tHalf := s.child.TotalPeriods()
	if period < tHalf {
		return s.child.verify(vk0, period, msg, childSig)
	}
	return s.child.verify(vk1, period-tHalf, msg, childSig)
}

// sumSigningKey is a Sum node of the evolving key. Exactly one child key is
// live at a time; the right half exists only as a seed until the key crosses
// the midpoint, and material for elapsed periods is wiped as it expires.
type sumSigningKey struct {
	scheme sumScheme
	child  SigningKey
	r1     *seed.Seed // nil once the right child is built
	vk0    []byte
	vk1    []byte
	vk     []byte
	period uint64
	freed  bool
}

func (k *sumSigningKey) Scheme() Scheme { return k.scheme }

func (k *sumSigningKey) VerificationKey() []byte { return k.vk }

func (k *sumSigningKey) Period() uint64 { return k.period }

func (k *sumSigningKey) Sign(period uint64, msg []byte) ([]byte, error) {
	if k.freed {
		return nil, ErrKeyFreed
	}
	if k.child == nil {
		return nil, ErrKeyExpired
	}
	if period != k.period {
		return nil, &PeriodError{Op: "sign", Period: period, Total: k.scheme.TotalPeriods()}
	}
	childSig, err := k.child.Sign(k.child.Period(), msg)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 0, k.scheme.SignatureSize())
	sig = append(sig, childSig...)
	sig = append(sig, k.vk0...)
	sig = append(sig, k.vk1...)
	DefaultMetrics.Signatures.Add(1)
	return sig, nil
}

func (k *sumSigningKey) Update() error {
	if k.freed {
		return ErrKeyFreed
	}
	if k.child == nil {
		return ErrKeyExpired
	}
	tHalf := k.scheme.child.TotalPeriods()
	next := k.period + 1
	switch {
	case next >= 2*tHalf:
		k.expire()
		return ErrKeyExpired
	case next == tHalf:
		// Midpoint: retire the left child and build the right one from
		// the retained seed, which is consumed here.
		k.child.Free()
		right, err := k.scheme.child.GenerateKey(k.r1)
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

func (k *sumSigningKey) expire() {
	if k.child != nil {
		k.child.Free()
		k.child = nil
	}
	if k.r1 != nil {
		k.r1.Free()
		k.r1 = nil
	}
	DefaultMetrics.Expirations.Add(1)
}

func (k *sumSigningKey) Free() {
	if k.freed {
		return
	}
	if k.child != nil {
		k.child.Free()
		k.child = nil
	}
	if k.r1 != nil {
		k.r1.Free()
		k.r1 = nil
	}
	k.freed = true
	DefaultMetrics.KeysFreed.Add(1)
}
