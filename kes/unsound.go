package kes

import (
	"errors"
	"fmt"

	"github.com/ouroboros-crypto/praos/dsign"
	"github.com/ouroboros-crypto/praos/seed"
)

// ErrNotSerializable is returned for schemes without a raw key encoding.
var ErrNotSerializable = errors.New("kes: signing key is not serializable")

// unsoundSerializer is implemented by signing keys that can dump their raw
// secret state.
type unsoundSerializer interface {
	unsoundBytes() ([]byte, error)
}

// UnsoundSerializeSigningKey encodes the full secret state of a signing key.
// The layout nests bottom-up per tree level: leaf seed, then for each Sum
// level the retained sibling seed (zeros once consumed) followed by both
// child verification keys. The encoding does not include the current period;
// the caller must track it and pass it back to UnsoundDeserializeSigningKey.
//
// The bytes defeat every forward-security and memory-locking guarantee of
// the key, hence the name. Intended for test vector generation, never for
// key storage.
func UnsoundSerializeSigningKey(k SigningKey) ([]byte, error) {
	u, ok := k.(unsoundSerializer)
	if !ok {
		return nil, ErrNotSerializable
	}
	return u.unsoundBytes()
}

// UnsoundDeserializeSigningKey rebuilds a signing key of the given scheme
// from its raw encoding, positioned at the given period.
func UnsoundDeserializeSigningKey(s Scheme, raw []byte, period uint64) (SigningKey, error) {
	if len(raw) != s.SigningKeySize() {
		return nil, fmt.Errorf("%w: raw signing key is %d bytes, want %d", ErrNotSerializable, len(raw), s.SigningKeySize())
	}
	if period >= s.TotalPeriods() {
		return nil, &PeriodError{Op: "deserialize", Period: period, Total: s.TotalPeriods()}
	}
	return deserializeKey(s, raw, period)
}

func deserializeKey(s Scheme, raw []byte, period uint64) (SigningKey, error) {
	switch sch := s.(type) {
	case singleScheme, compactSingleScheme:
		sd, err := seed.New(raw)
		if err != nil {
			return nil, err
		}
		defer sd.Free()
		return s.GenerateKey(sd)
	case sumScheme:
		child, r1, vk0, vk1, err := deserializeHalves(sch.child, raw, period)
		if err != nil {
			return nil, err
		}
		return &sumSigningKey{
			scheme: sch,
			child:  child,
			r1:     r1,
			vk0:    vk0,
			vk1:    vk1,
			vk:     hashPair(sch.hash, vk0, vk1),
			period: period,
		}, nil
	case compactSumScheme:
		child, r1, vk0, vk1, err := deserializeHalves(sch.child, raw, period)
		if err != nil {
			return nil, err
		}
		return &compactSumSigningKey{
			sumSigningKey: sumSigningKey{
				child:  child,
				r1:     r1,
				vk0:    vk0,
				vk1:    vk1,
				vk:     hashPair(sch.hash, vk0, vk1),
				period: period,
			},
			compactScheme: sch,
		}, nil
	default:
		return nil, ErrNotSerializable
	}
}

// deserializeHalves splits one Sum level of the raw layout and rebuilds the
// live child. Before the midpoint the child bytes are the left subtree and
// the seed slot holds the unexpanded right seed; after it the child bytes
// are the right subtree and the slot is dead.
func deserializeHalves(child internalScheme, raw []byte, period uint64) (SigningKey, *seed.Seed, []byte, []byte, error) {
	skSize := child.SigningKeySize()
	vkSize := child.VerificationKeySize()
	childRaw := raw[:skSize]
	seedRaw := raw[skSize : skSize+seed.Size]
	vk0 := append([]byte(nil), raw[skSize+seed.Size:skSize+seed.Size+vkSize]...)
	vk1 := append([]byte(nil), raw[skSize+seed.Size+vkSize:]...)

	tHalf := child.TotalPeriods()
	if period < tHalf {
		ck, err := deserializeKey(child, childRaw, period)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		r1, err := seed.New(seedRaw)
		if err != nil {
			ck.Free()
			return nil, nil, nil, nil, err
		}
		return ck, r1, vk0, vk1, nil
	}
	ck, err := deserializeKey(child, childRaw, period-tHalf)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return ck, nil, vk0, vk1, nil
}

func (k *singleSigningKey) unsoundBytes() ([]byte, error) {
	return leafSeedBytes(k.inner, k.freed, k.expired)
}

func (k *compactSingleSigningKey) unsoundBytes() ([]byte, error) {
	return leafSeedBytes(k.inner, k.freed, k.expired)
}

func leafSeedBytes(inner dsign.SigningKey, freed, expired bool) ([]byte, error) {
	if freed {
		return nil, ErrKeyFreed
	}
	if expired {
		return nil, ErrKeyExpired
	}
	exp, ok := inner.(dsign.UnsoundSeedExporter)
	if !ok {
		return nil, ErrNotSerializable
	}
	return exp.UnsoundSeedBytes()
}

func (k *sumSigningKey) unsoundBytes() ([]byte, error) {
	if k.freed {
		return nil, ErrKeyFreed
	}
	if k.child == nil {
		return nil, ErrKeyExpired
	}
	cu, ok := k.child.(unsoundSerializer)
	if !ok {
		return nil, ErrNotSerializable
	}
	childRaw, err := cu.unsoundBytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(childRaw)+seed.Size+len(k.vk0)+len(k.vk1))
	out = append(out, childRaw...)
	if k.r1 != nil {
		out = append(out, k.r1.Bytes()...)
	} else {
		out = append(out, make([]byte, seed.Size)...)
	}
	out = append(out, k.vk0...)
	out = append(out, k.vk1...)
	return out, nil
}
