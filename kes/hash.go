package kes

import (
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

// HashAlgorithm selects the hash used by the Sum compositions, both to pair
// child verification keys and to expand one seed into two.
type HashAlgorithm interface {
	Name() string
	Size() int
	New() hash.Hash
}

var (
	// Blake2b256 is the default composition hash: 32-byte verification
	// keys, matching the seed size, so it can serve for seed expansion.
	Blake2b256 HashAlgorithm = blake2bAlgorithm{size: 32, name: "blake2b-256"}
	// Blake2b224 produces 28-byte digests. Too short for seed expansion;
	// used for key hashes on the wire.
	Blake2b224 HashAlgorithm = blake2bAlgorithm{size: 28, name: "blake2b-224"}
	// Blake2b512 produces 64-byte digests.
	Blake2b512 HashAlgorithm = blake2bAlgorithm{size: 64, name: "blake2b-512"}
	// Blake3x256 is BLAKE3 with its default 32-byte output.
	Blake3x256 HashAlgorithm = blake3Algorithm{}
)

type blake2bAlgorithm struct {
	size int
	name string
}

func (a blake2bAlgorithm) Name() string { return a.name }
func (a blake2bAlgorithm) Size() int    { return a.size }
func (a blake2bAlgorithm) New() hash.Hash {
	h, err := blake2b.New(a.size, nil)
	if err != nil {
		// Unkeyed blake2b only fails for invalid sizes, which the
		// fixed constructors rule out.
		panic(fmt.Sprintf("kes: blake2b-%d: %v", a.size*8, err))
	}
	return h
}

type blake3Algorithm struct{}

func (blake3Algorithm) Name() string   { return "blake3-256" }
func (blake3Algorithm) Size() int      { return 32 }
func (blake3Algorithm) New() hash.Hash { return blake3.New() }

// hashPair computes H(left || right), the verification key of a Sum node.
func hashPair(alg HashAlgorithm, left, right []byte) []byte {
	h := alg.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Seed expansion tags. The two halves of a Sum key are derived from the
// parent seed under distinct prefixes so neither leaks the other.
const (
	seedTagLeft  = 0x01
	seedTagRight = 0x02
)

// expandSeed splits one seed into two independent child seeds,
// r0 = H(0x01 || s) and r1 = H(0x02 || s), each truncated to the seed size.
// Digests shorter than a seed cannot expand; NewSum rejects such hashes.
func expandSeed(alg HashAlgorithm, s *seed.Seed) (*seed.Seed, *seed.Seed, error) {
	r0, err := hashSeed(alg, seedTagLeft, s)
	if err != nil {
		return nil, nil, err
	}
	r1, err := hashSeed(alg, seedTagRight, s)
	if err != nil {
		r0.Free()
		return nil, nil, err
	}
	return r0, r1, nil
}

func hashSeed(alg HashAlgorithm, tag byte, s *seed.Seed) (*seed.Seed, error) {
	h := alg.New()
	h.Write([]byte{tag})
	h.Write(s.Bytes())
	digest := h.Sum(nil)
	defer memlock.Wipe(digest)
	return seed.New(digest[:seed.Size])
}
