package vrf

import (
	"crypto/sha512"
	"crypto/subtle"

	"filippo.io/edwards25519"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

// Proof13Size is the draft-13 batch-compatible proof length:
// Gamma (32) || k*B (32) || k*H (32) || s (32). Exposing the verifier's U
// and V points instead of the challenge lets many proofs share one
// multiscalar verification pass.
const Proof13Size = 128

// draft13DST is the expand_message_xmd domain separation tag, the RFC 9380
// nonuniform Elligator2 suite identifier with the VRF suite byte appended.
const draft13DST = "ECVRF_edwards25519_XMD:SHA-512_ELL2_NU_\x04"

type draft13 struct{}

func (draft13) Name() string   { return "ietfdraft13" }
func (draft13) ProofSize() int { return Proof13Size }

func (v draft13) GenerateKey(s *seed.Seed) (*SigningKey, error) {
	return newSigningKey(v, s)
}

func (v draft13) prove(k *SigningKey, alpha []byte) ([]byte, []byte, error) {
	x, z := expandSeed(k.seed.Bytes())
	defer memlock.Wipe(z)

	H, hBytes, err := v.hashToCurve(k.vk, alpha)
	if err != nil {
		return nil, nil, err
	}

	Gamma := (&edwards25519.Point{}).ScalarMult(x, H)

	nonce := nonceScalar(z, hBytes)
	kB := (&edwards25519.Point{}).ScalarBaseMult(nonce)
	kH := (&edwards25519.Point{}).ScalarMult(nonce, H)

	gammaBytes := Gamma.Bytes()
	kBBytes := kB.Bytes()
	kHBytes := kH.Bytes()

	c := challengeScalar(v.challenge(k.vk, hBytes, gammaBytes, kBBytes, kHBytes))
	s := edwards25519.NewScalar().MultiplyAdd(c, x, nonce)

	proof := make([]byte, 0, Proof13Size)
	proof = append(proof, gammaBytes...)
	proof = append(proof, kBBytes...)
	proof = append(proof, kHBytes...)
	proof = append(proof, s.Bytes()...)

	output, err := v.ProofToOutput(proof)
	if err != nil {
		return nil, nil, err
	}
	return proof, output, nil
}

func (v draft13) Verify(vk, alpha, proof []byte) ([]byte, error) {
	Y, err := decodeVerificationKey(vk)
	if err != nil {
		return nil, err
	}
	Gamma, kBBytes, kHBytes, s, err := v.decodeProof(proof)
	if err != nil {
		return nil, err
	}

	H, hBytes, err := v.hashToCurve(vk, alpha)
	if err != nil {
		return nil, err
	}

	c := challengeScalar(v.challenge(vk, hBytes, proof[:32], kBBytes, kHBytes))

	// The proof commits to U = k*B and V = k*H; verification recomputes
	// them as U = s*B - c*Y and V = s*H - c*Gamma and compares encodings.
	U := (&edwards25519.Point{}).ScalarBaseMult(s)
	U.Subtract(U, (&edwards25519.Point{}).ScalarMult(c, Y))
	V := (&edwards25519.Point{}).ScalarMult(s, H)
	V.Subtract(V, (&edwards25519.Point{}).ScalarMult(c, Gamma))

	ok := subtle.ConstantTimeCompare(U.Bytes(), kBBytes) &
		subtle.ConstantTimeCompare(V.Bytes(), kHBytes)
	if ok != 1 {
		return nil, ErrVerificationFailed
	}
	return v.ProofToOutput(proof)
}

func (v draft13) ProofToOutput(proof []byte) ([]byte, error) {
	Gamma, _, _, _, err := v.decodeProof(proof)
	if err != nil {
		return nil, err
	}
	var in [2 + 32 + 1]byte
	in[0] = suite
	in[1] = tagOutput
	Gamma.MultByCofactor(Gamma)
	copy(in[2:34], Gamma.Bytes())
	in[34] = 0x00
	out := sha512.Sum512(in[:])
	return out[:], nil
}

// hashToCurve computes H with the RFC 9380 nonuniform Elligator2 encoding:
// 48 bytes of expand_message_xmd(SHA-512) output interpreted as a big-endian
// field element, mapped through Elligator2 and cofactor-cleared.
func (draft13) hashToCurve(vk, alpha []byte) (*edwards25519.Point, []byte, error) {
	msg := make([]byte, 0, len(vk)+len(alpha))
	msg = append(msg, vk...)
	msg = append(msg, alpha...)
	expanded := expandMessageXMD([]byte(draft13DST), msg, 48)

	// Reverse into a little-endian 64-byte buffer; the upper 16 bytes
	// stay zero.
	wide := make([]byte, 64)
	for i := 0; i < 48; i++ {
		wide[i] = expanded[47-i]
	}
	return pointFromWideHash(wide)
}

// challenge computes the 16-byte truncated challenge. Unlike draft-03 the
// transcript starts with the verification key and ends with a zero byte.
func (draft13) challenge(vk, h, gamma, u, vPoint []byte) []byte {
	hs := sha512.New()
	hs.Write([]byte{suite, tagChallenge})
	hs.Write(vk)
	hs.Write(h)
	hs.Write(gamma)
	hs.Write(u)
	hs.Write(vPoint)
	hs.Write([]byte{0x00})
	return hs.Sum(nil)[:16]
}

func (draft13) decodeProof(proof []byte) (*edwards25519.Point, []byte, []byte, *edwards25519.Scalar, error) {
	if len(proof) != Proof13Size {
		return nil, nil, nil, nil, ErrInvalidProof
	}
	Gamma := &edwards25519.Point{}
	if _, err := Gamma.SetBytes(proof[:32]); err != nil {
		return nil, nil, nil, nil, ErrInvalidProof
	}
	s := edwards25519.NewScalar()
	if _, err := s.SetCanonicalBytes(proof[96:]); err != nil {
		return nil, nil, nil, nil, ErrInvalidProof
	}
	return Gamma, proof[32:64], proof[64:96], s, nil
}

// expandMessageXMD is expand_message_xmd from RFC 9380 section 5.3.1,
// instantiated with SHA-512, for output lengths up to 255 bytes.
func expandMessageXMD(dst, msg []byte, outLen int) []byte {
	const blockSize = 128

	h := sha512.New()
	h.Write(make([]byte, blockSize))
	h.Write(msg)
	h.Write([]byte{0x00, byte(outLen), 0x00})
	h.Write(dst)
	h.Write([]byte{byte(len(dst))})
	b0 := h.Sum(nil)

	out := make([]byte, 0, outLen)
	var ux [sha512.Size]byte
	counter := byte(0)
	for len(out) < outLen {
		for i := range ux {
			ux[i] ^= b0[i]
		}
		counter++
		round := sha512.New()
		round.Write(ux[:])
		round.Write([]byte{counter})
		round.Write(dst)
		round.Write([]byte{byte(len(dst))})
		copy(ux[:], round.Sum(nil))

		chunk := outLen - len(out)
		if chunk > len(ux) {
			chunk = len(ux)
		}
		out = append(out, ux[:chunk]...)
	}
	return out
}
