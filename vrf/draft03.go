package vrf

import (
	"crypto/sha512"
	"crypto/subtle"

	"filippo.io/edwards25519"

	"github.com/ouroboros-crypto/praos/memlock"
	"github.com/ouroboros-crypto/praos/seed"
)

// Proof03Size is the draft-03 proof length: Gamma (32) || c (16) || s (32).
const Proof03Size = 80

type draft03 struct{}

func (draft03) Name() string   { return "ietfdraft03" }
func (draft03) ProofSize() int { return Proof03Size }

func (v draft03) GenerateKey(s *seed.Seed) (*SigningKey, error) {
	return newSigningKey(v, s)
}

func (v draft03) prove(k *SigningKey, alpha []byte) ([]byte, []byte, error) {
	x, z := expandSeed(k.seed.Bytes())
	defer memlock.Wipe(z)

	H, err := v.hashToCurve(k.vk, alpha)
	if err != nil {
		return nil, nil, err
	}
	hBytes := H.Bytes()

	Gamma := (&edwards25519.Point{}).ScalarMult(x, H)

	nonce := nonceScalar(z, hBytes)
	kB := (&edwards25519.Point{}).ScalarBaseMult(nonce)
	kH := (&edwards25519.Point{}).ScalarMult(nonce, H)

	c16 := v.challenge(hBytes, Gamma.Bytes(), kB.Bytes(), kH.Bytes())
	c := challengeScalar(c16)

	// s = k + c*x mod L
	s := edwards25519.NewScalar().MultiplyAdd(c, x, nonce)

	proof := make([]byte, 0, Proof03Size)
	proof = append(proof, Gamma.Bytes()...)
	proof = append(proof, c16...)
	proof = append(proof, s.Bytes()...)

	output, err := v.ProofToOutput(proof)
	if err != nil {
		return nil, nil, err
	}
	return proof, output, nil
}

func (v draft03) Verify(vk, alpha, proof []byte) ([]byte, error) {
	Y, err := decodeVerificationKey(vk)
	if err != nil {
		return nil, err
	}
	Gamma, c16, s, err := v.decodeProof(proof)
	if err != nil {
		return nil, err
	}

	H, err := v.hashToCurve(vk, alpha)
	if err != nil {
		return nil, err
	}

	c := challengeScalar(c16)

	// U = s*B - c*Y, V = s*H - c*Gamma
	U := (&edwards25519.Point{}).ScalarBaseMult(s)
	U.Subtract(U, (&edwards25519.Point{}).ScalarMult(c, Y))
	V := (&edwards25519.Point{}).ScalarMult(s, H)
	V.Subtract(V, (&edwards25519.Point{}).ScalarMult(c, Gamma))

	cPrime := v.challenge(H.Bytes(), Gamma.Bytes(), U.Bytes(), V.Bytes())
	if subtle.ConstantTimeCompare(c16, cPrime) != 1 {
		return nil, ErrVerificationFailed
	}
	return v.ProofToOutput(proof)
}

func (v draft03) ProofToOutput(proof []byte) ([]byte, error) {
	Gamma, _, _, err := v.decodeProof(proof)
	if err != nil {
		return nil, err
	}
	var in [2 + 32]byte
	in[0] = suite
	in[1] = tagOutput
	Gamma.MultByCofactor(Gamma)
	copy(in[2:], Gamma.Bytes())
	out := sha512.Sum512(in[:])
	return out[:], nil
}

// hashToCurve computes H = Elligator2(SHA-512(suite || 0x01 || vk || alpha))
// with the top bit of the digest cleared.
func (draft03) hashToCurve(vk, alpha []byte) (*edwards25519.Point, error) {
	h := sha512.New()
	h.Write([]byte{suite, tagHashToCurve})
	h.Write(vk)
	h.Write(alpha)
	r := h.Sum(nil)
	r[31] &= 0x7f
	return pointFromUniform(r[:32])
}

// challenge computes the 16-byte truncated challenge over the four
// transcript points H, Gamma, U, V.
func (draft03) challenge(h, gamma, u, vPoint []byte) []byte {
	hs := sha512.New()
	hs.Write([]byte{suite, tagChallenge})
	hs.Write(h)
	hs.Write(gamma)
	hs.Write(u)
	hs.Write(vPoint)
	return hs.Sum(nil)[:16]
}

func (draft03) decodeProof(proof []byte) (*edwards25519.Point, []byte, *edwards25519.Scalar, error) {
	if len(proof) != Proof03Size {
		return nil, nil, nil, ErrInvalidProof
	}
	Gamma := &edwards25519.Point{}
	if _, err := Gamma.SetBytes(proof[:32]); err != nil {
		return nil, nil, nil, ErrInvalidProof
	}
	c16 := proof[32:48]
	s := edwards25519.NewScalar()
	// The scalar must be canonical; a reduced-on-parse s would accept
	// mauled proofs.
	if _, err := s.SetCanonicalBytes(proof[48:]); err != nil {
		return nil, nil, nil, ErrInvalidProof
	}
	return Gamma, c16, s, nil
}
