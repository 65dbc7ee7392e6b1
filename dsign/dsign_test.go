package dsign

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/ouroboros-crypto/praos/seed"
)

func testSeed(t *testing.T, context string) *seed.Seed {
	t.Helper()
	s, err := seed.FromEntropy([]byte("dsign test entropy"), context)
	if err != nil {
		t.Fatalf("seed.FromEntropy: %v", err)
	}
	return s
}

func allAlgorithms() []Algorithm {
	return []Algorithm{Ed25519, EcdsaSecp256k1, SchnorrSecp256k1}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	msg := []byte("block body hash")
	for _, alg := range allAlgorithms() {
		t.Run(alg.Name(), func(t *testing.T) {
			s := testSeed(t, alg.Name())
			defer s.Free()

			sk, err := alg.GenerateKey(s)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			defer sk.Free()

			vk := sk.VerificationKey()
			if len(vk) != alg.VerificationKeySize() {
				t.Fatalf("verification key is %d bytes, want %d", len(vk), alg.VerificationKeySize())
			}

			sig, err := sk.Sign(msg)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if len(sig) != alg.SignatureSize() {
				t.Fatalf("signature is %d bytes, want %d", len(sig), alg.SignatureSize())
			}
			if err := alg.Verify(vk, msg, sig); err != nil {
				t.Fatalf("Verify: %v", err)
			}
		})
	}
}

func TestKeyGenerationIsDeterministic(t *testing.T) {
	for _, alg := range allAlgorithms() {
		t.Run(alg.Name(), func(t *testing.T) {
			s1 := testSeed(t, alg.Name())
			defer s1.Free()
			s2 := testSeed(t, alg.Name())
			defer s2.Free()

			k1, err := alg.GenerateKey(s1)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			defer k1.Free()
			k2, err := alg.GenerateKey(s2)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			defer k2.Free()

			if !bytes.Equal(k1.VerificationKey(), k2.VerificationKey()) {
				t.Fatal("same seed produced different verification keys")
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	msg := []byte("leader election input")
	for _, alg := range allAlgorithms() {
		t.Run(alg.Name(), func(t *testing.T) {
			s := testSeed(t, alg.Name())
			defer s.Free()
			sk, err := alg.GenerateKey(s)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			defer sk.Free()

			sig, err := sk.Sign(msg)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}

			if err := alg.Verify(sk.VerificationKey(), []byte("other message"), sig); err == nil {
				t.Fatal("verification succeeded for a different message")
			}

			bad := make([]byte, len(sig))
			copy(bad, sig)
			bad[10] ^= 0x01
			if err := alg.Verify(sk.VerificationKey(), msg, bad); err == nil {
				t.Fatal("verification succeeded for a corrupted signature")
			}
		})
	}
}

func TestVerifyRejectsWrongSizes(t *testing.T) {
	for _, alg := range allAlgorithms() {
		t.Run(alg.Name(), func(t *testing.T) {
			var sizeErr *SizeError
			err := alg.Verify(make([]byte, alg.VerificationKeySize()+1), nil, make([]byte, alg.SignatureSize()))
			if !errors.As(err, &sizeErr) {
				t.Fatalf("oversized vk: got %v, want SizeError", err)
			}
			err = alg.Verify(make([]byte, alg.VerificationKeySize()), nil, make([]byte, alg.SignatureSize()-1))
			if !errors.As(err, &sizeErr) {
				t.Fatalf("undersized signature: got %v, want SizeError", err)
			}
		})
	}
}

func TestSignAfterFree(t *testing.T) {
	for _, alg := range allAlgorithms() {
		t.Run(alg.Name(), func(t *testing.T) {
			s := testSeed(t, alg.Name())
			defer s.Free()
			sk, err := alg.GenerateKey(s)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			sk.Free()
			if _, err := sk.Sign([]byte("msg")); !errors.Is(err, ErrKeyFreed) {
				t.Fatalf("Sign after Free: got %v, want ErrKeyFreed", err)
			}
		})
	}
}

func TestEcdsaRejectsHighS(t *testing.T) {
	s := testSeed(t, "high-s")
	defer s.Free()
	sk, err := EcdsaSecp256k1.GenerateKey(s)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	defer sk.Free()

	msg := []byte("msg")
	sig, err := sk.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := EcdsaSecp256k1.Verify(sk.VerificationKey(), msg, sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// Every ECDSA signature has an algebraically valid (r, N-s)
	// counterpart; the low-s rule must reject it to keep signatures
	// unique.
	var ss btcec.ModNScalar
	if overflow := ss.SetByteSlice(sig[32:]); overflow {
		t.Fatal("signature s overflows the group order")
	}
	ss.Negate()
	negS := ss.Bytes()
	mauled := make([]byte, len(sig))
	copy(mauled, sig[:32])
	copy(mauled[32:], negS[:])
	if err := EcdsaSecp256k1.Verify(sk.VerificationKey(), msg, mauled); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("high-s signature: got %v, want ErrInvalidSignature", err)
	}
}

func TestCrossSchemeVerificationFails(t *testing.T) {
	s := testSeed(t, "cross")
	defer s.Free()

	edKey, err := Ed25519.GenerateKey(s)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	defer edKey.Free()

	msg := []byte("msg")
	sig, err := edKey.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	// Schnorr keys are 32 bytes like Ed25519 keys; the signature still must
	// not verify under the Schnorr algorithm.
	if err := SchnorrSecp256k1.Verify(edKey.VerificationKey(), msg, sig); err == nil {
		t.Fatal("ed25519 signature verified under schnorr-secp256k1")
	}
}
