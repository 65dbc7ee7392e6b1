package vrf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/ouroboros-crypto/praos/seed"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex in test: %v", err)
	}
	return b
}

func keyFromSeedBytes(t *testing.T, v VRF, seedBytes []byte) *SigningKey {
	t.Helper()
	sd, err := seed.New(seedBytes)
	if err != nil {
		t.Fatalf("seed.New: %v", err)
	}
	defer sd.Free()
	sk, err := v.GenerateKey(sd)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return sk
}

// Vectors from the IETF draft test suites as used by the Cardano libsodium
// fork: an all-zero seed with a one-byte message, and RFC 8032 test key 1
// with an empty message.
func TestDraft03KnownVector(t *testing.T) {
	sk := keyFromSeedBytes(t, Draft03, make([]byte, SeedSize))
	defer sk.Free()

	wantVK := mustHex(t, "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29")
	if !bytes.Equal(sk.VerificationKey(), wantVK) {
		t.Fatalf("verification key:\n got %x\nwant %x", sk.VerificationKey(), wantVK)
	}

	alpha := []byte{0x00}
	wantProof := mustHex(t, "000f006e64c91f84212919fe0899970cd341206fc081fe599339c8492e2cea3299ae9de4b6ce21cda0a975f65f45b70f82b3952ba6d0dbe11a06716e67aca233c0d78f115a655aa1952ada9f3d692a0a")
	wantOutput := mustHex(t, "9930b5dddc0938f01cf6f9746eded569ee676bd6ff3b4f19233d74b903ec53a45c5728116088b7c622b6d6c354f7125c7d09870b56ec6f1e4bf4970f607e04b2")

	proof, output, err := sk.Prove(alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !bytes.Equal(proof, wantProof) {
		t.Fatalf("proof:\n got %x\nwant %x", proof, wantProof)
	}
	if !bytes.Equal(output, wantOutput) {
		t.Fatalf("output:\n got %x\nwant %x", output, wantOutput)
	}

	verified, err := Draft03.Verify(sk.VerificationKey(), alpha, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !bytes.Equal(verified, wantOutput) {
		t.Fatalf("verified output:\n got %x\nwant %x", verified, wantOutput)
	}
}

func TestDraft13KnownVectorGenerated(t *testing.T) {
	sk := keyFromSeedBytes(t, Draft13, make([]byte, SeedSize))
	defer sk.Free()

	alpha := []byte{0x00}
	wantProof := mustHex(t, "93d70c5ed59ccb21ca9991be561756939ff9753bf85764d2a7b937d6fbf9183443cd118bee8a0f61e8bdc5403c03d6c94ead31956e98bfd6a5e02d3be5900d17a540852d586f0891caed3e3b0e0871d6a741fb0edcdb586f7f10252f79c35176474ece4936e0190b5167832c10712884ad12acdfff2e434aacb165e1f789660f")
	wantOutput := mustHex(t, "9a4d34f87003412e413ca42feba3b6158bdf11db41c2bbde98961c5865400cfdee07149b928b376db365c5d68459378b0981f1cb0510f1e0c194c4a17603d44d")

	proof, output, err := sk.Prove(alpha)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !bytes.Equal(proof, wantProof) {
		t.Fatalf("proof:\n got %x\nwant %x", proof, wantProof)
	}
	if !bytes.Equal(output, wantOutput) {
		t.Fatalf("output:\n got %x\nwant %x", output, wantOutput)
	}

	verified, err := Draft13.Verify(sk.VerificationKey(), alpha, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !bytes.Equal(verified, wantOutput) {
		t.Fatalf("verified output mismatch")
	}
}

func TestDraft13KnownVectorStandard10(t *testing.T) {
	seedBytes := mustHex(t, "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	sk := keyFromSeedBytes(t, Draft13, seedBytes)
	defer sk.Free()

	wantVK := mustHex(t, "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a")
	if !bytes.Equal(sk.VerificationKey(), wantVK) {
		t.Fatalf("verification key:\n got %x\nwant %x", sk.VerificationKey(), wantVK)
	}

	wantProof := mustHex(t, "7d9c633ffeee27349264cf5c667579fc583b4bda63ab71d001f89c10003ab46f762f5c178b68f0cddcc1157918edf45ec334ac8e8286601a3256c3bbf858edd94652eba1c4612e6fce762977a59420b451e12964adbe4fbecd58a7aeff5860afcafa73589b023d14311c331a9ad15ff2fb37831e00f0acaa6d73bc9997b06501")
	wantOutput := mustHex(t, "9d574bf9b8302ec0fc1e21c3ec5368269527b87b462ce36dab2d14ccf80c53cccf6758f058c5b1c856b116388152bbe509ee3b9ecfe63d93c3b4346c1fbc6c54")

	proof, output, err := sk.Prove(nil)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if !bytes.Equal(proof, wantProof) {
		t.Fatalf("proof:\n got %x\nwant %x", proof, wantProof)
	}
	if !bytes.Equal(output, wantOutput) {
		t.Fatalf("output:\n got %x\nwant %x", output, wantOutput)
	}
}

func TestRoundTripBothVariants(t *testing.T) {
	for _, v := range []VRF{Draft03, Draft13} {
		t.Run(v.Name(), func(t *testing.T) {
			sd, err := seed.FromEntropy([]byte("vrf round trip"), v.Name())
			if err != nil {
				t.Fatalf("seed.FromEntropy: %v", err)
			}
			defer sd.Free()
			sk, err := v.GenerateKey(sd)
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			defer sk.Free()

			for _, alpha := range [][]byte{nil, {}, []byte("a"), bytes.Repeat([]byte{0xff}, 100)} {
				proof, output, err := sk.Prove(alpha)
				if err != nil {
					t.Fatalf("Prove(%x): %v", alpha, err)
				}
				if len(proof) != v.ProofSize() {
					t.Fatalf("proof is %d bytes, want %d", len(proof), v.ProofSize())
				}
				if len(output) != OutputSize {
					t.Fatalf("output is %d bytes, want %d", len(output), OutputSize)
				}
				verified, err := v.Verify(sk.VerificationKey(), alpha, proof)
				if err != nil {
					t.Fatalf("Verify(%x): %v", alpha, err)
				}
				if !bytes.Equal(verified, output) {
					t.Fatal("Verify output differs from Prove output")
				}
				fromProof, err := v.ProofToOutput(proof)
				if err != nil {
					t.Fatalf("ProofToOutput: %v", err)
				}
				if !bytes.Equal(fromProof, output) {
					t.Fatal("ProofToOutput differs from Prove output")
				}
			}
		})
	}
}

func TestProveIsDeterministic(t *testing.T) {
	for _, v := range []VRF{Draft03, Draft13} {
		t.Run(v.Name(), func(t *testing.T) {
			sk := keyFromSeedBytes(t, v, bytes.Repeat([]byte{7}, SeedSize))
			defer sk.Free()
			p1, o1, err := sk.Prove([]byte("alpha"))
			if err != nil {
				t.Fatalf("Prove: %v", err)
			}
			p2, o2, err := sk.Prove([]byte("alpha"))
			if err != nil {
				t.Fatalf("Prove: %v", err)
			}
			if !bytes.Equal(p1, p2) || !bytes.Equal(o1, o2) {
				t.Fatal("proving the same message twice gave different results")
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	for _, v := range []VRF{Draft03, Draft13} {
		t.Run(v.Name(), func(t *testing.T) {
			sk := keyFromSeedBytes(t, v, bytes.Repeat([]byte{9}, SeedSize))
			defer sk.Free()

			alpha := []byte("leader election input")
			proof, _, err := sk.Prove(alpha)
			if err != nil {
				t.Fatalf("Prove: %v", err)
			}
			vk := sk.VerificationKey()

			if _, err := v.Verify(vk, []byte("different input"), proof); err == nil {
				t.Fatal("proof verified for a different message")
			}
			for _, pos := range []int{0, 33, v.ProofSize() - 1} {
				bad := append([]byte(nil), proof...)
				bad[pos] ^= 0x01
				if _, err := v.Verify(vk, alpha, bad); err == nil {
					t.Fatalf("proof verified with bit flipped at byte %d", pos)
				}
			}
			otherKey := keyFromSeedBytes(t, v, bytes.Repeat([]byte{10}, SeedSize))
			defer otherKey.Free()
			if _, err := v.Verify(otherKey.VerificationKey(), alpha, proof); err == nil {
				t.Fatal("proof verified under a different key")
			}
		})
	}
}

func TestVerifyRejectsNonCanonicalScalar(t *testing.T) {
	for _, v := range []VRF{Draft03, Draft13} {
		t.Run(v.Name(), func(t *testing.T) {
			sk := keyFromSeedBytes(t, v, bytes.Repeat([]byte{3}, SeedSize))
			defer sk.Free()
			proof, _, err := sk.Prove([]byte("msg"))
			if err != nil {
				t.Fatalf("Prove: %v", err)
			}
			// Force the trailing scalar above the group order.
			bad := append([]byte(nil), proof...)
			for i := len(bad) - 32; i < len(bad); i++ {
				bad[i] = 0xff
			}
			if _, err := v.Verify(sk.VerificationKey(), []byte("msg"), bad); !errors.Is(err, ErrInvalidProof) {
				t.Fatalf("non-canonical s: got %v, want ErrInvalidProof", err)
			}
		})
	}
}

func TestVerifyRejectsBadInputs(t *testing.T) {
	for _, v := range []VRF{Draft03, Draft13} {
		t.Run(v.Name(), func(t *testing.T) {
			sk := keyFromSeedBytes(t, v, bytes.Repeat([]byte{4}, SeedSize))
			defer sk.Free()
			proof, _, err := sk.Prove(nil)
			if err != nil {
				t.Fatalf("Prove: %v", err)
			}

			if _, err := v.Verify(sk.VerificationKey()[:16], nil, proof); !errors.Is(err, ErrInvalidVerificationKey) {
				t.Fatalf("short vk: got %v, want ErrInvalidVerificationKey", err)
			}
			if _, err := v.Verify(sk.VerificationKey(), nil, proof[:10]); !errors.Is(err, ErrInvalidProof) {
				t.Fatalf("short proof: got %v, want ErrInvalidProof", err)
			}
			// The identity is a small-order point and must be rejected as
			// a key.
			identity := make([]byte, VerificationKeySize)
			identity[0] = 0x01
			if _, err := v.Verify(identity, nil, proof); !errors.Is(err, ErrInvalidVerificationKey) {
				t.Fatalf("small-order vk: got %v, want ErrInvalidVerificationKey", err)
			}
		})
	}
}

func TestVariantsAreNotInterchangeable(t *testing.T) {
	seedBytes := bytes.Repeat([]byte{5}, SeedSize)
	sk03 := keyFromSeedBytes(t, Draft03, seedBytes)
	defer sk03.Free()
	sk13 := keyFromSeedBytes(t, Draft13, seedBytes)
	defer sk13.Free()

	// One seed, one keypair, two proof formats.
	if !bytes.Equal(sk03.VerificationKey(), sk13.VerificationKey()) {
		t.Fatal("variants derived different keys from one seed")
	}
	p03, _, err := sk03.Prove([]byte("msg"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if _, err := Draft13.Verify(sk13.VerificationKey(), []byte("msg"), p03); err == nil {
		t.Fatal("draft-13 verifier accepted a draft-03 proof")
	}
}

func TestProveAfterFree(t *testing.T) {
	sk := keyFromSeedBytes(t, Draft03, bytes.Repeat([]byte{6}, SeedSize))
	sk.Free()
	if _, _, err := sk.Prove([]byte("msg")); !errors.Is(err, ErrKeyFreed) {
		t.Fatalf("Prove after Free: got %v, want ErrKeyFreed", err)
	}
}

func TestSlotInput(t *testing.T) {
	nonce := bytes.Repeat([]byte{0xab}, NonceSize)

	in1, err := SlotInput(42, nonce)
	if err != nil {
		t.Fatalf("SlotInput: %v", err)
	}
	if len(in1) != 32 {
		t.Fatalf("input is %d bytes, want 32", len(in1))
	}
	in2, err := SlotInput(42, nonce)
	if err != nil {
		t.Fatalf("SlotInput: %v", err)
	}
	if !bytes.Equal(in1, in2) {
		t.Fatal("same slot and nonce gave different inputs")
	}
	in3, err := SlotInput(43, nonce)
	if err != nil {
		t.Fatalf("SlotInput: %v", err)
	}
	if bytes.Equal(in1, in3) {
		t.Fatal("different slots gave the same input")
	}
	if _, err := SlotInput(42, nonce[:31]); !errors.Is(err, ErrInvalidNonce) {
		t.Fatalf("short nonce: got %v, want ErrInvalidNonce", err)
	}
}
