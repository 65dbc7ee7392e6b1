package vrf

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// NonceSize is the epoch nonce length consumed by SlotInput.
const NonceSize = 32

// ErrInvalidNonce is returned when the epoch nonce is not 32 bytes.
var ErrInvalidNonce = errors.New("vrf: epoch nonce must be 32 bytes")

// SlotInput derives the VRF input for leader election at a slot:
// Blake2b-256 over the big-endian slot number concatenated with the epoch
// nonce.
func SlotInput(slot uint64, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	buf := make([]byte, 8+NonceSize)
	binary.BigEndian.PutUint64(buf[:8], slot)
	copy(buf[8:], nonce)
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	h.Write(buf)
	return h.Sum(nil), nil
}
