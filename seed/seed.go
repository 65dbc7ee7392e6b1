// Package seed provides fixed-size secret seeds for key generation.
//
// A Seed owns exactly Size bytes of locked memory. Seeds are single-use by
// convention: key generation consumes the seed bytes and the owner calls
// Free afterwards. Deterministic derivation from larger entropy pools goes
// through HKDF with an explicit context string so different subsystems can
// never collide on the same seed.
package seed

import (
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/ouroboros-crypto/praos/memlock"
)

// Size is the seed length in bytes. Every key-generation entry point in this
// module consumes exactly one seed of this size.
const Size = 32

var (
	// ErrWrongSize is returned when seed material is not exactly Size bytes.
	ErrWrongSize = errors.New("seed: material must be exactly 32 bytes")
	// ErrEmptyEntropy is returned when derivation input is empty.
	ErrEmptyEntropy = errors.New("seed: entropy must not be empty")
)

// Seed is 32 bytes of secret key-generation material held in locked memory.
type Seed struct {
	buf *memlock.Buffer
}

// New wraps a copy of material in a locked seed. The caller keeps ownership
// of material and should wipe it.
func New(material []byte) (*Seed, error) {
	if len(material) != Size {
		return nil, ErrWrongSize
	}
	buf, err := memlock.FromBytes(material)
	if err != nil {
		return nil, err
	}
	return &Seed{buf: buf}, nil
}

// FromSystemEntropy draws a fresh seed from the operating system RNG.
func FromSystemEntropy() (*Seed, error) {
	buf, err := memlock.New(Size)
	if err != nil {
		return nil, err
	}
	if _, err := rand.Read(buf.Bytes()); err != nil {
		buf.Free()
		return nil, fmt.Errorf("seed: reading system entropy: %w", err)
	}
	return &Seed{buf: buf}, nil
}

// FromEntropy derives a seed deterministically from arbitrary entropy using
// HKDF-SHA-512. The context string domain-separates independent consumers:
// the same entropy with different contexts yields unrelated seeds.
func FromEntropy(entropy []byte, context string) (*Seed, error) {
	if len(entropy) == 0 {
		return nil, ErrEmptyEntropy
	}
	buf, err := memlock.New(Size)
	if err != nil {
		return nil, err
	}
	r := hkdf.New(sha512.New, entropy, []byte("praos-seed-v1"), []byte(context))
	if _, err := io.ReadFull(r, buf.Bytes()); err != nil {
		buf.Free()
		return nil, fmt.Errorf("seed: deriving from entropy: %w", err)
	}
	return &Seed{buf: buf}, nil
}

// Bytes exposes the seed material. The slice aliases locked memory and is
// invalid after Free.
func (s *Seed) Bytes() []byte { return s.buf.Bytes() }

// Clone returns an independent copy of the seed in its own locked buffer.
func (s *Seed) Clone() (*Seed, error) {
	return New(s.buf.Bytes())
}

// Free wipes and releases the seed.
func (s *Seed) Free() { s.buf.Free() }
