//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Package engine implements the per-gate operation backends shared by
// the streaming executor: cleartext execution, garbling, and
// evaluation. Garbling uses free XOR with privacy-free half gates, so
// only AND gates carry cryptographic material: one 16-byte ciphertext
// each.
package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Label is a 128-bit wire label. Under free XOR a wire's true label
// is its false label XORed with the global delta.
type Label [16]byte

// Ciphertext is the 16-byte garbled-gate material emitted per AND
// gate.
type Ciphertext [16]byte

// Public constant labels for the false and true constant wires.
var (
	LabelZero = Label{
		0x62, 0x62, 0x62, 0x62, 0x62, 0x62, 0x62, 0x62,
		0x62, 0x62, 0x62, 0x62, 0x62, 0x62, 0x62, 0x62,
	}
	LabelOne = Label{
		0x19, 0x19, 0x19, 0x19, 0x19, 0x19, 0x19, 0x19,
		0x19, 0x19, 0x19, 0x19, 0x19, 0x19, 0x19, 0x19,
	}
)

// Xor returns the bitwise XOR of two labels.
func (l Label) Xor(o Label) Label {
	var out Label
	for i := range l {
		out[i] = l[i] ^ o[i]
	}
	return out
}

func (l Label) String() string {
	return hex.EncodeToString(l[:])
}

// hashKey is the fixed AES-128 key of the gate hash (the FIPS-197
// appendix A.1 key). The hash needs no secrecy, only a fixed
// pseudorandom permutation every party computes identically.
var hashKey = [16]byte{
	0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
	0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c,
}

// Hasher computes the tweakable circular correlation-robust gate
// hash H(x, t) = AES(AES(x) ⊕ t) ⊕ AES(x) under the fixed key. The
// stdlib cipher dispatches to AES-NI or the NEON crypto extensions at
// construction, so the function is both hardware-accelerated and
// bit-identical across architectures.
type Hasher struct {
	block cipher.Block
}

// NewHasher creates the fixed-key gate hasher.
func NewHasher() *Hasher {
	block, err := aes.NewCipher(hashKey[:])
	if err != nil {
		// Only reachable with a malformed key length.
		panic(fmt.Sprintf("aes: %v", err))
	}
	return &Hasher{block: block}
}

// Hash computes H(x, t) with the gate counter as tweak. The counter
// occupies the low 8 bytes of the tweak block, little endian.
func (h *Hasher) Hash(x Label, tweak uint64) Label {
	var ax, t Label
	h.block.Encrypt(ax[:], x[:])

	binary.LittleEndian.PutUint64(t[:8], tweak)
	t = t.Xor(ax)

	var out Label
	h.block.Encrypt(out[:], t[:])
	return out.Xor(ax)
}

// ExpandSeed derives the global delta and one false label per primary
// input from a 32-byte seed, using the ChaCha20 keystream with a zero
// nonce. The derivation is deterministic: garbler restarts from the
// same seed reproduce the same circuit.
func ExpandSeed(seed [32]byte, numInputs int) (delta Label, labels []Label, err error) {
	c, err := chacha20.NewUnauthenticatedCipher(seed[:],
		make([]byte, chacha20.NonceSize))
	if err != nil {
		return Label{}, nil, err
	}

	buf := make([]byte, 16*(numInputs+1))
	c.XORKeyStream(buf, buf)

	copy(delta[:], buf[:16])
	labels = make([]Label, numInputs)
	for i := range labels {
		copy(labels[i][:], buf[16*(i+1):])
	}
	return delta, labels, nil
}

// Encode selects the input labels matching an input assignment: the
// false label when the bit is clear, the false label XOR delta when
// set.
func Encode(values []bool, falseLabels []Label, delta Label) ([]Label, error) {
	if len(values) != len(falseLabels) {
		return nil, fmt.Errorf("encoding %d values with %d labels",
			len(values), len(falseLabels))
	}
	selected := make([]Label, len(values))
	for i, bit := range values {
		if bit {
			selected[i] = falseLabels[i].Xor(delta)
		} else {
			selected[i] = falseLabels[i]
		}
	}
	return selected, nil
}
