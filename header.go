//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package ckt

import (
	"encoding/binary"
	"fmt"
)

// File format identification.
const (
	// Version is the circuit file format version.
	Version = 0x01

	// FormatSparse identifies the sparse (wire-ID + credits) layout.
	FormatSparse = 0x00

	// FormatDense identifies the dense (memory-address) layout.
	FormatDense = 0x02

	// SparseHeaderSize is the encoded size of a sparse header.
	SparseHeaderSize = 72

	// DenseHeaderSize is the encoded size of a dense header.
	DenseHeaderSize = 88

	// ChecksumSize is the size of the BLAKE2b-256 content checksum.
	ChecksumSize = 32
)

// Magic identifies circuit files.
var Magic = [4]byte{'C', 'k', 't', '1'}

// Header holds circuit-level metadata. ScratchSpace is only present
// in the dense encoding; it is zero for sparse headers.
type Header struct {
	Format        byte
	Checksum      [ChecksumSize]byte
	XORGates      uint64
	ANDGates      uint64
	PrimaryInputs uint64
	ScratchSpace  uint64
	NumOutputs    uint64
}

// TotalGates returns the total gate count.
func (h *Header) TotalGates() uint64 {
	return h.XORGates + h.ANDGates
}

// Validate checks header invariants common to both formats.
func (h *Header) Validate() error {
	switch h.Format {
	case FormatSparse:
		if h.ScratchSpace != 0 {
			return fmt.Errorf("sparse header has scratch space %d",
				h.ScratchSpace)
		}
	case FormatDense:
		if h.ScratchSpace > MaxMemoryAddress {
			return fmt.Errorf(
				"scratch space %d exceeds maximum addressable memory %d",
				h.ScratchSpace, MaxMemoryAddress)
		}
	default:
		return fmt.Errorf("invalid format type 0x%02x", h.Format)
	}
	if h.XORGates > h.XORGates+h.ANDGates {
		return fmt.Errorf("gate count overflow")
	}
	return nil
}

// MarshalSparse encodes a sparse header.
//
// Layout: magic(4) version(1) format(1) reserved(2) checksum(32)
// xorGates(8) andGates(8) primaryInputs(8) numOutputs(8).
func (h *Header) MarshalSparse() []byte {
	buf := make([]byte, SparseHeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = Version
	buf[5] = FormatSparse
	copy(buf[8:40], h.Checksum[:])
	binary.LittleEndian.PutUint64(buf[40:48], h.XORGates)
	binary.LittleEndian.PutUint64(buf[48:56], h.ANDGates)
	binary.LittleEndian.PutUint64(buf[56:64], h.PrimaryInputs)
	binary.LittleEndian.PutUint64(buf[64:72], h.NumOutputs)
	return buf
}

// MarshalDense encodes a dense header.
//
// Layout: magic(4) version(1) format(1) reserved(4) checksum(32)
// xorGates(8) andGates(8) primaryInputs(8) scratchSpace(8)
// numOutputs(8) reserved(6).
func (h *Header) MarshalDense() []byte {
	buf := make([]byte, DenseHeaderSize)
	copy(buf[0:4], Magic[:])
	buf[4] = Version
	buf[5] = FormatDense
	copy(buf[10:42], h.Checksum[:])
	binary.LittleEndian.PutUint64(buf[42:50], h.XORGates)
	binary.LittleEndian.PutUint64(buf[50:58], h.ANDGates)
	binary.LittleEndian.PutUint64(buf[58:66], h.PrimaryInputs)
	binary.LittleEndian.PutUint64(buf[66:74], h.ScratchSpace)
	binary.LittleEndian.PutUint64(buf[74:82], h.NumOutputs)
	return buf
}

// ParseSparseHeader decodes and validates a sparse header.
func ParseSparseHeader(buf []byte) (*Header, error) {
	if len(buf) < SparseHeaderSize {
		return nil, fmt.Errorf("truncated sparse header: %d bytes", len(buf))
	}
	if err := checkMagic(buf, FormatSparse); err != nil {
		return nil, err
	}
	h := &Header{
		Format:        FormatSparse,
		XORGates:      binary.LittleEndian.Uint64(buf[40:48]),
		ANDGates:      binary.LittleEndian.Uint64(buf[48:56]),
		PrimaryInputs: binary.LittleEndian.Uint64(buf[56:64]),
		NumOutputs:    binary.LittleEndian.Uint64(buf[64:72]),
	}
	copy(h.Checksum[:], buf[8:40])
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// ParseDenseHeader decodes and validates a dense header.
func ParseDenseHeader(buf []byte) (*Header, error) {
	if len(buf) < DenseHeaderSize {
		return nil, fmt.Errorf("truncated dense header: %d bytes", len(buf))
	}
	if err := checkMagic(buf, FormatDense); err != nil {
		return nil, err
	}
	h := &Header{
		Format:        FormatDense,
		XORGates:      binary.LittleEndian.Uint64(buf[42:50]),
		ANDGates:      binary.LittleEndian.Uint64(buf[50:58]),
		PrimaryInputs: binary.LittleEndian.Uint64(buf[58:66]),
		ScratchSpace:  binary.LittleEndian.Uint64(buf[66:74]),
		NumOutputs:    binary.LittleEndian.Uint64(buf[74:82]),
	}
	copy(h.Checksum[:], buf[10:42])
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func checkMagic(buf []byte, format byte) error {
	if buf[0] != Magic[0] || buf[1] != Magic[1] ||
		buf[2] != Magic[2] || buf[3] != Magic[3] {
		return fmt.Errorf("invalid magic %q", buf[0:4])
	}
	if buf[4] != Version {
		return fmt.Errorf("invalid version 0x%02x, expected 0x%02x",
			buf[4], Version)
	}
	if buf[5] != format {
		return fmt.Errorf("invalid format type 0x%02x, expected 0x%02x",
			buf[5], format)
	}
	return nil
}

func (h *Header) String() string {
	return fmt.Sprintf("#gates=%d (XOR=%d AND=%d) #in=%d #out=%d scratch=%d",
		h.TotalGates(), h.XORGates, h.ANDGates, h.PrimaryInputs,
		h.NumOutputs, h.ScratchSpace)
}
