//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package ckt

// Dense block geometry. A block is exactly 256 KiB and holds gates in
// execution order as an array of 12-byte records followed by a
// bit-packed gate-type section.
const (
	// BlockSize is the size of a dense block in bytes.
	BlockSize = 256 * 1024

	// GateSize is the size of a single dense gate record: three
	// little-endian uint32 addresses (in1, in2, out).
	GateSize = 12

	// GatesPerBlock is the number of gate records in a full block.
	GatesPerBlock = 21620

	// GatesSize is the size of the gate record section.
	GatesSize = GatesPerBlock * GateSize

	// TypesOffset is the offset of the gate-type bitset in a block.
	TypesOffset = GatesSize

	// TypesSize is the size of the gate-type bitset.
	TypesSize = (GatesPerBlock + 7) / 8

	// BlockPadding pads the block to exactly BlockSize.
	BlockPadding = BlockSize - GatesSize - TypesSize

	// Alignment is the section alignment of the dense file layout.
	// The header and output sections are padded to this boundary.
	Alignment = BlockSize

	// OutputEntrySize is the size of a dense output entry
	// (little-endian uint32 address).
	OutputEntrySize = 4

	// BlocksPerChunk is the number of blocks returned per read
	// operation.
	BlocksPerChunk = 16

	// ChunkSize is the I/O size of a full chunk.
	ChunkSize = BlocksPerChunk * BlockSize

	// MaxMemoryAddress bounds the dense address space (2^32).
	MaxMemoryAddress = uint64(1) << 32
)

// Sparse block geometry. Sparse blocks hold 256 gates in a
// structure-of-arrays layout with bit-packed fields: 34-bit wire IDs,
// 24-bit credits, and one type bit per gate.
const (
	// SparseGatesPerBlock is the number of gates in a full sparse
	// block.
	SparseGatesPerBlock = 256

	// SparseIDSize is the byte size of one 256-gate 34-bit ID stream.
	SparseIDSize = SparseGatesPerBlock * 34 / 8

	// SparseCreditsSize is the byte size of the 24-bit credits stream.
	SparseCreditsSize = SparseGatesPerBlock * 24 / 8

	// SparseTypesSize is the byte size of the type bitset.
	SparseTypesSize = SparseGatesPerBlock / 8

	// SparseBlockSize is the total sparse block size: three ID
	// streams, the credits stream, and the type bitset.
	SparseBlockSize = 3*SparseIDSize + SparseCreditsSize + SparseTypesSize

	// SparseOutputEntrySize is the size of a sparse output entry
	// (5-byte little-endian value holding a 34-bit wire ID).
	SparseOutputEntrySize = 5

	// MaxWireID is the largest sparse wire ID (34 bits).
	MaxWireID = uint64(1)<<34 - 1

	// MaxCredits is the largest representable fan-out count (24 bits).
	MaxCredits = uint32(1)<<24 - 1
)

// Credit sentinels used by the sparse format.
const (
	// CreditsOutput marks a gate whose output wire is a declared
	// circuit output. Output wires are never consumed and stay live
	// until the end of the pass.
	CreditsOutput = uint32(0)
)

// TypeBit reads the type bit of gate index from a bit-packed types
// section.
func TypeBit(types []byte, index int) bool {
	return types[index/8]&(1<<(index%8)) != 0
}

// SetTypeBit sets the type bit of gate index in a bit-packed types
// section.
func SetTypeBit(types []byte, index int, bit bool) {
	if bit {
		types[index/8] |= 1 << (index % 8)
	} else {
		types[index/8] &^= 1 << (index % 8)
	}
}

// BlockNumGates returns the number of valid gates in the block at
// blockIndex for a circuit with totalGates gates. All blocks are full
// except possibly the last one. The writer and reader must agree on
// this derivation; it is the only record of trailing-block occupancy.
func BlockNumGates(totalGates uint64, blockIndex uint64) int {
	before := blockIndex * GatesPerBlock
	if totalGates <= before {
		return 0
	}
	remaining := totalGates - before
	if remaining > GatesPerBlock {
		return GatesPerBlock
	}
	return int(remaining)
}

// NumBlocks returns the number of blocks needed for totalGates gates.
func NumBlocks(totalGates uint64) uint64 {
	return (totalGates + GatesPerBlock - 1) / GatesPerBlock
}

// SparseNumBlocks returns the number of sparse blocks needed for
// totalGates gates.
func SparseNumBlocks(totalGates uint64) uint64 {
	return (totalGates + SparseGatesPerBlock - 1) / SparseGatesPerBlock
}

// PaddedSize rounds size up to the next Alignment boundary.
func PaddedSize(size int) int {
	return (size + Alignment - 1) / Alignment * Alignment
}
