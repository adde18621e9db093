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

// Block is a validated read-only view over one dense block. Gates and
// type bits are decoded at fixed offsets with bounds-checked reads;
// the view never aliases beyond the block boundary.
type Block struct {
	data []byte
}

// NewBlock creates a block view over data. The slice must hold at
// least one full block.
func NewBlock(data []byte) (Block, error) {
	if len(data) < BlockSize {
		return Block{}, fmt.Errorf("short block: %d bytes", len(data))
	}
	return Block{data: data[:BlockSize]}, nil
}

// Gate returns the dense addresses of gate index within the block.
func (b Block) Gate(index int) (in1, in2, out uint32) {
	off := index * GateSize
	in1 = binary.LittleEndian.Uint32(b.data[off : off+4])
	in2 = binary.LittleEndian.Uint32(b.data[off+4 : off+8])
	out = binary.LittleEndian.Uint32(b.data[off+8 : off+12])
	return
}

// Type returns the gate function of gate index within the block.
func (b Block) Type(index int) GateType {
	return GateTypeFromBit(TypeBit(b.data[TypesOffset:TypesOffset+TypesSize],
		index))
}

// Chunk is a batch of contiguous blocks returned by one read
// operation. The chunk borrows the reader's buffer: it is valid until
// the next chunk is requested.
type Chunk struct {
	buf       []byte
	numBlocks int
}

// NewChunk wraps buf as a chunk of numBlocks blocks.
func NewChunk(buf []byte, numBlocks int) (Chunk, error) {
	if numBlocks < 0 || len(buf) < numBlocks*BlockSize {
		return Chunk{}, fmt.Errorf("chunk buffer %d bytes too small for %d blocks",
			len(buf), numBlocks)
	}
	return Chunk{buf: buf, numBlocks: numBlocks}, nil
}

// NumBlocks returns the number of valid blocks in the chunk.
func (c Chunk) NumBlocks() int {
	return c.numBlocks
}

// Block returns the block view at index within the chunk.
func (c Chunk) Block(index int) Block {
	return Block{data: c.buf[index*BlockSize : (index+1)*BlockSize]}
}
