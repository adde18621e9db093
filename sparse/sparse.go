//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Package sparse implements the sparse circuit format: gates
// identified by 34-bit wire IDs with 24-bit dependency credits,
// bit-packed into 4064-byte structure-of-arrays blocks of 256 gates.
// The sparse format is the input of wire-address preallocation.
package sparse

import (
	"fmt"

	"github.com/alpenlabs/ckt"
)

// Gate is one sparse gate record: wire IDs for both inputs and the
// output, the output wire's total fan-out (credits), and the gate
// function.
type Gate struct {
	In1     uint64
	In2     uint64
	Out     uint64
	Credits uint32
	Op      ckt.GateType
}

func (g Gate) String() string {
	return fmt.Sprintf("w%d %s w%d -> w%d (credits=%d)",
		g.In1, g.Op, g.In2, g.Out, g.Credits)
}

// Block is a decoded structure-of-arrays view of one sparse block.
// The slices alias scratch arrays owned by the reader and are valid
// until the next block is requested.
type Block struct {
	In1     []uint64
	In2     []uint64
	Out     []uint64
	Credits []uint32
	Types   []ckt.GateType

	Index    uint64
	NumGates int
}

// Gate assembles the gate record at index within the block.
func (b *Block) Gate(index int) Gate {
	return Gate{
		In1:     b.In1[index],
		In2:     b.In2[index],
		Out:     b.Out[index],
		Credits: b.Credits[index],
		Op:      b.Types[index],
	}
}
