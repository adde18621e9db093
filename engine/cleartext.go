//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package engine

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Cleartext executes gates directly on boolean values. It is the
// reference backend: garbling and evaluation must agree with it on
// every input assignment.
type Cleartext struct {
	values  *bitset.BitSet
	gateCtr uint64
}

// NewCleartext creates a cleartext backend over a working store of
// scratchSpace bits, seeded with the constant wires and the primary
// input assignment at the permanent low addresses.
func NewCleartext(scratchSpace uint64, inputs []bool) (*Cleartext, error) {
	if uint64(len(inputs))+2 > scratchSpace {
		return nil, fmt.Errorf("%d inputs do not fit in scratch space %d",
			len(inputs), scratchSpace)
	}

	values := bitset.New(uint(scratchSpace))
	values.Set(1)
	for i, bit := range inputs {
		values.SetTo(uint(i+2), bit)
	}
	return &Cleartext{values: values}, nil
}

// FeedXOR executes an XOR gate.
func (c *Cleartext) FeedXOR(in1, in2, out uint32) {
	c.values.SetTo(uint(out), c.values.Test(uint(in1)) != c.values.Test(uint(in2)))
	c.gateCtr++
}

// FeedAND executes an AND gate.
func (c *Cleartext) FeedAND(in1, in2, out uint32) {
	c.values.SetTo(uint(out), c.values.Test(uint(in1)) && c.values.Test(uint(in2)))
	c.gateCtr++
}

// GateCtr returns the number of gates processed.
func (c *Cleartext) GateCtr() uint64 {
	return c.gateCtr
}

// Finish returns the values of the declared output addresses, in
// order.
func (c *Cleartext) Finish(outputs []uint32) []bool {
	result := make([]bool, len(outputs))
	for i, addr := range outputs {
		result[i] = c.values.Test(uint(addr))
	}
	return result
}
