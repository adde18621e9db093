//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Package ckt defines the on-disk circuit format shared by the sparse
// (wire-ID) and dense (memory-address) representations: gate types,
// headers, block geometry, and chunked block access.
package ckt

import (
	"fmt"
)

// GateType specifies a binary gate function.
type GateType byte

// Gate functions. The values match the bit encoding used in the block
// type bitset: 0 = XOR, 1 = AND.
const (
	XOR GateType = 0
	AND GateType = 1
)

func (op GateType) String() string {
	switch op {
	case XOR:
		return "XOR"
	case AND:
		return "AND"
	default:
		return fmt.Sprintf("{GateType %d}", byte(op))
	}
}

// GateTypeFromBit maps a type bit to its gate function.
func GateTypeFromBit(bit bool) GateType {
	if bit {
		return AND
	}
	return XOR
}

// Bit returns the type bit for the gate function.
func (op GateType) Bit() bool {
	return op == AND
}
