//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Package dense implements the dense circuit format: gates addressed
// by 32-bit memory addresses assigned during preallocation, stored in
// 256 KiB structure-of-arrays blocks and read in 4 MiB chunks. The
// dense format is what the streaming executor consumes.
package dense

import (
	"github.com/alpenlabs/ckt"
)

// Stats summarizes a finalized dense circuit.
type Stats struct {
	TotalGates    uint64
	XORGates      uint64
	ANDGates      uint64
	PrimaryInputs uint64
	ScratchSpace  uint64
	NumOutputs    uint64
	Checksum      [ckt.ChecksumSize]byte
}
