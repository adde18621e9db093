//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Package runner drives a task over a streaming dense circuit: it
// pulls chunks from a block source, derives each block's true gate
// count from the running block index, and hands blocks to the task in
// exact execution order.
package runner

import (
	"fmt"

	"github.com/alpenlabs/ckt"
)

// BlockSource supplies a dense circuit to a task run. NextChunk
// returns (nil, nil) exactly once at end of stream; that is the
// expected terminal condition, not an error.
type BlockSource interface {
	Header() *ckt.Header
	Outputs() []uint32
	NextChunk() (*ckt.Chunk, error)
}

// GateBlock pairs a block view with its valid gate count. The count
// is derived, not stored: all blocks are full except possibly the
// last, and writer and reader must agree on that derivation exactly.
type GateBlock struct {
	block    ckt.Block
	numGates int
}

// NewGateBlock wraps a block with its derived gate count.
func NewGateBlock(block ckt.Block, numGates int) GateBlock {
	return GateBlock{block: block, numGates: numGates}
}

// NumGates returns the number of valid gates in the block.
func (b GateBlock) NumGates() int {
	return b.numGates
}

// Gate returns the addresses and function of gate index.
func (b GateBlock) Gate(index int) (in1, in2, out uint32, op ckt.GateType) {
	in1, in2, out = b.block.Gate(index)
	return in1, in2, out, b.block.Type(index)
}

// Task is one pass over a circuit. The lifecycle is Initialize, then
// OnBlock for every block in order with OnAfterChunk between chunks,
// then Finish on clean end of stream. Any error aborts the pass:
// OnAbort runs best-effort cleanup and the original error propagates.
type Task[S, O any] interface {
	Initialize(header *ckt.Header) (S, error)
	OnBlock(state S, block GateBlock) error
	OnAfterChunk(state S) error
	Finish(state S, outputs []uint32) (O, error)
	OnAbort(state S)
}

// Run executes a task against a block source.
func Run[S, O any](task Task[S, O], source BlockSource) (O, error) {
	var zero O

	state, err := task.Initialize(source.Header())
	if err != nil {
		return zero, err
	}

	if err := runBlocks(task, state, source); err != nil {
		task.OnAbort(state)
		return zero, err
	}

	return task.Finish(state, source.Outputs())
}

func runBlocks[S, O any](task Task[S, O], state S, source BlockSource) error {
	totalGates := source.Header().TotalGates()

	blockIndex := uint64(0)
	for {
		chunk, err := source.NextChunk()
		if err != nil {
			return err
		}
		if chunk == nil {
			return nil
		}

		for b := 0; b < chunk.NumBlocks(); b++ {
			numGates := ckt.BlockNumGates(totalGates, blockIndex)
			blockIndex++

			block := NewGateBlock(chunk.Block(b), numGates)
			if err := task.OnBlock(state, block); err != nil {
				return fmt.Errorf("block %d: %w", blockIndex-1, err)
			}
		}

		if err := task.OnAfterChunk(state); err != nil {
			return err
		}
	}
}
