//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package runner

import (
	"fmt"

	"github.com/alpenlabs/ckt"
	"github.com/alpenlabs/ckt/engine"
)

// ExecTask executes a circuit in cleartext. Used for reference
// computation and testing.
type ExecTask struct {
	// Inputs is the primary input assignment.
	Inputs []bool
}

// ExecState is the running state of an execution pass.
type ExecState struct {
	backend *engine.Cleartext
}

// Initialize builds the cleartext backend sized to the header's
// scratch space.
func (t *ExecTask) Initialize(header *ckt.Header) (*ExecState, error) {
	if uint64(len(t.Inputs)) != header.PrimaryInputs {
		return nil, fmt.Errorf("execute: %d inputs for a circuit with %d",
			len(t.Inputs), header.PrimaryInputs)
	}
	backend, err := engine.NewCleartext(header.ScratchSpace, t.Inputs)
	if err != nil {
		return nil, err
	}
	return &ExecState{backend: backend}, nil
}

// OnBlock feeds every gate of the block to the backend.
func (t *ExecTask) OnBlock(state *ExecState, block GateBlock) error {
	for i := 0; i < block.NumGates(); i++ {
		in1, in2, out, op := block.Gate(i)
		switch op {
		case ckt.AND:
			state.backend.FeedAND(in1, in2, out)
		case ckt.XOR:
			state.backend.FeedXOR(in1, in2, out)
		}
	}
	return nil
}

// OnAfterChunk is a no-op for cleartext execution.
func (t *ExecTask) OnAfterChunk(state *ExecState) error {
	return nil
}

// Finish returns the output values in declaration order.
func (t *ExecTask) Finish(state *ExecState, outputs []uint32) ([]bool, error) {
	return state.backend.Finish(outputs), nil
}

// OnAbort has nothing to clean up for cleartext execution.
func (t *ExecTask) OnAbort(state *ExecState) {}
