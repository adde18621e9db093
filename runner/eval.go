//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package runner

import (
	"fmt"
	"io"

	"github.com/alpenlabs/ckt"
	"github.com/alpenlabs/ckt/engine"
)

// EvalTask evaluates a garbled circuit, reading one 16-byte
// ciphertext per AND gate from Table.
type EvalTask struct {
	// InputLabels are the selected primary input labels for this
	// input assignment.
	InputLabels []engine.Label

	// InputValues is the cleartext input assignment.
	InputValues []bool

	// Table supplies the garbled AND-gate ciphertexts in gate order.
	Table io.Reader
}

// EvalState is the running state of an evaluation pass.
type EvalState struct {
	backend *engine.Evaluator
	table   io.Reader
}

// EvalOutput is the result of an evaluation pass.
type EvalOutput struct {
	// Labels are the selected output labels, in declaration order.
	Labels []engine.Label

	// Values are the cleartext output values.
	Values []bool
}

// Initialize builds the evaluation backend sized to the header's
// scratch space.
func (t *EvalTask) Initialize(header *ckt.Header) (*EvalState, error) {
	if uint64(len(t.InputLabels)) != header.PrimaryInputs {
		return nil, fmt.Errorf("evaluate: %d input labels for a circuit with %d inputs",
			len(t.InputLabels), header.PrimaryInputs)
	}
	backend, err := engine.NewEvaluator(engine.EvaluatorConfig{
		ScratchSpace: header.ScratchSpace,
		InputLabels:  t.InputLabels,
		InputValues:  t.InputValues,
	})
	if err != nil {
		return nil, err
	}
	return &EvalState{backend: backend, table: t.Table}, nil
}

// OnBlock evaluates every gate of the block, pulling one ciphertext
// from the table stream per AND gate.
func (t *EvalTask) OnBlock(state *EvalState, block GateBlock) error {
	var ct engine.Ciphertext
	for i := 0; i < block.NumGates(); i++ {
		in1, in2, out, op := block.Gate(i)
		switch op {
		case ckt.AND:
			if _, err := io.ReadFull(state.table, ct[:]); err != nil {
				return fmt.Errorf("reading garbled table: %w", err)
			}
			state.backend.FeedAND(in1, in2, out, ct)
		case ckt.XOR:
			state.backend.FeedXOR(in1, in2, out)
		}
	}
	return nil
}

// OnAfterChunk is a no-op for evaluation.
func (t *EvalTask) OnAfterChunk(state *EvalState) error {
	return nil
}

// Finish collects the selected output labels and values.
func (t *EvalTask) Finish(state *EvalState, outputs []uint32) (*EvalOutput, error) {
	labels, values := state.backend.Finish(outputs)
	return &EvalOutput{Labels: labels, Values: values}, nil
}

// OnAbort has nothing to clean up for evaluation.
func (t *EvalTask) OnAbort(state *EvalState) {}
