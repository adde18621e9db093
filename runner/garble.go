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

// GarbleTask garbles a circuit, streaming one 16-byte ciphertext per
// AND gate to Table.
type GarbleTask struct {
	// Delta is the global free-XOR offset.
	Delta engine.Label

	// InputLabels are the false labels of the primary inputs.
	InputLabels []engine.Label

	// Table receives the garbled AND-gate ciphertexts in gate order.
	Table io.Writer
}

// GarbleState is the running state of a garbling pass.
type GarbleState struct {
	backend *engine.Garbler
	table   io.Writer
}

// GarbleOutput is the result of a garbling pass.
type GarbleOutput struct {
	// OutputLabels are the false labels of the declared outputs; the
	// true label of output i is OutputLabels[i] XOR delta.
	OutputLabels []engine.Label

	// Garbler retains the finished backend for further label
	// selection, e.g. encoding outputs against known values.
	Garbler *engine.Garbler
}

// Initialize builds the garbling backend sized to the header's
// scratch space.
func (t *GarbleTask) Initialize(header *ckt.Header) (*GarbleState, error) {
	if uint64(len(t.InputLabels)) != header.PrimaryInputs {
		return nil, fmt.Errorf("garble: %d input labels for a circuit with %d inputs",
			len(t.InputLabels), header.PrimaryInputs)
	}
	backend, err := engine.NewGarbler(engine.GarblerConfig{
		ScratchSpace: header.ScratchSpace,
		Delta:        t.Delta,
		InputLabels:  t.InputLabels,
	})
	if err != nil {
		return nil, err
	}
	return &GarbleState{backend: backend, table: t.Table}, nil
}

// OnBlock garbles every gate of the block, writing AND ciphertexts to
// the table stream.
func (t *GarbleTask) OnBlock(state *GarbleState, block GateBlock) error {
	for i := 0; i < block.NumGates(); i++ {
		in1, in2, out, op := block.Gate(i)
		switch op {
		case ckt.AND:
			ct := state.backend.FeedAND(in1, in2, out)
			if _, err := state.table.Write(ct[:]); err != nil {
				return fmt.Errorf("writing garbled table: %w", err)
			}
		case ckt.XOR:
			state.backend.FeedXOR(in1, in2, out)
		}
	}
	return nil
}

// OnAfterChunk is a no-op: the table writer buffers as it sees fit.
func (t *GarbleTask) OnAfterChunk(state *GarbleState) error {
	return nil
}

// Finish flushes the table stream and collects the output false
// labels.
func (t *GarbleTask) Finish(state *GarbleState, outputs []uint32) (
	*GarbleOutput, error) {

	if err := flush(state.table); err != nil {
		return nil, fmt.Errorf("flushing garbled table: %w", err)
	}

	labels := make([]engine.Label, len(outputs))
	for i, addr := range outputs {
		labels[i] = state.backend.FalseLabel(addr)
	}
	return &GarbleOutput{
		OutputLabels: labels,
		Garbler:      state.backend,
	}, nil
}

// OnAbort flushes whatever table material was produced. The pass
// failed, so flush errors are deliberately dropped: they must not
// mask the original error.
func (t *GarbleTask) OnAbort(state *GarbleState) {
	_ = flush(state.table)
}

func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
