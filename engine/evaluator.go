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

// EvaluatorConfig configures an evaluation backend.
type EvaluatorConfig struct {
	// ScratchSpace is the dense address range of the circuit.
	ScratchSpace uint64

	// InputLabels are the selected primary input labels produced by
	// the garbler for this input assignment.
	InputLabels []Label

	// InputValues is the cleartext input assignment. The construction
	// is privacy free: the evaluator knows every wire value and uses
	// it as the permute bit.
	InputValues []bool
}

// Evaluator consumes a garbled circuit: one selected label per live
// wire plus the cleartext value alongside it. AND gates read one
// ciphertext each from the garbler's stream.
type Evaluator struct {
	hasher  *Hasher
	labels  []Label
	values  *bitset.BitSet
	gateCtr uint64
	andCtr  uint64
}

// NewEvaluator creates an evaluation backend seeded with the constant
// wires and the selected primary input labels.
func NewEvaluator(config EvaluatorConfig) (*Evaluator, error) {
	if len(config.InputLabels) != len(config.InputValues) {
		return nil, fmt.Errorf("%d input labels with %d input values",
			len(config.InputLabels), len(config.InputValues))
	}
	if uint64(len(config.InputLabels))+2 > config.ScratchSpace {
		return nil, fmt.Errorf("%d input labels do not fit in scratch space %d",
			len(config.InputLabels), config.ScratchSpace)
	}

	labels := make([]Label, config.ScratchSpace)
	labels[0] = LabelZero
	labels[1] = LabelOne
	copy(labels[2:], config.InputLabels)

	values := bitset.New(uint(config.ScratchSpace))
	values.Set(1)
	for i, bit := range config.InputValues {
		values.SetTo(uint(i+2), bit)
	}

	return &Evaluator{
		hasher: NewHasher(),
		labels: labels,
		values: values,
	}, nil
}

// FeedXOR evaluates an XOR gate on both the label and the value.
func (e *Evaluator) FeedXOR(in1, in2, out uint32) {
	e.labels[out] = e.labels[in1].Xor(e.labels[in2])
	e.values.SetTo(uint(out),
		e.values.Test(uint(in1)) != e.values.Test(uint(in2)))
	e.gateCtr++
}

// FeedAND evaluates an AND gate. The output label is H(in1, t); when
// in1 is true the ciphertext and the in2 label correct it to the
// garbler's other half.
func (e *Evaluator) FeedAND(in1, in2, out uint32, ct Ciphertext) {
	t := e.gateCtr
	label := e.hasher.Hash(e.labels[in1], t)
	if e.values.Test(uint(in1)) {
		label = label.Xor(Label(ct)).Xor(e.labels[in2])
	}

	e.labels[out] = label
	e.values.SetTo(uint(out),
		e.values.Test(uint(in1)) && e.values.Test(uint(in2)))
	e.gateCtr++
	e.andCtr++
}

// GateCtr returns the number of gates processed.
func (e *Evaluator) GateCtr() uint64 {
	return e.gateCtr
}

// ANDCtr returns the number of AND gates processed.
func (e *Evaluator) ANDCtr() uint64 {
	return e.andCtr
}

// Finish returns the labels and values of the declared output
// addresses, in order.
func (e *Evaluator) Finish(outputs []uint32) ([]Label, []bool) {
	labels := make([]Label, len(outputs))
	values := make([]bool, len(outputs))
	for i, addr := range outputs {
		labels[i] = e.labels[addr]
		values[i] = e.values.Test(uint(addr))
	}
	return labels, values
}
