//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package engine

import (
	"fmt"
)

// GarblerConfig configures a garbling backend.
type GarblerConfig struct {
	// ScratchSpace is the dense address range of the circuit.
	ScratchSpace uint64

	// Delta is the global free-XOR offset.
	Delta Label

	// InputLabels are the false labels of the primary inputs, in
	// input order.
	InputLabels []Label
}

// Garbler produces a garbled circuit: one 128-bit false label per
// live wire, XOR gates free, AND gates garbled with privacy-free half
// gates keyed by the gate counter.
type Garbler struct {
	hasher  *Hasher
	labels  []Label
	delta   Label
	gateCtr uint64
	andCtr  uint64
}

// NewGarbler creates a garbling backend. The constant wires occupy
// addresses 0 and 1: the false constant's label is public, and the
// true constant's false label is offset by delta so its true label is
// the public one.
func NewGarbler(config GarblerConfig) (*Garbler, error) {
	if uint64(len(config.InputLabels))+2 > config.ScratchSpace {
		return nil, fmt.Errorf("%d input labels do not fit in scratch space %d",
			len(config.InputLabels), config.ScratchSpace)
	}

	labels := make([]Label, config.ScratchSpace)
	labels[0] = LabelZero
	labels[1] = LabelOne.Xor(config.Delta)
	copy(labels[2:], config.InputLabels)

	return &Garbler{
		hasher: NewHasher(),
		labels: labels,
		delta:  config.Delta,
	}, nil
}

// FeedXOR garbles an XOR gate: the output false label is the XOR of
// the input false labels, no material emitted.
func (g *Garbler) FeedXOR(in1, in2, out uint32) {
	g.labels[out] = g.labels[in1].Xor(g.labels[in2])
	g.gateCtr++
}

// FeedAND garbles an AND gate and returns its ciphertext. The output
// false label is H(in1, t); the ciphertext lets the evaluator reach
// the correct output label when its in1 value is true.
func (g *Garbler) FeedAND(in1, in2, out uint32) Ciphertext {
	a := g.labels[in1]
	b := g.labels[in2]

	t := g.gateCtr
	hA := g.hasher.Hash(a, t)
	hAD := g.hasher.Hash(a.Xor(g.delta), t)

	g.labels[out] = hA
	g.gateCtr++
	g.andCtr++

	return Ciphertext(hA.Xor(hAD).Xor(b))
}

// GateCtr returns the number of gates processed.
func (g *Garbler) GateCtr() uint64 {
	return g.gateCtr
}

// ANDCtr returns the number of AND gates processed.
func (g *Garbler) ANDCtr() uint64 {
	return g.andCtr
}

// FalseLabel returns the false label of a wire address.
func (g *Garbler) FalseLabel(addr uint32) Label {
	return g.labels[addr]
}

// SelectedLabels returns the labels encoding the given values on the
// given addresses, false label plus value times delta.
func (g *Garbler) SelectedLabels(addrs []uint32, values []bool) ([]Label, error) {
	if len(addrs) != len(values) {
		return nil, fmt.Errorf("selecting %d addresses with %d values",
			len(addrs), len(values))
	}
	selected := make([]Label, len(addrs))
	for i, addr := range addrs {
		selected[i] = g.labels[addr]
		if values[i] {
			selected[i] = selected[i].Xor(g.delta)
		}
	}
	return selected, nil
}
