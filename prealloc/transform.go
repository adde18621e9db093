//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package prealloc

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/alpenlabs/ckt/dense"
	"github.com/alpenlabs/ckt/sparse"
)

// Result summarizes a completed preallocation pass.
type Result struct {
	// ScratchSpace is the certified peak live-wire count, recorded in
	// the dense header.
	ScratchSpace uint64

	// Outputs are the dense addresses of the declared circuit
	// outputs, in declaration order.
	Outputs []uint32

	// Leaked counts wires still live at end of pass that are not
	// declared outputs: their credits over-declared their true
	// fan-out.
	Leaked int

	Stats *dense.Stats
}

// Transform converts a sparse circuit file into a dense circuit file
// in a single pass. Constants and primary inputs are seeded as
// permanent slots; every other wire's slot is reclaimed the moment
// its last consumer executes. Any wire referenced outside its
// lifetime window aborts the whole conversion: allocator state past
// that point is unusable.
func Transform(inputPath, outputPath string) (*Result, error) {
	r, err := sparse.OpenReader(inputPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	header := r.Header()
	w, err := dense.NewWriter(outputPath, header.PrimaryInputs, header.NumOutputs)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	index := NewWireIndex()
	alloc := NewSlotAllocator()

	// Wires 0 and 1 are the constants, 2..2+P the primary inputs.
	// They occupy the lowest slots permanently and are never
	// consumed.
	numPermanent := header.PrimaryInputs + 2
	for i := uint64(0); i < numPermanent; i++ {
		alloc.Allocate()
	}

	log.WithFields(log.Fields{
		"gates":   header.TotalGates(),
		"inputs":  header.PrimaryInputs,
		"outputs": header.NumOutputs,
	}).Info("preallocating")

	var gatesDone uint64
	for {
		block, err := r.NextBlock()
		if err != nil {
			return nil, fmt.Errorf("reading sparse block: %w", err)
		}
		if block == nil {
			break
		}

		for i := 0; i < block.NumGates; i++ {
			g := block.Gate(i)

			in1, err := consumeWire(index, alloc, g.In1, numPermanent)
			if err != nil {
				return nil, fmt.Errorf("gate %d: %w", gatesDone+uint64(i), err)
			}
			in2, err := consumeWire(index, alloc, g.In2, numPermanent)
			if err != nil {
				return nil, fmt.Errorf("gate %d: %w", gatesDone+uint64(i), err)
			}

			if g.Out < numPermanent {
				return nil, fmt.Errorf("gate %d: output wire %d is a constant or primary input",
					gatesDone+uint64(i), g.Out)
			}
			out := alloc.Allocate()
			if _, _, err := index.Insert(g.Out, out, g.Credits); err != nil {
				return nil, fmt.Errorf("gate %d: %w", gatesDone+uint64(i), err)
			}

			if err := w.WriteGate(in1, in2, out, g.Op); err != nil {
				return nil, err
			}
		}
		gatesDone += uint64(block.NumGates)
		log.WithField("gates", gatesDone).Debug("preallocated")
	}

	outputs := make([]uint32, 0, len(r.Outputs()))
	outputWires := make(map[uint64]struct{}, len(r.Outputs()))
	for _, id := range r.Outputs() {
		slot, err := lookupWire(index, id, numPermanent)
		if err != nil {
			return nil, fmt.Errorf("output wire %d never produced: %w", id, err)
		}
		outputs = append(outputs, slot)
		if id >= numPermanent {
			outputWires[id] = struct{}{}
		}
	}

	leaked := index.Live() - len(outputWires)
	if leaked > 0 {
		log.WithField("wires", leaked).Warn("live non-output wires at end of pass")
	}

	scratch := alloc.HighWater()
	stats, err := w.Finalize(scratch, outputs)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"gates":   gatesDone,
		"scratch": scratch,
	}).Info("preallocation complete")

	return &Result{
		ScratchSpace: scratch,
		Outputs:      outputs,
		Leaked:       leaked,
		Stats:        stats,
	}, nil
}

// consumeWire resolves a gate input to its dense slot, charging one
// credit and reclaiming the slot if the wire dies.
func consumeWire(index *WireIndex, alloc *SlotAllocator, id uint64,
	numPermanent uint64) (uint32, error) {

	if id < numPermanent {
		return uint32(id), nil
	}
	slot, dead, err := index.Consume(id)
	if err != nil {
		return 0, err
	}
	if dead {
		if err := alloc.Deallocate(slot); err != nil {
			return 0, err
		}
	}
	return slot, nil
}

// lookupWire resolves a declared output to its dense slot without
// charging credits.
func lookupWire(index *WireIndex, id uint64, numPermanent uint64) (uint32, error) {
	if id < numPermanent {
		return uint32(id), nil
	}
	return index.Lookup(id)
}
