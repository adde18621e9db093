//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package dense

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/alpenlabs/ckt"
)

// Writer streams a dense circuit to disk. The file layout is a header
// section and an output section, each padded to the 256 KiB alignment,
// followed by full 256 KiB gate blocks. Both sections are placeholders
// until Finalize backpatches them.
type Writer struct {
	f         *os.File
	path      string
	bw        *bufio.Writer
	finalized bool
	closed    bool

	primaryInputs uint64
	numOutputs    uint64
	outputsOffset int64

	block        [ckt.BlockSize]byte
	gatesInBlock int

	xorGates    uint64
	andGates    uint64
	maxAddrSeen uint32

	hasher hash.Hash
}

// NewWriter creates a dense circuit writer. The output count is fixed
// up front so the output section can be reserved; the output addresses
// themselves are supplied at Finalize, once preallocation has assigned
// them.
func NewWriter(path string, primaryInputs, numOutputs uint64) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		f.Close()
		return nil, err
	}

	bw := bufio.NewWriterSize(f, 4*ckt.ChunkSize)

	// Header section placeholder.
	if _, err := bw.Write(make([]byte, ckt.Alignment)); err != nil {
		f.Close()
		return nil, err
	}

	// Outputs section placeholder, padded to the next alignment
	// boundary.
	outputsPadded := ckt.PaddedSize(int(numOutputs) * ckt.OutputEntrySize)
	if _, err := bw.Write(make([]byte, outputsPadded)); err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{
		f:             f,
		path:          path,
		bw:            bw,
		primaryInputs: primaryInputs,
		numOutputs:    numOutputs,
		outputsOffset: int64(ckt.Alignment),
		hasher:        hasher,
	}, nil
}

// WriteGate appends a gate in execution order.
func (w *Writer) WriteGate(in1, in2, out uint32, op ckt.GateType) error {
	if w.gatesInBlock == ckt.GatesPerBlock {
		if err := w.flushBlock(); err != nil {
			return err
		}
	}

	off := w.gatesInBlock * ckt.GateSize
	binary.LittleEndian.PutUint32(w.block[off:], in1)
	binary.LittleEndian.PutUint32(w.block[off+4:], in2)
	binary.LittleEndian.PutUint32(w.block[off+8:], out)
	ckt.SetTypeBit(w.block[ckt.TypesOffset:], w.gatesInBlock, op.Bit())

	switch op {
	case ckt.XOR:
		w.xorGates++
	case ckt.AND:
		w.andGates++
	default:
		return fmt.Errorf("invalid gate type %s", op)
	}

	w.maxAddrSeen = max(w.maxAddrSeen, in1, in2, out)
	w.gatesInBlock++

	return nil
}

// flushBlock hashes and writes the full 256 KiB block, padding
// included, then zeroes it for reuse.
func (w *Writer) flushBlock() error {
	if w.gatesInBlock == 0 {
		return nil
	}

	w.hasher.Write(w.block[:])
	if _, err := w.bw.Write(w.block[:]); err != nil {
		return err
	}

	w.block = [ckt.BlockSize]byte{}
	w.gatesInBlock = 0

	return nil
}

// Finalize flushes buffered gates, writes the output table, validates
// the declared scratch space against every address written, completes
// the checksum, and backpatches the header. The writer is closed in
// all cases.
func (w *Writer) Finalize(scratchSpace uint64, outputs []uint32) (*Stats, error) {
	defer w.Close()

	if uint64(len(outputs)) != w.numOutputs {
		return nil, fmt.Errorf("finalize got %d outputs, writer declared %d",
			len(outputs), w.numOutputs)
	}
	if scratchSpace > ckt.MaxMemoryAddress {
		return nil, fmt.Errorf("scratch space %d exceeds addressable memory",
			scratchSpace)
	}

	if err := w.flushBlock(); err != nil {
		return nil, err
	}

	outputsPadded := make([]byte, ckt.PaddedSize(int(w.numOutputs)*ckt.OutputEntrySize))
	for i, o := range outputs {
		binary.LittleEndian.PutUint32(outputsPadded[i*ckt.OutputEntrySize:], o)
		w.maxAddrSeen = max(w.maxAddrSeen, o)
	}

	if w.xorGates+w.andGates > 0 || len(outputs) > 0 {
		if uint64(w.maxAddrSeen) >= scratchSpace {
			return nil, fmt.Errorf("address %d does not fit in scratch space %d",
				w.maxAddrSeen, scratchSpace)
		}
	}

	header := &ckt.Header{
		Format:        ckt.FormatDense,
		XORGates:      w.xorGates,
		ANDGates:      w.andGates,
		PrimaryInputs: w.primaryInputs,
		ScratchSpace:  scratchSpace,
		NumOutputs:    w.numOutputs,
	}

	// Checksum order: blocks (already hashed), padded output section,
	// then the header section with the checksum field skipped and the
	// padding to the alignment boundary included.
	w.hasher.Write(outputsPadded)
	hdrBytes := header.MarshalDense()
	w.hasher.Write(hdrBytes[:10])
	w.hasher.Write(hdrBytes[10+ckt.ChecksumSize:])
	w.hasher.Write(make([]byte, ckt.Alignment-ckt.DenseHeaderSize))
	copy(header.Checksum[:], w.hasher.Sum(nil))

	if err := w.bw.Flush(); err != nil {
		return nil, err
	}
	if _, err := w.f.WriteAt(outputsPadded, w.outputsOffset); err != nil {
		return nil, err
	}
	if _, err := w.f.WriteAt(header.MarshalDense(), 0); err != nil {
		return nil, err
	}
	if err := w.f.Sync(); err != nil {
		return nil, err
	}
	w.finalized = true

	return &Stats{
		TotalGates:    w.xorGates + w.andGates,
		XORGates:      w.xorGates,
		ANDGates:      w.andGates,
		PrimaryInputs: w.primaryInputs,
		ScratchSpace:  scratchSpace,
		NumOutputs:    w.numOutputs,
		Checksum:      header.Checksum,
	}, nil
}

// Close releases the writer. If Finalize has not completed, the
// partial output file is removed: a failed build must produce
// nothing. Close is idempotent and safe to call after Finalize.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.f.Close()
	if w.finalized {
		return err
	}
	if rmErr := os.Remove(w.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
