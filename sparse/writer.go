//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package sparse

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"os"

	"github.com/icza/bitio"
	"golang.org/x/crypto/blake2b"

	"github.com/alpenlabs/ckt"
)

// Writer streams a sparse circuit to disk. Gates are buffered into
// 256-gate blocks and bit-packed on flush; the content checksum is
// computed over blocks, outputs and header and backpatched into the
// header at Finalize.
type Writer struct {
	f  *os.File
	bw *bufio.Writer

	primaryInputs uint64
	outputsBytes  []byte
	numOutputs    uint64

	in1     [ckt.SparseGatesPerBlock]uint64
	in2     [ckt.SparseGatesPerBlock]uint64
	out     [ckt.SparseGatesPerBlock]uint64
	credits [ckt.SparseGatesPerBlock]uint32
	types   [ckt.SparseTypesSize]byte

	gatesInBlock int
	xorGates     uint64
	andGates     uint64

	hasher hash.Hash
}

// NewWriter creates a sparse circuit writer. The declared outputs are
// fixed at creation time; each must be a valid 34-bit wire ID.
func NewWriter(path string, primaryInputs uint64, outputs []uint64) (
	*Writer, error) {

	outputsBytes := make([]byte, 0, len(outputs)*ckt.SparseOutputEntrySize)
	var entry [8]byte
	for _, o := range outputs {
		if o > ckt.MaxWireID {
			return nil, fmt.Errorf("output wire %d exceeds 34-bit ID space", o)
		}
		binary.LittleEndian.PutUint64(entry[:], o)
		outputsBytes = append(outputsBytes, entry[:ckt.SparseOutputEntrySize]...)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		f.Close()
		return nil, err
	}

	bw := bufio.NewWriterSize(f, 1<<20)

	// Header placeholder, backpatched at Finalize.
	if _, err := bw.Write(make([]byte, ckt.SparseHeaderSize)); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := bw.Write(outputsBytes); err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{
		f:             f,
		bw:            bw,
		primaryInputs: primaryInputs,
		outputsBytes:  outputsBytes,
		numOutputs:    uint64(len(outputs)),
		hasher:        hasher,
	}, nil
}

// WriteGate appends a gate in execution order.
func (w *Writer) WriteGate(g Gate) error {
	if g.In1 > ckt.MaxWireID || g.In2 > ckt.MaxWireID || g.Out > ckt.MaxWireID {
		return fmt.Errorf("gate wire ID exceeds 34-bit ID space: %s", g)
	}
	if g.Credits > ckt.MaxCredits {
		return fmt.Errorf("gate credits %d exceed 24-bit range", g.Credits)
	}

	if w.gatesInBlock == ckt.SparseGatesPerBlock {
		if err := w.flushBlock(); err != nil {
			return err
		}
	}

	i := w.gatesInBlock
	w.in1[i] = g.In1
	w.in2[i] = g.In2
	w.out[i] = g.Out
	w.credits[i] = g.Credits
	ckt.SetTypeBit(w.types[:], i, g.Op.Bit())

	switch g.Op {
	case ckt.XOR:
		w.xorGates++
	case ckt.AND:
		w.andGates++
	default:
		return fmt.Errorf("invalid gate type %s", g.Op)
	}
	w.gatesInBlock++

	return nil
}

// flushBlock bit-packs the buffered gates into one full block and
// writes it. Unused trailing gate slots are zero.
func (w *Writer) flushBlock() error {
	if w.gatesInBlock == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.Grow(ckt.SparseBlockSize)
	bits := bitio.NewWriter(&buf)

	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		if err := bits.WriteBits(w.in1[i], 34); err != nil {
			return err
		}
	}
	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		if err := bits.WriteBits(w.in2[i], 34); err != nil {
			return err
		}
	}
	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		if err := bits.WriteBits(w.out[i], 34); err != nil {
			return err
		}
	}
	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		if err := bits.WriteBits(uint64(w.credits[i]), 24); err != nil {
			return err
		}
	}
	if err := bits.Close(); err != nil {
		return err
	}
	buf.Write(w.types[:])

	if buf.Len() != ckt.SparseBlockSize {
		return fmt.Errorf("encoded block is %d bytes, expected %d",
			buf.Len(), ckt.SparseBlockSize)
	}

	w.hasher.Write(buf.Bytes())
	if _, err := w.bw.Write(buf.Bytes()); err != nil {
		return err
	}

	for i := 0; i < w.gatesInBlock; i++ {
		w.in1[i], w.in2[i], w.out[i], w.credits[i] = 0, 0, 0, 0
	}
	for i := range w.types {
		w.types[i] = 0
	}
	w.gatesInBlock = 0

	return nil
}

// Finalize flushes buffered gates, completes the checksum, and
// backpatches the header. The writer is closed in all cases.
func (w *Writer) Finalize() (*ckt.Header, error) {
	defer w.f.Close()

	if err := w.flushBlock(); err != nil {
		return nil, err
	}

	header := &ckt.Header{
		Format:        ckt.FormatSparse,
		XORGates:      w.xorGates,
		ANDGates:      w.andGates,
		PrimaryInputs: w.primaryInputs,
		NumOutputs:    w.numOutputs,
	}

	// Checksum covers blocks (already hashed), outputs, and the
	// header with a zeroed checksum field.
	w.hasher.Write(w.outputsBytes)
	w.hasher.Write(header.MarshalSparse())
	copy(header.Checksum[:], w.hasher.Sum(nil))

	if err := w.bw.Flush(); err != nil {
		return nil, err
	}
	if _, err := w.f.WriteAt(header.MarshalSparse(), 0); err != nil {
		return nil, err
	}
	if err := w.f.Sync(); err != nil {
		return nil, err
	}
	return header, nil
}
