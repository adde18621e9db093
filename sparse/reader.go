//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package sparse

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/icza/bitio"
	"golang.org/x/sync/errgroup"

	"github.com/alpenlabs/ckt"
)

// Number of sparse blocks fetched per read. The read size must be a
// multiple of the block size so blocks never span read buffers.
const blocksPerRead = 256

// Reader streams a sparse circuit from disk. A background goroutine
// reads ahead into one of two recycled buffers while the caller
// decodes the other, so I/O overlaps with processing.
type Reader struct {
	header  *ckt.Header
	outputs []uint64

	filled chan []byte
	free   chan []byte
	eg     *errgroup.Group
	cancel context.CancelFunc

	cur            []byte
	pos            int
	gatesRemaining uint64
	blockIndex     uint64

	// Decode scratch, aliased by the returned Block.
	in1     [ckt.SparseGatesPerBlock]uint64
	in2     [ckt.SparseGatesPerBlock]uint64
	out     [ckt.SparseGatesPerBlock]uint64
	credits [ckt.SparseGatesPerBlock]uint32
	types   [ckt.SparseGatesPerBlock]ckt.GateType
	block   Block
}

// OpenReader opens a sparse circuit file and starts the read-ahead
// pipeline. The reader is not restartable: re-scanning requires a
// fresh OpenReader.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	hdrBuf := make([]byte, ckt.SparseHeaderSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading sparse header: %w", err)
	}
	header, err := ckt.ParseSparseHeader(hdrBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	outputs, err := readOutputs(f, header.NumOutputs)
	if err != nil {
		f.Close()
		return nil, err
	}

	blockBytes := ckt.SparseNumBlocks(header.TotalGates()) *
		ckt.SparseBlockSize

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)

	r := &Reader{
		header:         header,
		outputs:        outputs,
		filled:         make(chan []byte, 2),
		free:           make(chan []byte, 2),
		eg:             eg,
		cancel:         cancel,
		gatesRemaining: header.TotalGates(),
	}
	r.free <- make([]byte, blocksPerRead*ckt.SparseBlockSize)
	r.free <- make([]byte, blocksPerRead*ckt.SparseBlockSize)

	eg.Go(func() error {
		defer f.Close()
		defer close(r.filled)
		return prefetch(ctx, f, blockBytes, r.free, r.filled)
	})

	return r, nil
}

// prefetch sequentially fills recycled buffers with whole blocks
// until remaining bytes are exhausted.
func prefetch(ctx context.Context, f *os.File, remaining uint64,
	free <-chan []byte, filled chan<- []byte) error {

	for remaining > 0 {
		var buf []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case buf = <-free:
		}

		want := uint64(len(buf))
		if want > remaining {
			want = remaining
		}
		if _, err := io.ReadFull(f, buf[:want]); err != nil {
			return fmt.Errorf("truncated gate region: %w", err)
		}
		remaining -= want

		select {
		case <-ctx.Done():
			return ctx.Err()
		case filled <- buf[:want]:
		}
	}
	return nil
}

// Header returns the circuit header.
func (r *Reader) Header() *ckt.Header {
	return r.header
}

// Outputs returns the declared circuit output wire IDs in order.
func (r *Reader) Outputs() []uint64 {
	return r.outputs
}

// NextBlock decodes the next sparse block. It returns (nil, nil)
// exactly once at end of stream. The returned block aliases reader
// scratch and is valid until the next call.
func (r *Reader) NextBlock() (*Block, error) {
	if r.gatesRemaining == 0 {
		return nil, nil
	}

	if r.pos >= len(r.cur) {
		if r.cur != nil {
			r.free <- r.cur[:cap(r.cur)]
		}
		buf, ok := <-r.filled
		if !ok {
			if err := r.eg.Wait(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("gate region ended with %d gates remaining",
				r.gatesRemaining)
		}
		r.cur = buf
		r.pos = 0
	}

	raw := r.cur[r.pos : r.pos+ckt.SparseBlockSize]
	r.pos += ckt.SparseBlockSize

	gatesInBlock := int(r.gatesRemaining)
	if gatesInBlock > ckt.SparseGatesPerBlock {
		gatesInBlock = ckt.SparseGatesPerBlock
	}

	if err := r.decodeBlock(raw, gatesInBlock); err != nil {
		return nil, err
	}

	r.block = Block{
		In1:      r.in1[:gatesInBlock],
		In2:      r.in2[:gatesInBlock],
		Out:      r.out[:gatesInBlock],
		Credits:  r.credits[:gatesInBlock],
		Types:    r.types[:gatesInBlock],
		Index:    r.blockIndex,
		NumGates: gatesInBlock,
	}
	r.blockIndex++
	r.gatesRemaining -= uint64(gatesInBlock)

	return &r.block, nil
}

func (r *Reader) decodeBlock(raw []byte, gatesInBlock int) error {
	bits := bitio.NewReader(bytes.NewReader(raw))

	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		v, err := bits.ReadBits(34)
		if err != nil {
			return err
		}
		r.in1[i] = v
	}
	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		v, err := bits.ReadBits(34)
		if err != nil {
			return err
		}
		r.in2[i] = v
	}
	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		v, err := bits.ReadBits(34)
		if err != nil {
			return err
		}
		r.out[i] = v
	}
	for i := 0; i < ckt.SparseGatesPerBlock; i++ {
		v, err := bits.ReadBits(24)
		if err != nil {
			return err
		}
		r.credits[i] = uint32(v)
	}

	typeBits := raw[ckt.SparseBlockSize-ckt.SparseTypesSize:]
	for i := 0; i < gatesInBlock; i++ {
		r.types[i] = ckt.GateTypeFromBit(ckt.TypeBit(typeBits, i))
	}
	return nil
}

// Close stops the read-ahead pipeline and releases the file.
func (r *Reader) Close() error {
	r.cancel()
	// Drain until the prefetcher exits and closes the channel; this
	// also unblocks it if it is parked on a full filled channel.
	for range r.filled {
	}
	err := r.eg.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func readOutputs(f io.Reader, numOutputs uint64) ([]uint64, error) {
	raw := make([]byte, numOutputs*ckt.SparseOutputEntrySize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("reading outputs: %w", err)
	}
	outputs := make([]uint64, 0, numOutputs)
	var entry [8]byte
	for i := uint64(0); i < numOutputs; i++ {
		copy(entry[:], raw[i*ckt.SparseOutputEntrySize:(i+1)*ckt.SparseOutputEntrySize])
		v := binary.LittleEndian.Uint64(entry[:])
		if v > ckt.MaxWireID {
			return nil, fmt.Errorf("output wire ID %d has nonzero upper bits", v)
		}
		outputs = append(outputs, v)
		entry = [8]byte{}
	}
	return outputs, nil
}
