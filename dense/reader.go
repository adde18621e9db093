//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package dense

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/alpenlabs/ckt"
)

// Reader streams a dense circuit in 16-block chunks. A background
// goroutine reads the next chunk into one of two recycled 4 MiB
// buffers while the caller processes the current one.
type Reader struct {
	header  *ckt.Header
	outputs []uint32

	filled chan chunkBuf
	free   chan []byte
	eg     *errgroup.Group
	cancel context.CancelFunc

	cur             []byte
	blocksRemaining uint64
	done            bool
}

type chunkBuf struct {
	buf       []byte
	numBlocks int
}

// OpenReader opens a dense circuit file and starts the read-ahead
// pipeline.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	hdrBuf := make([]byte, ckt.DenseHeaderSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dense header: %w", err)
	}
	header, err := ckt.ParseDenseHeader(hdrBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	outputs, err := readOutputs(f, header)
	if err != nil {
		f.Close()
		return nil, err
	}

	blocksOffset := int64(ckt.Alignment) +
		int64(ckt.PaddedSize(int(header.NumOutputs)*ckt.OutputEntrySize))
	if _, err := f.Seek(blocksOffset, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	numBlocks := ckt.NumBlocks(header.TotalGates())

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)

	r := &Reader{
		header:          header,
		outputs:         outputs,
		filled:          make(chan chunkBuf, 2),
		free:            make(chan []byte, 2),
		eg:              eg,
		cancel:          cancel,
		blocksRemaining: numBlocks,
	}
	r.free <- make([]byte, ckt.ChunkSize)
	r.free <- make([]byte, ckt.ChunkSize)

	eg.Go(func() error {
		defer f.Close()
		defer close(r.filled)
		return prefetchChunks(ctx, f, numBlocks, r.free, r.filled)
	})

	return r, nil
}

// prefetchChunks reads whole blocks, up to BlocksPerChunk at a time,
// into recycled buffers.
func prefetchChunks(ctx context.Context, f *os.File, remaining uint64,
	free <-chan []byte, filled chan<- chunkBuf) error {

	for remaining > 0 {
		var buf []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case buf = <-free:
		}

		n := uint64(ckt.BlocksPerChunk)
		if n > remaining {
			n = remaining
		}
		want := int(n) * ckt.BlockSize
		if _, err := io.ReadFull(f, buf[:want]); err != nil {
			return fmt.Errorf("truncated block region: %w", err)
		}
		remaining -= n

		select {
		case <-ctx.Done():
			return ctx.Err()
		case filled <- chunkBuf{buf: buf, numBlocks: int(n)}:
		}
	}
	return nil
}

// Header returns the circuit header.
func (r *Reader) Header() *ckt.Header {
	return r.header
}

// Outputs returns the declared circuit output addresses in order.
func (r *Reader) Outputs() []uint32 {
	return r.outputs
}

// NextChunk returns the next chunk of blocks, or (nil, nil) exactly
// once at end of stream. The chunk borrows a reader buffer and is
// valid until the next call.
func (r *Reader) NextChunk() (*ckt.Chunk, error) {
	if r.done {
		return nil, nil
	}

	if r.cur != nil {
		r.free <- r.cur
		r.cur = nil
	}

	if r.blocksRemaining == 0 {
		r.done = true
		return nil, nil
	}

	cb, ok := <-r.filled
	if !ok {
		if err := r.eg.Wait(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("block region ended with %d blocks remaining",
			r.blocksRemaining)
	}
	r.cur = cb.buf
	r.blocksRemaining -= uint64(cb.numBlocks)

	chunk, err := ckt.NewChunk(cb.buf, cb.numBlocks)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
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

func readOutputs(f io.Reader, header *ckt.Header) ([]uint32, error) {
	skip := make([]byte, ckt.Alignment-ckt.DenseHeaderSize)
	if _, err := io.ReadFull(f, skip); err != nil {
		return nil, fmt.Errorf("reading header padding: %w", err)
	}

	raw := make([]byte, header.NumOutputs*ckt.OutputEntrySize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("reading outputs: %w", err)
	}
	outputs := make([]uint32, header.NumOutputs)
	for i := range outputs {
		addr := binary.LittleEndian.Uint32(raw[i*ckt.OutputEntrySize:])
		if uint64(addr) >= header.ScratchSpace {
			return nil, fmt.Errorf("output address %d outside scratch space %d",
				addr, header.ScratchSpace)
		}
		outputs[i] = addr
	}
	return outputs, nil
}
