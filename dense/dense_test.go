//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package dense

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alpenlabs/ckt"
)

type gate struct {
	in1, in2, out uint32
	op            ckt.GateType
}

func makeGates(n int) []gate {
	gates := make([]gate, n)
	for i := range gates {
		g := gate{
			in1: uint32(i % 7),
			in2: uint32(i%5 + 2),
			out: uint32(i%11 + 7),
			op:  ckt.XOR,
		}
		if i%4 == 0 {
			g.op = ckt.AND
		}
		gates[i] = g
	}
	return gates
}

func writeCircuit(t *testing.T, path string, gates []gate,
	scratchSpace uint64, outputs []uint32) *Stats {
	t.Helper()

	w, err := NewWriter(path, 2, uint64(len(outputs)))
	require.NoError(t, err)
	for _, g := range gates {
		require.NoError(t, w.WriteGate(g.in1, g.in2, g.out, g.op))
	}
	stats, err := w.Finalize(scratchSpace, outputs)
	require.NoError(t, err)
	return stats
}

func TestRoundTrip(t *testing.T) {
	for _, numGates := range []int{1, ckt.GatesPerBlock - 1, ckt.GatesPerBlock,
		ckt.GatesPerBlock + 1, 50000} {
		gates := makeGates(numGates)
		outputs := []uint32{7, 17}
		path := filepath.Join(t.TempDir(), "circuit.dense")

		stats := writeCircuit(t, path, gates, 18, outputs)
		require.Equal(t, uint64(numGates), stats.TotalGates)

		r, err := OpenReader(path)
		require.NoError(t, err)
		require.Equal(t, uint64(numGates), r.Header().TotalGates())
		require.Equal(t, uint64(18), r.Header().ScratchSpace)
		require.Equal(t, outputs, r.Outputs())

		var got []gate
		blockIndex := uint64(0)
		for {
			chunk, err := r.NextChunk()
			require.NoError(t, err)
			if chunk == nil {
				break
			}
			for b := 0; b < chunk.NumBlocks(); b++ {
				block := chunk.Block(b)
				n := ckt.BlockNumGates(r.Header().TotalGates(), blockIndex)
				for i := 0; i < n; i++ {
					in1, in2, out := block.Gate(i)
					got = append(got, gate{in1, in2, out, block.Type(i)})
				}
				blockIndex++
			}
		}
		require.Equal(t, gates, got)

		chunk, err := r.NextChunk()
		require.NoError(t, err)
		require.Nil(t, chunk)

		require.NoError(t, r.Close())
	}
}

func TestReaderCloseAfterDrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.dense")
	writeCircuit(t, path, makeGates(1), 18, []uint32{7})

	r, err := OpenReader(path)
	require.NoError(t, err)
	for {
		chunk, err := r.NextChunk()
		require.NoError(t, err)
		if chunk == nil {
			break
		}
	}

	// Close must return even though the prefetcher has already exited.
	done := make(chan error, 1)
	go func() { done <- r.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after end of stream")
	}
}

func TestWriterCloseRemovesPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.dense")

	w, err := NewWriter(path, 2, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteGate(0, 1, 4, ckt.XOR))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestWriterCloseAfterFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.dense")

	w, err := NewWriter(path, 2, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteGate(0, 1, 4, ckt.XOR))
	_, err = w.Finalize(5, []uint32{4})
	require.NoError(t, err)

	// Finalized output survives a redundant Close.
	require.NoError(t, w.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, VerifyChecksum(path))
}

func TestScratchSpaceValidation(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(filepath.Join(dir, "a"), 2, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteGate(0, 1, 9, ckt.XOR))
	_, err = w.Finalize(9, []uint32{5})
	require.ErrorContains(t, err, "scratch space")

	w, err = NewWriter(filepath.Join(dir, "b"), 2, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteGate(0, 1, 4, ckt.XOR))
	_, err = w.Finalize(5, []uint32{4, 5})
	require.ErrorContains(t, err, "outputs")

	w, err = NewWriter(filepath.Join(dir, "c"), 2, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteGate(0, 1, 4, ckt.XOR))
	_, err = w.Finalize(ckt.MaxMemoryAddress+1, []uint32{4})
	require.ErrorContains(t, err, "addressable")
}

func TestVerifyChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.dense")
	writeCircuit(t, path, makeGates(100), 18, []uint32{7})

	require.NoError(t, VerifyChecksum(path))

	// Corrupt one byte inside the first gate block.
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(3*ckt.Alignment), fi.Size())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[2*ckt.Alignment+5] ^= 0x01
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	require.ErrorContains(t, VerifyChecksum(path), "checksum mismatch")
}

func TestStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.dense")
	stats := writeCircuit(t, path, []gate{
		{0, 1, 4, ckt.XOR},
		{4, 2, 5, ckt.AND},
		{5, 3, 6, ckt.AND},
	}, 7, []uint32{6})

	require.Equal(t, uint64(1), stats.XORGates)
	require.Equal(t, uint64(2), stats.ANDGates)
	require.Equal(t, uint64(7), stats.ScratchSpace)
	require.NotEqual(t, [ckt.ChecksumSize]byte{}, stats.Checksum)
}
