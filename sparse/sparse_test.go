//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package sparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alpenlabs/ckt"
)

// makeGates builds a deterministic gate sequence exercising the full
// 34-bit ID and 24-bit credit ranges.
func makeGates(n int) []Gate {
	gates := make([]Gate, n)
	for i := range gates {
		g := Gate{
			In1:     uint64(i) * 7 % (ckt.MaxWireID + 1),
			In2:     uint64(i)*13 + 5,
			Out:     ckt.MaxWireID - uint64(i),
			Credits: uint32(i) % (ckt.MaxCredits + 1),
			Op:      ckt.XOR,
		}
		if i%3 == 0 {
			g.Op = ckt.AND
		}
		gates[i] = g
	}
	return gates
}

func writeCircuit(t *testing.T, path string, primaryInputs uint64,
	outputs []uint64, gates []Gate) *ckt.Header {
	t.Helper()

	w, err := NewWriter(path, primaryInputs, outputs)
	require.NoError(t, err)
	for _, g := range gates {
		require.NoError(t, w.WriteGate(g))
	}
	header, err := w.Finalize()
	require.NoError(t, err)
	return header
}

func TestRoundTrip(t *testing.T) {
	for _, numGates := range []int{1, 255, 256, 257, 1000} {
		gates := makeGates(numGates)
		outputs := []uint64{42, ckt.MaxWireID}
		path := filepath.Join(t.TempDir(), "circuit.sparse")

		header := writeCircuit(t, path, 3, outputs, gates)
		require.Equal(t, uint64(numGates), header.TotalGates())
		require.Equal(t, uint64(3), header.PrimaryInputs)

		r, err := OpenReader(path)
		require.NoError(t, err)
		require.Equal(t, header, r.Header())
		require.Equal(t, outputs, r.Outputs())

		var got []Gate
		for {
			b, err := r.NextBlock()
			require.NoError(t, err)
			if b == nil {
				break
			}
			for i := 0; i < b.NumGates; i++ {
				got = append(got, b.Gate(i))
			}
		}
		require.Equal(t, gates, got)

		// End of stream is sticky.
		b, err := r.NextBlock()
		require.NoError(t, err)
		require.Nil(t, b)

		require.NoError(t, r.Close())
	}
}

func TestReaderCloseAfterDrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.sparse")
	writeCircuit(t, path, 2, []uint64{4}, makeGates(1))

	r, err := OpenReader(path)
	require.NoError(t, err)
	for {
		b, err := r.NextBlock()
		require.NoError(t, err)
		if b == nil {
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

func TestGateCounts(t *testing.T) {
	gates := []Gate{
		{In1: 0, In2: 1, Out: 2, Credits: 1, Op: ckt.XOR},
		{In1: 2, In2: 1, Out: 3, Credits: 1, Op: ckt.AND},
		{In1: 3, In2: 0, Out: 4, Credits: 0, Op: ckt.AND},
	}
	path := filepath.Join(t.TempDir(), "circuit.sparse")
	header := writeCircuit(t, path, 2, []uint64{4}, gates)

	require.Equal(t, uint64(1), header.XORGates)
	require.Equal(t, uint64(2), header.ANDGates)
	require.Equal(t, uint64(1), header.NumOutputs)
}

func TestWriterValidation(t *testing.T) {
	dir := t.TempDir()

	_, err := NewWriter(filepath.Join(dir, "a"), 2,
		[]uint64{ckt.MaxWireID + 1})
	require.Error(t, err)

	w, err := NewWriter(filepath.Join(dir, "b"), 2, []uint64{4})
	require.NoError(t, err)
	require.Error(t, w.WriteGate(Gate{In1: ckt.MaxWireID + 1, Op: ckt.XOR}))
	require.Error(t, w.WriteGate(Gate{Credits: ckt.MaxCredits + 1, Op: ckt.XOR}))
	require.Error(t, w.WriteGate(Gate{Op: ckt.GateType(7)}))
	_, err = w.Finalize()
	require.NoError(t, err)
}

func TestVerifyChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.sparse")
	writeCircuit(t, path, 2, []uint64{4}, makeGates(300))

	require.NoError(t, VerifyChecksum(path))

	// Flip one bit in the second gate block.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[ckt.SparseHeaderSize+ckt.SparseOutputEntrySize+ckt.SparseBlockSize+17] ^= 0x01
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	require.ErrorContains(t, VerifyChecksum(path), "checksum mismatch")
}

func TestTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.sparse")
	writeCircuit(t, path, 2, []uint64{4}, makeGates(600))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-100], 0o644))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var lastErr error
	for {
		b, err := r.NextBlock()
		if err != nil {
			lastErr = err
			break
		}
		if b == nil {
			break
		}
	}
	require.Error(t, lastErr)
}

func TestOutputsOnly(t *testing.T) {
	outputs := []uint64{1, 2, 3}
	path := filepath.Join(t.TempDir(), "circuit.sparse")
	writeCircuit(t, path, 2, outputs,
		[]Gate{{In1: 0, In2: 1, Out: 3, Credits: 0, Op: ckt.XOR}})

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, outputs, r.Outputs())
	require.Equal(t, uint64(3), r.Header().NumOutputs)
}
