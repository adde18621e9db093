//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package sparse

import (
	"crypto/subtle"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/alpenlabs/ckt"
)

// VerifyChecksum recomputes the content checksum of a sparse circuit
// file and compares it against the header. The checksum covers the
// gate blocks, the output table, and the header with a zeroed
// checksum field, in that order.
func VerifyChecksum(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdrBuf := make([]byte, ckt.SparseHeaderSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		return fmt.Errorf("reading sparse header: %w", err)
	}
	header, err := ckt.ParseSparseHeader(hdrBuf)
	if err != nil {
		return err
	}

	outputsBytes := make([]byte, header.NumOutputs*ckt.SparseOutputEntrySize)
	if _, err := io.ReadFull(f, outputsBytes); err != nil {
		return fmt.Errorf("reading outputs: %w", err)
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	blockBytes := int64(ckt.SparseNumBlocks(header.TotalGates())) *
		ckt.SparseBlockSize
	if n, err := io.CopyN(hasher, f, blockBytes); err != nil {
		return fmt.Errorf("hashing gate blocks (%d/%d bytes): %w",
			n, blockBytes, err)
	}

	hasher.Write(outputsBytes)
	unsealed := *header
	unsealed.Checksum = [ckt.ChecksumSize]byte{}
	hasher.Write(unsealed.MarshalSparse())

	if subtle.ConstantTimeCompare(hasher.Sum(nil), header.Checksum[:]) != 1 {
		return fmt.Errorf("checksum mismatch for %s", path)
	}
	return nil
}
