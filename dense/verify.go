//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package dense

import (
	"crypto/subtle"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/alpenlabs/ckt"
)

// VerifyChecksum recomputes the content checksum of a dense circuit
// file and compares it against the header. The checksum covers the
// gate blocks, the padded output section, and the padded header
// section with the checksum field skipped, in that order.
func VerifyChecksum(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hdrBuf := make([]byte, ckt.DenseHeaderSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		return fmt.Errorf("reading dense header: %w", err)
	}
	header, err := ckt.ParseDenseHeader(hdrBuf)
	if err != nil {
		return err
	}

	outputsPadded := make([]byte,
		ckt.PaddedSize(int(header.NumOutputs)*ckt.OutputEntrySize))
	if _, err := f.ReadAt(outputsPadded, int64(ckt.Alignment)); err != nil {
		return fmt.Errorf("reading outputs: %w", err)
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return err
	}

	blocksOffset := int64(ckt.Alignment) + int64(len(outputsPadded))
	if _, err := f.Seek(blocksOffset, io.SeekStart); err != nil {
		return err
	}
	blockBytes := int64(ckt.NumBlocks(header.TotalGates())) * ckt.BlockSize
	if n, err := io.CopyN(hasher, f, blockBytes); err != nil {
		return fmt.Errorf("hashing blocks (%d/%d bytes): %w", n, blockBytes, err)
	}

	hasher.Write(outputsPadded)
	unsealed := *header
	unsealed.Checksum = [ckt.ChecksumSize]byte{}
	hdrBytes := unsealed.MarshalDense()
	hasher.Write(hdrBytes[:10])
	hasher.Write(hdrBytes[10+ckt.ChecksumSize:])
	hasher.Write(make([]byte, ckt.Alignment-ckt.DenseHeaderSize))

	if subtle.ConstantTimeCompare(hasher.Sum(nil), header.Checksum[:]) != 1 {
		return fmt.Errorf("checksum mismatch for %s", path)
	}
	return nil
}
