//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package runner

import (
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// HashWriter forwards writes to an inner writer while hashing every
// byte that passes through. Used to digest garbled tables as they are
// streamed out, without a second pass over the material.
type HashWriter struct {
	inner  io.Writer
	hasher hash.Hash
}

// NewHashWriter wraps a writer with a BLAKE2b-256 digest.
func NewHashWriter(inner io.Writer) *HashWriter {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		// Unkeyed construction cannot fail.
		panic(err)
	}
	return &HashWriter{inner: inner, hasher: hasher}
}

// Write forwards buf to the inner writer and hashes the bytes it
// accepted.
func (w *HashWriter) Write(buf []byte) (int, error) {
	n, err := w.inner.Write(buf)
	w.hasher.Write(buf[:n])
	return n, err
}

// Flush forwards to the inner writer when it supports flushing.
func (w *HashWriter) Flush() error {
	if f, ok := w.inner.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Sum returns the digest of everything written so far.
func (w *HashWriter) Sum() [32]byte {
	var out [32]byte
	copy(out[:], w.hasher.Sum(nil))
	return out
}

// Inner returns the wrapped writer.
func (w *HashWriter) Inner() io.Writer {
	return w.inner
}
