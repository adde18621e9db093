//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

// Package prealloc converts a sparse wire-ID circuit into a dense
// memory-address circuit. It tracks live wires in a compressed
// associative index, hands out dense slots through a reusing
// allocator, and certifies the resulting scratch-space requirement.
package prealloc

import (
	"errors"
	"fmt"
)

var (
	// ErrCollisionOverflow signals that a wire index bucket had no
	// room for an insert. This cannot happen for distinct 34-bit IDs
	// and is treated as fatal corruption.
	ErrCollisionOverflow = errors.New("wire index bucket overflow")

	// ErrUnknownWire signals a reference to a wire outside its
	// lifetime window: never produced, or already fully consumed.
	ErrUnknownWire = errors.New("unknown wire")
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotAvailable
	slotWaiting
)

// indexEntry is one of the four ways a bucket slot can be occupied.
// Available holds a produced wire's dense slot and remaining credits.
// Waiting is the inline single-pending-consumer encoding for a wire
// consumed before its producing gate has been seen.
type indexEntry struct {
	state    slotState
	residual uint8
	slot     uint32
	credits  uint32
	waiter   uint32
}

// WireIndex maps live 34-bit sparse wire IDs to their dense slot and
// remaining credits. The ID is split into a 32-bit primary key and a
// 2-bit residual; the primary key selects a bucket of four slots
// disambiguated by the residual, absorbing the collisions the
// truncation introduces.
type WireIndex struct {
	buckets map[uint32]*[4]indexEntry
	live    int
}

// NewWireIndex creates an empty wire index.
func NewWireIndex() *WireIndex {
	return &WireIndex{
		buckets: make(map[uint32]*[4]indexEntry),
	}
}

func splitID(id uint64) (key uint32, residual uint8) {
	return uint32(id), uint8(id >> 32)
}

// find returns the occupied bucket slot holding id, or nil.
func (x *WireIndex) find(id uint64) *indexEntry {
	key, residual := splitID(id)
	bucket, ok := x.buckets[key]
	if !ok {
		return nil
	}
	for i := range bucket {
		if bucket[i].state != slotEmpty && bucket[i].residual == residual {
			return &bucket[i]
		}
	}
	return nil
}

// Insert records a produced wire with its dense slot and declared
// fan-out. If a consumer was already enqueued for the wire, the
// pending consumption is settled: one credit is charged and the
// waiter token is returned. A wire whose credits are exhausted by its
// waiter is removed immediately; zero-credit wires with no waiter are
// declared circuit outputs and stay live indefinitely.
func (x *WireIndex) Insert(id uint64, slot, credits uint32) (
	waiter uint32, hadWaiter bool, err error) {

	key, residual := splitID(id)
	bucket, ok := x.buckets[key]
	if !ok {
		bucket = &[4]indexEntry{}
		x.buckets[key] = bucket
	}

	var free *indexEntry
	for i := range bucket {
		e := &bucket[i]
		switch {
		case e.state == slotEmpty:
			if free == nil {
				free = e
			}
		case e.residual == residual:
			if e.state == slotWaiting {
				if credits == 0 {
					return 0, false, fmt.Errorf(
						"wire %d: pending consumer on an output wire: %w",
						id, ErrUnknownWire)
				}
				waiter, hadWaiter = e.waiter, true
				if credits == 1 {
					x.clear(key, e)
					return waiter, hadWaiter, nil
				}
				*e = indexEntry{
					state:    slotAvailable,
					residual: residual,
					slot:     slot,
					credits:  credits - 1,
				}
				return waiter, hadWaiter, nil
			}
			return 0, false, fmt.Errorf("wire %d inserted twice: %w",
				id, ErrCollisionOverflow)
		}
	}
	if free == nil {
		return 0, false, fmt.Errorf("wire %d: %w", id, ErrCollisionOverflow)
	}

	*free = indexEntry{
		state:    slotAvailable,
		residual: residual,
		slot:     slot,
		credits:  credits,
	}
	x.live++
	return 0, false, nil
}

// Consume charges one credit against a live wire and returns its
// dense slot. When the last credit is spent the entry is removed and
// dead reports true: the slot is ready for reclamation.
func (x *WireIndex) Consume(id uint64) (slot uint32, dead bool, err error) {
	e := x.find(id)
	if e == nil || e.state != slotAvailable {
		return 0, false, fmt.Errorf("wire %d: %w", id, ErrUnknownWire)
	}
	if e.credits == 0 {
		// Declared circuit output: never consumed.
		return 0, false, fmt.Errorf("wire %d is a declared output: %w",
			id, ErrUnknownWire)
	}

	slot = e.slot
	e.credits--
	if e.credits == 0 {
		key, _ := splitID(id)
		x.clear(key, e)
		return slot, true, nil
	}
	return slot, false, nil
}

// Lookup returns a live wire's dense slot without charging credits.
// Used for output-wire queries after the pass.
func (x *WireIndex) Lookup(id uint64) (uint32, error) {
	e := x.find(id)
	if e == nil || e.state != slotAvailable {
		return 0, fmt.Errorf("wire %d: %w", id, ErrUnknownWire)
	}
	return e.slot, nil
}

// EnqueueWaiting records a single pending consumer for a wire that
// has not been produced yet. The waiter token is handed back by the
// Insert that eventually produces the wire.
func (x *WireIndex) EnqueueWaiting(id uint64, waiter uint32) error {
	key, residual := splitID(id)
	bucket, ok := x.buckets[key]
	if !ok {
		bucket = &[4]indexEntry{}
		x.buckets[key] = bucket
	}

	var free *indexEntry
	for i := range bucket {
		e := &bucket[i]
		if e.state == slotEmpty {
			if free == nil {
				free = e
			}
			continue
		}
		if e.residual == residual {
			return fmt.Errorf("wire %d already has an entry: %w",
				id, ErrCollisionOverflow)
		}
	}
	if free == nil {
		return fmt.Errorf("wire %d: %w", id, ErrCollisionOverflow)
	}

	*free = indexEntry{
		state:    slotWaiting,
		residual: residual,
		waiter:   waiter,
	}
	x.live++
	return nil
}

// Live returns the number of wires currently tracked.
func (x *WireIndex) Live() int {
	return x.live
}

func (x *WireIndex) clear(key uint32, e *indexEntry) {
	*e = indexEntry{}
	x.live--

	bucket := x.buckets[key]
	for i := range bucket {
		if bucket[i].state != slotEmpty {
			return
		}
	}
	delete(x.buckets, key)
}
