//
// Copyright (c) 2026 Alpen Labs
//
// All rights reserved.
//

package prealloc

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// ErrDoubleFree signals a deallocation of a slot that is not
// currently allocated. Allocator state is corrupt past this point.
var ErrDoubleFree = errors.New("slot double free")

type slotHeap []uint32

func (h slotHeap) Len() int            { return len(h) }
func (h slotHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *slotHeap) Push(x interface{}) { *h = append(*h, x.(uint32)) }
func (h *slotHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// SlotAllocator hands out dense addresses, always preferring the
// lowest free slot so the address range stays minimal. The high-water
// mark is the number of slots concurrently allocated at peak, which
// is exactly the scratch space the circuit requires.
type SlotAllocator struct {
	next      uint32
	freed     slotHeap
	allocated *bitset.BitSet
	highWater uint64
}

// NewSlotAllocator creates an empty allocator.
func NewSlotAllocator() *SlotAllocator {
	return &SlotAllocator{
		allocated: bitset.New(1024),
	}
}

// Allocate returns the lowest free slot, reusing freed slots before
// growing the range.
func (a *SlotAllocator) Allocate() uint32 {
	var slot uint32
	if len(a.freed) > 0 {
		slot = heap.Pop(&a.freed).(uint32)
	} else {
		slot = a.next
		a.next++
	}
	a.allocated.Set(uint(slot))

	if inUse := uint64(a.next) - uint64(len(a.freed)); inUse > a.highWater {
		a.highWater = inUse
	}
	return slot
}

// Deallocate returns a slot to the reuse pool.
func (a *SlotAllocator) Deallocate(slot uint32) error {
	if !a.allocated.Test(uint(slot)) {
		return fmt.Errorf("slot %d: %w", slot, ErrDoubleFree)
	}
	a.allocated.Clear(uint(slot))
	heap.Push(&a.freed, slot)
	return nil
}

// Allocated returns the number of currently allocated slots.
func (a *SlotAllocator) Allocated() uint64 {
	return uint64(a.next) - uint64(len(a.freed))
}

// HighWater returns the maximum number of concurrently allocated
// slots observed so far.
func (a *SlotAllocator) HighWater() uint64 {
	return a.highWater
}
