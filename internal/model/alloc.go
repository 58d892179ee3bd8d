package model

import "fmt"

// Allocator hands out zeroed pixel buffers. A nil Allocator means the
// Go heap with no budget.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// Heap is a byte-budgeted Allocator. It models the few tens of
// kilobytes a watch app may hold at once.
type Heap struct {
	Limit int // Budget in bytes; 0 means unlimited
	used  int
	peak  int
}

// NewHeap creates a heap with the given byte budget
func NewHeap(limit int) *Heap {
	return &Heap{Limit: limit}
}

// Alloc returns a zeroed buffer of n bytes or ErrOutOfMemory
func (h *Heap) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative allocation %d", ErrUsage, n)
	}
	if h.Limit > 0 && h.used+n > h.Limit {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, n, h.used, h.Limit)
	}
	h.used += n
	if h.used > h.peak {
		h.peak = h.used
	}
	return make([]byte, n), nil
}

// Free returns a buffer's bytes to the budget
func (h *Heap) Free(b []byte) {
	h.used -= len(b)
	if h.used < 0 {
		h.used = 0
	}
}

// Used returns the bytes currently allocated
func (h *Heap) Used() int { return h.used }

// Peak returns the high-water mark
func (h *Heap) Peak() int { return h.peak }

func alloc(a Allocator, n int) ([]byte, error) {
	if a == nil {
		return make([]byte, n), nil
	}
	return a.Alloc(n)
}
