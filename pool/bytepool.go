// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed size-class byte pool with single-owner buffers.

package pool

import (
	"sync"
	"sync/atomic"
)

// BytePool hands out Buffers backed by slabs of one size class.
// Requests larger than the class are served by plain allocations that
// are dropped on Release instead of being recycled.
type BytePool struct {
	class int
	slabs sync.Pool

	totalAlloc  atomic.Int64
	totalFree   atomic.Int64
	doubleFrees atomic.Int64
}

// Stats aggregates allocation and reuse counters.
type Stats struct {
	TotalAlloc  int64
	TotalFree   int64
	InUse       int64
	DoubleFrees int64
}

// NewBytePool creates a pool whose slabs hold class bytes.
func NewBytePool(class int) *BytePool {
	if class <= 0 {
		class = 1024
	}
	p := &BytePool{class: class}
	p.slabs.New = func() any {
		b := make([]byte, class)
		return &b
	}
	return p
}

// Class returns the slab size.
func (p *BytePool) Class() int {
	return p.class
}

// Get returns a Buffer of exactly n bytes. The contents are not zeroed.
func (p *BytePool) Get(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	p.totalAlloc.Add(1)
	if n > p.class {
		return &Buffer{data: make([]byte, n), pool: p}
	}
	slab := p.slabs.Get().(*[]byte)
	return &Buffer{data: (*slab)[:n], slab: slab, pool: p}
}

// Copy returns a pooled Buffer holding a copy of src.
func (p *BytePool) Copy(src []byte) *Buffer {
	b := p.Get(len(src))
	copy(b.data, src)
	return b
}

// Stats reports the pool counters.
func (p *BytePool) Stats() Stats {
	alloc := p.totalAlloc.Load()
	free := p.totalFree.Load()
	return Stats{
		TotalAlloc:  alloc,
		TotalFree:   free,
		InUse:       alloc - free,
		DoubleFrees: p.doubleFrees.Load(),
	}
}

func (p *BytePool) put(b *Buffer) {
	p.totalFree.Add(1)
	if b.slab != nil {
		p.slabs.Put(b.slab)
	}
}

// Buffer is an owned byte region. Exactly one holder may call Release;
// the buffer must not be touched afterwards.
type Buffer struct {
	data     []byte
	slab     *[]byte
	pool     *BytePool
	released atomic.Bool
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the number of valid bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Release returns the buffer to its pool. It reports false when the
// buffer had already been released; the second release is a no-op.
func (b *Buffer) Release() bool {
	if b == nil {
		return false
	}
	if !b.released.CompareAndSwap(false, true) {
		if b.pool != nil {
			b.pool.doubleFrees.Add(1)
		}
		return false
	}
	if b.pool != nil {
		b.pool.put(b)
	}
	b.data = nil
	b.slab = nil
	return true
}
