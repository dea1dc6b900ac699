// Package bufpool provides size-classed pools of scratch byte buffers.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// classSizes are the capacities of pooled buffers. Requests larger than the
// last class are allocated directly and dropped on Put.
var classSizes = []int{
	4 << 10,  // 4 KB
	64 << 10, // 64 KB
	1 << 20,  // 1 MB
	4 << 20,  // 4 MB
	16 << 20, // 16 MB
	64 << 20, // 64 MB
}

// Pool manages reusable byte buffers. The zero value is not usable; call New.
type Pool struct {
	classes []sync.Pool
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{classes: make([]sync.Pool, len(classSizes))}
}

// Default is the pool shared by the snapshot codec.
var Default = New()

// class returns the index of the smallest class holding size bytes, or -1.
func class(size int) int {
	for i, s := range classSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// Get returns a buffer of length size. Its contents are undefined.
func (p *Pool) Get(size int) []byte {
	idx := class(size)
	if idx < 0 {
		p.misses.Add(1)
		return make([]byte, size)
	}
	if v := p.classes[idx].Get(); v != nil {
		p.hits.Add(1)
		return (*v.(*[]byte))[:size]
	}
	p.misses.Add(1)
	return make([]byte, size, classSizes[idx])
}

// Put returns buf to the pool. Only buffers obtained from Get are kept;
// anything else is left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	idx := class(cap(buf))
	if idx < 0 || cap(buf) != classSizes[idx] {
		return
	}
	buf = buf[:0]
	p.classes[idx].Put(&buf)
}

// Stats returns the number of Get calls served from the pool and the number
// that allocated.
func (p *Pool) Stats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}
