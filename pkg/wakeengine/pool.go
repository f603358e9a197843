package wakeengine

import "sync"

// ScratchPool is a bounded LIFO pool of pre-allocated float32 scratch
// buffers, used by the host to avoid per-chunk allocation on the audio
// ingress hot path (spec.md §5, shared resource (b)). Borrow blocks when
// the pool is empty; buffers are returned LIFO so recently used (and
// likely still cache-warm) buffers are handed out first.
//
// Grounded on the pack's sync.Cond-based blocking buffer idiom
// (pkg/buffer.BlockBuffer), adapted from a data queue to a free-list of
// reusable slices.
type ScratchPool struct {
	mu    sync.Mutex
	cond  *sync.Cond
	free  [][]float32
	width int
}

// NewScratchPool creates a pool of `depth` buffers, each of length width.
func NewScratchPool(depth, width int) *ScratchPool {
	p := &ScratchPool{width: width}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < depth; i++ {
		p.free = append(p.free, make([]float32, width))
	}
	return p
}

// Borrow blocks until a buffer is available, then removes and returns it.
// The returned slice has length equal to the pool's configured width.
func (p *ScratchPool) Borrow() []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.free) == 0 {
		p.cond.Wait()
	}
	last := len(p.free) - 1
	buf := p.free[last]
	p.free = p.free[:last]
	return buf
}

// Return pushes buf back onto the pool and wakes one waiting borrower.
// buf must have been obtained from this pool's Borrow.
func (p *ScratchPool) Return(buf []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, buf[:p.width])
	p.cond.Signal()
}
