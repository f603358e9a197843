package wakeengine

import "sync"

// HandoffChannel is an unbounded, many-to-many-safe blocking queue of
// batches-of-float32 between pipeline stages (spec.md §4.2). It carries an
// exhausted sentinel that lets a producer signal end-of-stream once all of
// its prior pushes have been drained by every consumer.
//
// Unlike pkg/buffer's BlockBuffer (which this type is grounded on), a
// HandoffChannel moves whole batches rather than byte ranges: each Push
// enqueues one []float32 slice, and Pull dequeues exactly one slice per
// call. This matches the stage contract in spec.md §4.3–§4.5, where each
// worker iteration produces (and expects) one batch at a time.
type HandoffChannel struct {
	mu        sync.Mutex
	cond      *sync.Cond
	queue     [][]float32
	exhausted bool
}

// NewHandoffChannel creates an empty, non-exhausted channel.
func NewHandoffChannel() *HandoffChannel {
	h := &HandoffChannel{}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Push appends batch to the channel and wakes one waiting consumer.
// Pushing to an already-exhausted channel is a no-op; callers must not
// call SetExhausted before all of their data has been pushed.
func (h *HandoffChannel) Push(batch []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exhausted {
		return
	}
	h.queue = append(h.queue, batch)
	h.cond.Signal()
}

// Pull blocks until a batch is available or the channel is exhausted. Once
// exhausted and drained, Pull returns a nil batch immediately on every
// subsequent call, so a consumer loop can simply check `len(batch) == 0 &&
// h.IsExhausted()` to detect end-of-stream.
func (h *HandoffChannel) Pull() []float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.queue) == 0 && !h.exhausted {
		h.cond.Wait()
	}
	if len(h.queue) == 0 {
		return nil
	}
	batch := h.queue[0]
	h.queue = h.queue[1:]
	return batch
}

// SetExhausted marks the channel as end-of-stream and wakes all waiters.
// Idempotent: calling it again with the same value has no effect. Every
// batch pushed before this call remains
// observable to Pull until drained.
func (h *HandoffChannel) SetExhausted(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exhausted == v {
		return
	}
	h.exhausted = v
	h.cond.Broadcast()
}

// IsExhausted reports true only once the exhausted flag is set and the
// internal queue has been fully drained.
func (h *HandoffChannel) IsExhausted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exhausted && len(h.queue) == 0
}
