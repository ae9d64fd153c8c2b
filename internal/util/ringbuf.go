package util

import "sync"

// RingBuffer keeps the last cap items pushed. Safe for concurrent use.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	buf   []T
	head  int
	count int
}

// NewRingBuffer creates a ring buffer holding at most capacity items.
// A capacity below one is raised to one.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{buf: make([]T, capacity)}
}

// Push appends item, dropping the oldest when full.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	r.buf[(r.head+r.count)%len(r.buf)] = item
	if r.count == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
	} else {
		r.count++
	}
	r.mu.Unlock()
}

// Snapshot returns every stored item, oldest first.
func (r *RingBuffer[T]) Snapshot() []T {
	return r.Last(-1)
}

// Last returns the newest n items, oldest first. n < 0 means all of them.
func (r *RingBuffer[T]) Last(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n < 0 || n > r.count {
		n = r.count
	}
	out := make([]T, n)
	start := r.head + r.count - n
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
