// Package ring provides a fixed-capacity FIFO ring buffer for bounded
// histories. When full, the oldest entry is evicted to make room.
package ring

import "sync"

// Ring is a thread-safe fixed-capacity ring buffer. Appending to a full ring
// drops the oldest entry. The zero value is not usable; call New.
type Ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest entry
	dropped  uint64
}

// New creates a ring buffer with the given capacity. Capacities below 1 are
// raised to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Append adds an item, evicting the oldest entry if the ring is full.
func (r *Ring[T]) Append(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == r.capacity {
		r.tail = (r.tail + 1) % r.capacity
		r.size--
		r.dropped++
	}
	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	r.size++
}

// Snapshot returns the current contents oldest-first. The returned slice is a
// copy; callers may mutate it freely.
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.tail+i)%r.capacity]
	}
	return out
}

// Resize changes the capacity, keeping the most recent entries when shrinking.
// Order is preserved. Capacities below 1 are raised to 1.
func (r *Ring[T]) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if capacity == r.capacity {
		return
	}

	keep := r.size
	if keep > capacity {
		keep = capacity
	}
	items := make([]T, capacity)
	// Copy the most recent `keep` entries oldest-first.
	start := r.size - keep
	for i := 0; i < keep; i++ {
		items[i] = r.items[(r.tail+start+i)%r.capacity]
	}

	r.items = items
	r.capacity = capacity
	r.size = keep
	r.tail = 0
	r.head = keep % capacity
}

// Len returns the number of entries currently held.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity returns the maximum number of entries.
func (r *Ring[T]) Capacity() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capacity
}

// Dropped returns the number of entries evicted due to overflow.
func (r *Ring[T]) Dropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}
