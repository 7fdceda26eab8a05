// Package collections has the small containers the render pipeline
// reuses every frame.
package collections

import "fmt"

// BinaryHeap is a min-heap ordered by less. data[0] is unused so that the
// children of i sit at 2i and 2i+1.
type BinaryHeap[T any] struct {
	data []T
	less func(a, b T) bool
}

func NewBinaryHeap[T any](less func(a, b T) bool, capacity int) *BinaryHeap[T] {
	return &BinaryHeap[T]{data: make([]T, 1, capacity+1), less: less}
}

func (h *BinaryHeap[T]) Len() int { return len(h.data) - 1 }

// Add inserts v, growing the backing array as needed.
func (h *BinaryHeap[T]) Add(v T) {
	h.data = append(h.data, v)
	h.up(h.Len())
}

// Peek returns the minimum without removing it.
func (h *BinaryHeap[T]) Peek() (T, bool) {
	if h.Len() == 0 {
		var zero T
		return zero, false
	}
	return h.data[1], true
}

// Remove extracts the minimum. It panics on an empty heap.
func (h *BinaryHeap[T]) Remove() T {
	if h.Len() == 0 {
		panic("collections: remove from empty heap")
	}
	return h.RemoveAt(0)
}

// RemoveAt removes the element at zero-based heap index i. Index 0 is the
// minimum; other indices follow the internal array order.
func (h *BinaryHeap[T]) RemoveAt(i int) T {
	n := h.Len()
	if i < 0 || i >= n {
		panic(fmt.Sprintf("collections: heap index %d out of range [0,%d)", i, n))
	}
	pos := i + 1
	v := h.data[pos]
	last := h.data[n]
	var zero T
	h.data[n] = zero
	h.data = h.data[:n]
	if pos != n {
		h.data[pos] = last
		if !h.down(pos) {
			h.up(pos)
		}
	}
	return v
}

// Clear drops every element but keeps the backing array.
func (h *BinaryHeap[T]) Clear() {
	clear(h.data)
	h.data = h.data[:1]
}

func (h *BinaryHeap[T]) up(i int) {
	for i > 1 {
		parent := i / 2
		if !h.less(h.data[i], h.data[parent]) {
			return
		}
		h.data[i], h.data[parent] = h.data[parent], h.data[i]
		i = parent
	}
}

// down sifts i towards the leaves and reports whether it moved.
func (h *BinaryHeap[T]) down(i int) bool {
	start := i
	n := h.Len()
	for {
		child := 2 * i
		if child > n {
			break
		}
		if child+1 <= n && h.less(h.data[child+1], h.data[child]) {
			child++
		}
		if !h.less(h.data[child], h.data[i]) {
			break
		}
		h.data[i], h.data[child] = h.data[child], h.data[i]
		i = child
	}
	return i != start
}

// valid checks the heap invariant; used by tests.
func (h *BinaryHeap[T]) valid() bool {
	n := h.Len()
	for i := 1; i <= n; i++ {
		for _, c := range [2]int{2 * i, 2*i + 1} {
			if c <= n && h.less(h.data[c], h.data[i]) {
				return false
			}
		}
	}
	return true
}
