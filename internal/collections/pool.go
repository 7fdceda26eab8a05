package collections

import "sync/atomic"

// SlicePool recycles slices through a buffered channel. When the pool is
// empty Get allocates; when it is full Put drops the slice.
type SlicePool[T any] struct {
	pool     chan []T
	capacity int
	getCnt   atomic.Uint32
	putCnt   atomic.Uint32
}

// NewSlicePool keeps up to size slices, each allocated with room for
// capacity elements.
func NewSlicePool[T any](size, capacity int) *SlicePool[T] {
	return &SlicePool[T]{pool: make(chan []T, size), capacity: capacity}
}

// Get returns an empty slice owned by the caller until Put.
func (p *SlicePool[T]) Get() []T {
	select {
	case s := <-p.pool:
		p.getCnt.Add(1)
		return s
	default:
		return make([]T, 0, p.capacity)
	}
}

// Put clears s and returns it to the pool.
func (p *SlicePool[T]) Put(s []T) {
	if s == nil {
		return
	}
	clear(s[:cap(s)])
	s = s[:0]
	select {
	case p.pool <- s:
		p.putCnt.Add(1)
	default:
	}
}

// Stats reports how many slices were reused and returned.
func (p *SlicePool[T]) Stats() (reused, returned uint32) {
	return p.getCnt.Load(), p.putCnt.Load()
}

// With runs fn with a pooled slice and returns the slice fn hands back,
// which may have grown, to the pool.
func With[T any](p *SlicePool[T], fn func(buf []T) []T) {
	buf := p.Get()
	defer func() { p.Put(buf) }()
	buf = fn(buf)
}
