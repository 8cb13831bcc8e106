package execution

import "sync"

// Pool is a bounded reservoir of pre-allocated entries for the hot
// path. Acquire hands out a free entry or reports exhaustion; Release
// returns it. Entries are reused in place, nothing is reset on release.
type Pool[T any] struct {
	mu      sync.Mutex
	entries []T
	free    []*T
}

// NewPool pre-allocates size entries.
func NewPool[T any](size int) *Pool[T] {
	p := &Pool[T]{
		entries: make([]T, size),
		free:    make([]*T, 0, size),
	}
	for i := range p.entries {
		p.free = append(p.free, &p.entries[i])
	}
	return p
}

// Acquire returns a free entry, or false when the pool is exhausted.
func (p *Pool[T]) Acquire() (*T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, false
	}
	v := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return v, true
}

// Release returns an entry to the free list. The caller must not touch
// it afterwards.
func (p *Pool[T]) Release(v *T) {
	if v == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, v)
}

// Available returns the number of free entries.
func (p *Pool[T]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
