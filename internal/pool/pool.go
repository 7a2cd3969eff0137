// Package pool provides a generic object pool for the stateful
// crypto contexts (AES schedules, padded HMAC blocks, RSA scratch buffers)
// that the sig/enc/keymanage engines reuse across operations. It is built
// on sync.Pool, following the hashPool idiom of wrapping sync.Pool with a
// typed Get/Put surface rather than hand-rolling CAS slot arrays. The pool
// has no fixed capacity: sync.Pool keeps per-P freelists and decides on its
// own when idle values are dropped, so the number of values alive at once
// is not limited by this package.
package pool

import "sync"

// Pool is a typed wrapper around sync.Pool. New must never return nil.
type Pool[T any] struct {
	p sync.Pool
}

// New creates a Pool whose values are produced by newFn on demand.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get removes a value from the pool, or calls the pool's New function if
// the pool is empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put adds v to the pool for reuse. Callers must reset any sensitive state
// (key material, scratch buffers) before calling Put, since the next Get
// may hand the value to an unrelated caller.
func (p *Pool[T]) Put(v T) {
	p.p.Put(v)
}
