// Package reactive provides observable values with explicit subscription.
package reactive

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Cell is a mutable value that notifies subscribers on every Set.
// It is safe for concurrent use. Subscribers run synchronously, in
// registration order, after the cell lock is released.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID int
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores value and notifies subscribers.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	c.value = value
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Update replaces the value with fn(current) and notifies subscribers.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	c.value = fn(c.value)
	value := c.value
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Subscribe registers fn to be called with every new value.
// The returned function removes the subscription; calling it more than
// once is a no-op.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}
