// Package hooks provides named extension points. A Chain holds ordered
// transformation functions of one value type; Apply threads a value
// through them in registration order.
package hooks

import (
	"context"
	"sync"
)

// Func transforms a value at an extension point.
type Func[T any] func(ctx context.Context, v T) T

type entry[T any] struct {
	name string
	fn   Func[T]
}

// Chain is an ordered list of named transformations.
// The zero value is an empty chain ready for use.
type Chain[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
}

// Register appends fn under name. Registering an existing name replaces
// that function in place, keeping its position.
func (c *Chain[T]) Register(name string, fn Func[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].name == name {
			c.entries[i].fn = fn
			return
		}
	}
	c.entries = append(c.entries, entry[T]{name: name, fn: fn})
}

// Remove drops the function registered under name.
// Returns false if nothing was registered under it.
func (c *Chain[T]) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].name == name {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Names returns the registered names in order.
func (c *Chain[T]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Apply passes v through every function in order and returns the result.
// A nil chain returns v unchanged.
func (c *Chain[T]) Apply(ctx context.Context, v T) T {
	if c == nil {
		return v
	}
	c.mu.RLock()
	entries := make([]entry[T], len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	for _, e := range entries {
		v = e.fn(ctx, v)
	}
	return v
}
