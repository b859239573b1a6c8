package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Registry holds the live cells for one session. Binding the same name
// twice through one registry yields the same cell, so every consumer
// observes a single source of truth. A registry's lifetime is its
// owner's (typically one request or one client session), never the
// whole process.
type Registry struct {
	mu    sync.Mutex
	cells map[string]any
}

func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]any)}
}

// Cell binds an in-memory value to a persisted, expiring store entry.
// Writes go through Set, which replaces the value wholesale and flushes
// it to the store in the same call.
type Cell[T any] struct {
	name  string
	store Store
	value T
}

// Bind returns the cell registered under name, creating it on first
// use. A new cell is seeded from the store when a persisted value
// exists; otherwise it starts at T's zero value.
func Bind[T any](ctx context.Context, reg *Registry, store Store, name string) (*Cell[T], error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if existing, ok := reg.cells[name]; ok {
		cell, ok := existing.(*Cell[T])
		if !ok {
			return nil, fmt.Errorf("state: %q is already bound to a different type", name)
		}
		return cell, nil
	}

	cell := &Cell[T]{name: name, store: store}

	data, ok, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("state: load %q: %w", name, err)
	}
	if ok {
		if err := json.Unmarshal(data, &cell.value); err != nil {
			return nil, fmt.Errorf("state: decode %q: %w", name, err)
		}
	}

	reg.cells[name] = cell
	return cell, nil
}

func (c *Cell[T]) Get() T {
	return c.value
}

// Set replaces the value and mirrors it into the store, refreshing the
// TTL. The in-memory value is updated even when the store write fails.
func (c *Cell[T]) Set(ctx context.Context, value T) error {
	c.value = value

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", c.name, err)
	}
	if err := c.store.Set(ctx, c.name, data); err != nil {
		return fmt.Errorf("state: persist %q: %w", c.name, err)
	}
	return nil
}
