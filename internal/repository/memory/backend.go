// Package memory provides an in-process key-value backend.
package memory

import (
	"context"
	"sync"

	"mediscript/internal/domain/repositories"
)

// Backend is a mutex-guarded map. Values are copied on the way in and out.
type Backend struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{values: make(map[string][]byte)}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.values[key]), nil
}

func (b *Backend) Update(ctx context.Context, key string, fn repositories.UpdateFn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := fn(clone(b.values[key]))
	if err != nil {
		return err
	}
	b.values[key] = clone(next)
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}

func (b *Backend) Close() error {
	return nil
}

func clone(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
