// Package redis provides a Redis-backed key-value backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"mediscript/internal/domain/repositories"
)

// Backoff bounds between optimistic-lock retries when another client
// touched the key between WATCH and EXEC.
const (
	minRetryDelay = 2 * time.Millisecond
	maxRetryDelay = 100 * time.Millisecond
)

// Backend implements repositories.KVBackend using Redis strings.
type Backend struct {
	client *goredis.Client

	// locks serializes updates to a key within this process so WATCH only
	// has to arbitrate between processes.
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewBackend connects to the Redis server at redisURL (redis://host:port/db).
func NewBackend(redisURL string) (*Backend, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewBackendWithClient(client), nil
}

// NewBackendWithClient wraps an existing client.
func NewBackendWithClient(client *goredis.Client) *Backend {
	return &Backend{client: client, locks: make(map[string]chan struct{})}
}

// lock takes the in-process lock for key, giving up when ctx ends.
func (b *Backend) lock(ctx context.Context, key string) (func(), error) {
	b.mu.Lock()
	ch, ok := b.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		b.locks[key] = ch
	}
	b.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Update runs fn under WATCH and writes the result in a MULTI/EXEC block.
// Updates from this process are serialized per key; when another client
// changed the key in between, the transaction is retried with jittered
// backoff until it commits or ctx ends.
func (b *Backend) Update(ctx context.Context, key string, fn repositories.UpdateFn) error {
	unlock, err := b.lock(ctx, key)
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	defer unlock()

	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	delay := minRetryDelay
	for {
		err := b.client.Watch(ctx, txf, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}

		wait := delay/2 + rand.N(delay/2+1)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("update %s: %w", key, ctx.Err())
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (b *Backend) Close() error {
	return b.client.Close()
}
