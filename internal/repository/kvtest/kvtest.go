// Package kvtest holds the behaviour every repositories.KVBackend must share.
// Backend packages run it from their own tests.
package kvtest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediscript/internal/domain/repositories"
)

// Values are JSON numbers so JSONB-backed stores return them byte for byte.

// Run exercises backend. Each subtest uses its own key.
func Run(t *testing.T, backend repositories.KVBackend) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		value, err := backend.Get(ctx, "kvtest:missing")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("update creates and replaces", func(t *testing.T) {
		key := "kvtest:create"
		var seen [][]byte
		for _, v := range []string{"1", "2"} {
			err := backend.Update(ctx, key, func(current []byte) ([]byte, error) {
				seen = append(seen, current)
				return []byte(v), nil
			})
			require.NoError(t, err)
		}
		assert.Nil(t, seen[0])
		assert.Equal(t, "1", string(seen[1]))

		value, err := backend.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "2", string(value))
	})

	t.Run("failed update leaves value", func(t *testing.T) {
		key := "kvtest:abort"
		require.NoError(t, backend.Update(ctx, key, set("7")))

		boom := errors.New("boom")
		err := backend.Update(ctx, key, func(current []byte) ([]byte, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		value, err := backend.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "7", string(value))
	})

	t.Run("delete", func(t *testing.T) {
		key := "kvtest:delete"
		require.NoError(t, backend.Update(ctx, key, set("1")))
		require.NoError(t, backend.Delete(ctx, key))

		value, err := backend.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, value)

		assert.NoError(t, backend.Delete(ctx, key), "deleting an absent key")
	})

	t.Run("concurrent updates serialize", func(t *testing.T) {
		key := "kvtest:counter"
		const writers = 20

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- backend.Update(ctx, key, increment)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		value, err := backend.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(writers), string(value))
	})
}

func set(v string) repositories.UpdateFn {
	return func([]byte) ([]byte, error) { return []byte(v), nil }
}

func increment(current []byte) ([]byte, error) {
	n := 0
	if len(current) > 0 {
		var err error
		if n, err = strconv.Atoi(string(current)); err != nil {
			return nil, err
		}
	}
	return []byte(strconv.Itoa(n + 1)), nil
}
