package kv_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grimoire/pkg/kv"
	"github.com/dmitrymomot/grimoire/pkg/logger"
)

func newTestStore(t *testing.T) (*kv.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := kv.NewFromClient(client,
		kv.WithLogger(logger.Discard()),
		kv.WithOpTimeout(200*time.Millisecond),
	)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key is not found", func(t *testing.T) {
		store, _ := newTestStore(t)

		val, found, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, val)
	})

	t.Run("set then get", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Set(ctx, "k", "v", 0))
		val, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", val)
	})

	t.Run("ttl expires value", func(t *testing.T) {
		store, mr := newTestStore(t)

		require.NoError(t, store.Set(ctx, "k", "v", 10*time.Second))
		mr.FastForward(11 * time.Second)

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete removes value", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Set(ctx, "k", "v", 0))
		require.NoError(t, store.Delete(ctx, "k", "other"))

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete without keys is a no-op", func(t *testing.T) {
		store, _ := newTestStore(t)
		assert.NoError(t, store.Delete(ctx))
	})
}

func TestStore_Incr(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	const workers = 10
	const perWorker = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				n, err := store.Incr(ctx, "seq")
				assert.NoError(t, err)
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "every increment must hand out a distinct value")
	n, err := store.Incr(ctx, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker+1), n)
}

func TestStore_IncrWindow(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	n, left, err := store.IncrWindow(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, left)

	n, left, err = store.IncrWindow(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Greater(t, left, time.Duration(0))
	assert.LessOrEqual(t, left, time.Minute)

	mr.FastForward(time.Minute + time.Second)
	n, _, err = store.IncrWindow(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A counter without expiry gets one on the next increment.
	require.NoError(t, mr.Set("stuck", "5"))
	n, left, err = store.IncrWindow(ctx, "stuck", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, time.Second, left)
	assert.Equal(t, time.Second, mr.TTL("stuck"))
}

func TestStore_Lists(t *testing.T) {
	ctx := context.Background()

	t.Run("append and range keep insertion order", func(t *testing.T) {
		store, _ := newTestStore(t)

		for i := range 3 {
			require.NoError(t, store.ListAppend(ctx, "log", strconv.Itoa(i)))
		}
		vals, err := store.ListRange(ctx, "log", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"0", "1", "2"}, vals)
	})

	t.Run("trim keeps newest entries", func(t *testing.T) {
		store, _ := newTestStore(t)

		for i := range 5 {
			require.NoError(t, store.ListAppend(ctx, "log", strconv.Itoa(i)))
		}
		require.NoError(t, store.ListTrim(ctx, "log", -2, -1))

		vals, err := store.ListRange(ctx, "log", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "4"}, vals)
	})

	t.Run("range of missing list is empty", func(t *testing.T) {
		store, _ := newTestStore(t)

		vals, err := store.ListRange(ctx, "nope", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, vals)
	})

	t.Run("remove first match", func(t *testing.T) {
		store, _ := newTestStore(t)

		for _, v := range []string{"a:1", "b:2", "a:3"} {
			require.NoError(t, store.ListAppend(ctx, "log", v))
		}

		n, err := store.ListRemoveFirst(ctx, "log", func(v string) bool { return strings.HasPrefix(v, "a:") })
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		vals, err := store.ListRange(ctx, "log", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"b:2", "a:3"}, vals)
	})

	t.Run("remove without match", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.ListAppend(ctx, "log", "x"))
		n, err := store.ListRemoveFirst(ctx, "log", func(string) bool { return false })
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	mr.Close()

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrUnavailable)

	_, err = store.Incr(ctx, "seq")
	assert.ErrorIs(t, err, kv.ErrUnavailable)

	err = store.ListAppend(ctx, "log", "v")
	assert.ErrorIs(t, err, kv.ErrUnavailable)

	assert.Error(t, kv.Healthcheck(store)(ctx))
}

func TestStore_Lazy(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := kv.New(kv.Config{ConnectionURL: "redis://" + mr.Addr()}, kv.WithLogger(logger.Discard()))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	assert.True(t, mr.Exists("k"))
	assert.NoError(t, kv.Healthcheck(store)(ctx))
}

func TestStore_Closed(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, kv.ErrClosed)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := kv.New(kv.Config{ConnectionURL: "://bad"})
	assert.ErrorIs(t, err, kv.ErrFailedToParseConnString)
}

func TestConnect(t *testing.T) {
	t.Run("connects to running server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := kv.Connect(context.Background(), kv.Config{
			ConnectionURL:  "redis://" + mr.Addr(),
			RetryAttempts:  1,
			ConnectTimeout: time.Second,
		})
		require.NoError(t, err)
		defer client.Close()
	})

	t.Run("gives up after retries", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := kv.Connect(context.Background(), kv.Config{
			ConnectionURL:  "redis://" + addr,
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: 2 * time.Second,
		})
		assert.ErrorIs(t, err, kv.ErrNotReady)
	})
}
