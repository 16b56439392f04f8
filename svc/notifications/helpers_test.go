package notifications

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/grimoire/pkg/kv"
	"github.com/dmitrymomot/grimoire/pkg/logger"
)

func newTestStore(t *testing.T) (*kv.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := kv.NewFromClient(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		kv.WithLogger(logger.Discard()),
		kv.WithOpTimeout(200*time.Millisecond),
	)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}
