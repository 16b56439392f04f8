package usercount

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

const (
	DefaultKey = "stats:user_count"
	DefaultTTL = 30 * time.Second
)

// Config holds cache settings.
type Config struct {
	Key string        `env:"USER_COUNT_KEY" envDefault:"stats:user_count"`
	TTL time.Duration `env:"USER_COUNT_TTL" envDefault:"30s"`
}

// Store is the subset of the key-value adapter the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Count is a read result.
type Count struct {
	Value  int64 `json:"count"`
	Cached bool  `json:"cached"`
}

// Cache is a read-through cache in front of a Source.
type Cache struct {
	store  Store
	source Source
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithKey overrides the store key holding the cached count.
func WithKey(key string) Option {
	return func(c *Cache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithTTL sets how long a cached count is served before the source is asked again.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache returns a read-through cache of the count reported by source.
func NewCache(store Store, source Source, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		source: source,
		key:    DefaultKey,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the cached count when present and the source count otherwise.
// Store failures degrade to a source read; only a source failure is returned.
func (c *Cache) Read(ctx context.Context) (Count, error) {
	if v, ok := c.cached(ctx); ok {
		return Count{Value: v, Cached: true}, nil
	}

	n, err := c.source.Count(ctx)
	if err != nil {
		return Count{}, err
	}

	if err := c.store.Set(ctx, c.key, strconv.FormatInt(n, 10), c.ttl); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "failed to populate user count cache",
			logger.Component("usercount"),
			logger.Key(c.key),
			logger.Error(err),
		)
	}
	return Count{Value: n}, nil
}

func (c *Cache) cached(ctx context.Context) (int64, bool) {
	raw, found, err := c.store.Get(ctx, c.key)
	if err != nil || !found {
		return 0, false
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "discarding unparseable cached user count",
			logger.Component("usercount"),
			logger.Key(c.key),
			logger.Error(err),
		)
		_ = c.store.Delete(ctx, c.key)
		return 0, false
	}
	return n, true
}

// Invalidate drops the cached value. Call it after the mutation has committed.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, c.key)
}
