package kv

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

const defaultOpTimeout = 2 * time.Second

// Store is a Redis-backed key-value adapter. Safe for concurrent use.
type Store struct {
	opts      *redis.Options
	opTimeout time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	client redis.UniversalClient
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report failed operations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOpTimeout overrides the per-operation timeout.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// New returns a Store that connects on first use.
func New(cfg Config, opts ...Option) (*Store, error) {
	redisOpts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnString, err)
	}

	s := newStore(cfg.OpTimeout, opts...)
	s.opts = redisOpts
	return s, nil
}

// NewFromClient wraps an already constructed client.
// The Store takes ownership and closes the client on Close.
func NewFromClient(client redis.UniversalClient, opts ...Option) *Store {
	s := newStore(0, opts...)
	s.client = client
	return s
}

func newStore(opTimeout time.Duration, opts ...Option) *Store {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	s := &Store{
		opTimeout: opTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// conn returns the client, creating it on first use. No network I/O happens
// under the lock: go-redis dials lazily from its pool.
func (s *Store) conn() (redis.UniversalClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.client == nil {
		s.client = redis.NewClient(s.opts)
	}
	return s.client, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) fail(ctx context.Context, op, key string, err error) error {
	s.logger.LogAttrs(ctx, slog.LevelWarn, "kv operation failed",
		logger.Component("kv"),
		logger.Operation(op),
		logger.Key(key),
		logger.Error(err),
	)
	if errors.Is(err, ErrClosed) {
		return err
	}
	return errors.Join(ErrUnavailable, err)
}

// Get returns the value stored at key. Missing keys report found=false with a nil error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	c, err := s.conn()
	if err != nil {
		return "", false, s.fail(ctx, "get", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	val, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail(ctx, "get", key, err)
	}
	return val, true, nil
}

// Set stores value at key. Zero ttl means no expiration.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c, err := s.conn()
	if err != nil {
		return s.fail(ctx, "set", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := c.Set(ctx, key, value, ttl).Err(); err != nil {
		return s.fail(ctx, "set", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c, err := s.conn()
	if err != nil {
		return s.fail(ctx, "del", keys[0], err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := c.Del(ctx, keys...).Err(); err != nil {
		return s.fail(ctx, "del", keys[0], err)
	}
	return nil
}

// Incr atomically increments the integer at key and returns the new value.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	c, err := s.conn()
	if err != nil {
		return 0, s.fail(ctx, "incr", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := c.Incr(ctx, key).Result()
	if err != nil {
		return 0, s.fail(ctx, "incr", key, err)
	}
	return n, nil
}

// IncrWindow increments the counter at key and returns the new value with the
// time left before the counter expires. The first increment of a window starts
// its expiry; a counter found without one (left by an interrupted call) gets
// it on the next increment.
func (s *Store) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c, err := s.conn()
	if err != nil {
		return 0, 0, s.fail(ctx, "incr", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err = c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, s.fail(ctx, "incr", key, err)
	}

	left := ttl.Val()
	if left <= 0 {
		if err := c.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, s.fail(ctx, "pexpire", key, err)
		}
		left = window
	}
	return incr.Val(), left, nil
}

// ListAppend pushes value onto the tail of the list at key.
func (s *Store) ListAppend(ctx context.Context, key, value string) error {
	c, err := s.conn()
	if err != nil {
		return s.fail(ctx, "rpush", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := c.RPush(ctx, key, value).Err(); err != nil {
		return s.fail(ctx, "rpush", key, err)
	}
	return nil
}

// ListTrim keeps only the elements in the inclusive range [start, stop].
// Negative indexes count from the tail, so ListTrim(key, -n, -1) keeps the newest n.
func (s *Store) ListTrim(ctx context.Context, key string, start, stop int64) error {
	c, err := s.conn()
	if err != nil {
		return s.fail(ctx, "ltrim", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := c.LTrim(ctx, key, start, stop).Err(); err != nil {
		return s.fail(ctx, "ltrim", key, err)
	}
	return nil
}

// ListRange returns the elements in the inclusive range [start, stop], head first.
func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	c, err := s.conn()
	if err != nil {
		return nil, s.fail(ctx, "lrange", key, err)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	vals, err := c.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, s.fail(ctx, "lrange", key, err)
	}
	return vals, nil
}

// ListRemoveFirst removes the first element (from the head) for which match
// returns true and reports how many elements were removed (0 or 1).
// The removal itself is an LREM on the matched value, so a concurrent removal
// of the same element makes this call report 0.
func (s *Store) ListRemoveFirst(ctx context.Context, key string, match func(string) bool) (int64, error) {
	vals, err := s.ListRange(ctx, key, 0, -1)
	if err != nil {
		return 0, err
	}

	for _, v := range vals {
		if !match(v) {
			continue
		}

		c, err := s.conn()
		if err != nil {
			return 0, s.fail(ctx, "lrem", key, err)
		}
		opCtx, cancel := s.withTimeout(ctx)
		n, err := c.LRem(opCtx, key, 1, v).Result()
		cancel()
		if err != nil {
			return 0, s.fail(ctx, "lrem", key, err)
		}
		return n, nil
	}

	return 0, nil
}

// Close releases the underlying client. Subsequent operations return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
