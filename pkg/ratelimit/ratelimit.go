package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Config defines the window budget.
type Config struct {
	Limit  int           `env:"LIKE_RATE_LIMIT" envDefault:"30"`   // Actions allowed per window.
	Window time.Duration `env:"LIKE_RATE_WINDOW" envDefault:"1m"`
	Prefix string        `env:"LIKE_RATE_PREFIX" envDefault:"ratelimit:like"`
}

// Store counts hits per window. *kv.Store satisfies it.
type Store interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Result describes the budget after one hit.
type Result struct {
	Limit     int
	Remaining int // negative once the budget is exceeded
	ResetAt   time.Time
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next allowed request, 0 if allowed.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Limiter is a fixed-window rate limiter.
type Limiter struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) {
		if l != nil {
			lim.logger = l
		}
	}
}

// New returns a Limiter. It fails with ErrInvalidConfig for a non-positive limit or window.
func New(store Store, cfg Config, opts ...Option) (*Limiter, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, cfg.Window)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	l := &Limiter{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow records one hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) Result {
	n, left, err := l.store.IncrWindow(ctx, l.cfg.Prefix+":"+key, l.cfg.Window)
	if err != nil {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "rate limit store unavailable, allowing request",
			logger.Component("ratelimit"),
			logger.Key(key),
			logger.Error(err),
		)
		return Result{Limit: l.cfg.Limit, Remaining: l.cfg.Limit, ResetAt: l.now().Add(l.cfg.Window)}
	}
	return Result{
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit - int(n),
		ResetAt:   l.now().Add(left),
	}
}
