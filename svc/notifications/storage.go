package notifications

import (
	"context"
	"time"
)

// Store is the subset of the key-value adapter the pipeline needs.
// *kv.Store satisfies it.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	ListAppend(ctx context.Context, key, value string) error
	ListTrim(ctx context.Context, key string, start, stop int64) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ListRemoveFirst(ctx context.Context, key string, match func(string) bool) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}

// Config holds the store layout and pipeline tuning.
type Config struct {
	LogKey        string        `env:"NOTIFICATIONS_LOG_KEY" envDefault:"admin:notifications"`
	SequenceKey   string        `env:"NOTIFICATIONS_SEQUENCE_KEY" envDefault:"admin:notifications:seq"`
	Capacity      int           `env:"NOTIFICATIONS_LOG_CAPACITY" envDefault:"100"`
	HandleTimeout time.Duration `env:"NOTIFICATIONS_HANDLE_TIMEOUT" envDefault:"5s"`
	RetryInterval time.Duration `env:"NOTIFICATIONS_SUBSCRIBE_RETRY_INTERVAL" envDefault:"5s"`
}

const (
	DefaultLogKey      = "admin:notifications"
	DefaultSequenceKey = "admin:notifications:seq"
	DefaultCapacity    = 100
)
