package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Log is the bounded notification list stored under a single key, oldest
// entry at the head. Appends rely on the store's atomic RPUSH so concurrent
// writers never lose entries; each append is followed by a trim to the newest
// Capacity entries. A crash between the two leaves one extra entry, which the
// next append trims.
type Log struct {
	store    Store
	key      string
	capacity int
	logger   *slog.Logger
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithLogKey overrides the store key holding the log.
func WithLogKey(key string) LogOption {
	return func(l *Log) {
		if key != "" {
			l.key = key
		}
	}
}

// WithCapacity sets how many notifications the log retains. Non-positive values are ignored.
func WithCapacity(n int) LogOption {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

func WithLogLogger(log *slog.Logger) LogOption {
	return func(l *Log) {
		if log != nil {
			l.logger = log
		}
	}
}

// NewLog returns a bounded notification log kept in store.
func NewLog(store Store, opts ...LogOption) *Log {
	l := &Log{
		store:    store,
		key:      DefaultLogKey,
		capacity: DefaultCapacity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int { return l.capacity }

// Append stores n at the tail and evicts the oldest entries beyond capacity.
func (l *Log) Append(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Join(ErrAppend, err)
	}
	if err := l.store.ListAppend(ctx, l.key, string(data)); err != nil {
		return errors.Join(ErrAppend, err)
	}
	if err := l.store.ListTrim(ctx, l.key, -int64(l.capacity), -1); err != nil {
		return errors.Join(ErrAppend, err)
	}
	return nil
}

// List returns every retained notification, oldest first. Entries that
// cannot be decoded are skipped and logged.
func (l *Log) List(ctx context.Context) ([]Notification, error) {
	vals, err := l.store.ListRange(ctx, l.key, 0, -1)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	out := make([]Notification, 0, len(vals))
	for _, v := range vals {
		n, err := Decode([]byte(v))
		if err != nil {
			l.logger.LogAttrs(ctx, slog.LevelWarn, "skipping undecodable notification",
				logger.Component("notifications"),
				logger.Key(l.key),
				logger.Error(err),
			)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Remove deletes the first entry with the given id and reports whether one was removed.
// The scan is linear over at most Capacity entries.
func (l *Log) Remove(ctx context.Context, id uint64) (bool, error) {
	n, err := l.store.ListRemoveFirst(ctx, l.key, func(v string) bool {
		got, ok := peekID(v)
		return ok && got == id
	})
	if err != nil {
		return false, errors.Join(ErrStorage, err)
	}
	return n > 0, nil
}

// Clear deletes the whole log.
func (l *Log) Clear(ctx context.Context) error {
	if err := l.store.Delete(ctx, l.key); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
