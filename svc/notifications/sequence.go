package notifications

import (
	"context"
	"errors"
)

// Sequence hands out notification ids from an atomic counter in the store.
// Ids are never reused: clearing the log leaves the counter alone.
type Sequence struct {
	store Store
	key   string
}

// NewSequence returns an id sequence stored under key, or DefaultSequenceKey if key is empty.
func NewSequence(store Store, key string) *Sequence {
	if key == "" {
		key = DefaultSequenceKey
	}
	return &Sequence{store: store, key: key}
}

// Next returns the next id. The first id issued is 1.
func (s *Sequence) Next(ctx context.Context) (uint64, error) {
	n, err := s.store.Incr(ctx, s.key)
	if err != nil {
		return 0, errors.Join(ErrNextID, err)
	}
	return uint64(n), nil
}
