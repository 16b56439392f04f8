package kv

import (
	"context"
	"errors"
)

// Healthcheck returns a readiness probe that pings the store.
func Healthcheck(s *Store) func(context.Context) error {
	return func(ctx context.Context) error {
		c, err := s.conn()
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		if err := c.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
