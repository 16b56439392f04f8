package usercount

import (
	"context"
	"errors"

	"github.com/dmitrymomot/grimoire/pkg/pg"
)

// Source computes the authoritative count.
type Source interface {
	Count(ctx context.Context) (int64, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (int64, error)

func (f SourceFunc) Count(ctx context.Context) (int64, error) { return f(ctx) }

// PgSource counts rows in the users table.
type PgSource struct {
	db pg.Querier
}

func NewPgSource(db pg.Querier) *PgSource {
	return &PgSource{db: db}
}

func (s *PgSource) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, errors.Join(ErrSource, err)
	}
	return n, nil
}
