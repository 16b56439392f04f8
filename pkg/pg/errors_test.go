package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/grimoire/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		duplicate bool
		fk        bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "no rows", err: pgx.ErrNoRows, notFound: true},
		{name: "wrapped no rows", err: fmt.Errorf("find: %w", pgx.ErrNoRows), notFound: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, duplicate: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), duplicate: true},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, fk: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, pg.IsNotFoundError(tt.err))
			assert.Equal(t, tt.duplicate, pg.IsDuplicateKeyError(tt.err))
			assert.Equal(t, tt.fk, pg.IsForeignKeyViolationError(tt.err))
		})
	}
}

func TestConstraintName(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "likes_user_id_fkey"})
	assert.Equal(t, "likes_user_id_fkey", pg.ConstraintName(err))
	assert.Empty(t, pg.ConstraintName(errors.New("boom")))
	assert.Empty(t, pg.ConstraintName(nil))
}
