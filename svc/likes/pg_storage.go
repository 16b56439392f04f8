package likes

import (
	"context"
	"errors"

	"github.com/dmitrymomot/grimoire/pkg/pg"
)

// Foreign key names from db/migrations/00003_likes.sql.
const (
	itemFKConstraint = "likes_item_id_fkey"
	userFKConstraint = "likes_user_id_fkey"
)

// PgStorage keeps likes in the likes table, whose primary key is (item_id, user_id).
type PgStorage struct {
	db pg.Querier
}

// NewPgStorage returns a Storage backed by db.
func NewPgStorage(db pg.Querier) *PgStorage {
	return &PgStorage{db: db}
}

func (s *PgStorage) ItemExists(ctx context.Context, itemID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrStorage, err)
	}
	return exists, nil
}

func (s *PgStorage) Find(ctx context.Context, itemID, userID int64) (Record, error) {
	var r Record
	err := s.db.QueryRow(ctx,
		`SELECT id, item_id, user_id, created_at FROM likes WHERE item_id = $1 AND user_id = $2`,
		itemID, userID,
	).Scan(&r.ID, &r.ItemID, &r.UserID, &r.CreatedAt)
	if pg.IsNotFoundError(err) {
		return Record{}, ErrLikeNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorage, err)
	}
	return r, nil
}

func (s *PgStorage) Insert(ctx context.Context, itemID, userID int64) (Record, error) {
	r := Record{ItemID: itemID, UserID: userID}
	err := s.db.QueryRow(ctx,
		`INSERT INTO likes (item_id, user_id) VALUES ($1, $2) RETURNING id, created_at`,
		itemID, userID,
	).Scan(&r.ID, &r.CreatedAt)
	switch {
	case err == nil:
		return r, nil
	case pg.IsDuplicateKeyError(err):
		return Record{}, ErrDuplicate
	case pg.IsForeignKeyViolationError(err):
		switch pg.ConstraintName(err) {
		case itemFKConstraint:
			// The item was deleted between the existence check and the insert.
			return Record{}, ErrItemNotFound
		case userFKConstraint:
			return Record{}, ErrUserNotFound
		}
	}
	return Record{}, errors.Join(ErrStorage, err)
}

func (s *PgStorage) Delete(ctx context.Context, itemID, userID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM likes WHERE item_id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return false, errors.Join(ErrStorage, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PgStorage) Count(ctx context.Context, itemID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM likes WHERE item_id = $1`, itemID).Scan(&n); err != nil {
		return 0, errors.Join(ErrStorage, err)
	}
	return n, nil
}
