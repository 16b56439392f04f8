package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/grimoire/pkg/pg"
)

// AdminResolver returns the ids of users who should see admin notifications.
type AdminResolver interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// AdminResolverFunc adapts a function to AdminResolver.
type AdminResolverFunc func(ctx context.Context) ([]int64, error)

func (f AdminResolverFunc) AdminIDs(ctx context.Context) ([]int64, error) { return f(ctx) }

// PgAdminResolver reads the admin flag from the users table.
type PgAdminResolver struct {
	db pg.Querier
}

func NewPgAdminResolver(db pg.Querier) *PgAdminResolver {
	return &PgAdminResolver{db: db}
}

func (r *PgAdminResolver) AdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE is_admin ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return ids, nil
}

// IsAdmin reports whether userID has the admin flag. Unknown users are not admins.
func (r *PgAdminResolver) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var admin bool
	err := r.db.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&admin)
	if pg.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(fmt.Errorf("lookup user %d", userID), err)
	}
	return admin, nil
}
