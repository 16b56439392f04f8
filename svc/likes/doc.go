// Package likes implements the like toggle for items.
//
// A like is a (item, user) pair. Uniqueness is enforced by the storage layer,
// not by the service: two concurrent toggles for the same pair may both decide
// to insert, in which case the loser gets ErrDuplicate from Storage.Insert and
// the service reports the pair as liked. The like count is recomputed from
// storage on every call.
//
// Usage:
//
//	svc := likes.NewService(likes.NewPgStorage(pool), likes.WithLogger(log))
//	res, err := svc.Toggle(ctx, itemID, userID)
//	if errors.Is(err, likes.ErrItemNotFound) {
//		// 404
//	}
package likes
