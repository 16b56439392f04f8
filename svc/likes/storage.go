package likes

import "context"

// Storage persists like records. Implementations must reject a second record
// for the same (itemID, userID) pair with ErrDuplicate.
type Storage interface {
	ItemExists(ctx context.Context, itemID int64) (bool, error)
	// Find returns ErrLikeNotFound when the pair has no record.
	Find(ctx context.Context, itemID, userID int64) (Record, error)
	Insert(ctx context.Context, itemID, userID int64) (Record, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, itemID, userID int64) (bool, error)
	Count(ctx context.Context, itemID int64) (int64, error)
}
