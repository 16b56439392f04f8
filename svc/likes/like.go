package likes

import "time"

// Record is one user's like of one item.
type Record struct {
	ID        int64
	ItemID    int64
	UserID    int64
	CreatedAt time.Time
}

// Result is the outcome of a toggle.
type Result struct {
	Liked      bool  `json:"liked"`
	TotalLikes int64 `json:"total_likes"`
}
