package likes

import "errors"

var (
	ErrItemNotFound = errors.New("likes: item not found")
	ErrUserNotFound = errors.New("likes: user not found")
	ErrLikeNotFound = errors.New("likes: like not found")
	ErrDuplicate    = errors.New("likes: item already liked by user")
	ErrStorage      = errors.New("likes: storage failure")
)
