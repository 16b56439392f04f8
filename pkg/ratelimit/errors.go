package ratelimit

import "errors"

var ErrInvalidConfig = errors.New("ratelimit: invalid configuration")
