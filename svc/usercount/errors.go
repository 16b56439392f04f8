package usercount

import "errors"

var ErrSource = errors.New("usercount: failed to count users")
