package notifications

import "errors"

var (
	ErrMalformedEvent        = errors.New("notifications: malformed lifecycle event")
	ErrUnknownChannel        = errors.New("notifications: unknown lifecycle channel")
	ErrUnknownType           = errors.New("notifications: unknown notification type")
	ErrMalformedNotification = errors.New("notifications: malformed notification record")
	ErrResolveAdmins         = errors.New("notifications: failed to resolve admin audience")
	ErrNextID                = errors.New("notifications: failed to obtain sequence id")
	ErrAppend                = errors.New("notifications: failed to append to log")
	ErrStorage               = errors.New("notifications: log storage failure")
	ErrPipelineClosed        = errors.New("notifications: pipeline closed")
)
