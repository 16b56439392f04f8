package eventbus

import "errors"

var (
	ErrClosed          = errors.New("eventbus: bus is closed")
	ErrEmptyChannel    = errors.New("eventbus: channel name is empty")
	ErrNilHandler      = errors.New("eventbus: handler is nil")
	ErrEncode          = errors.New("eventbus: failed to encode payload")
	ErrPublishFailed   = errors.New("eventbus: publish failed")
	ErrSubscribeFailed = errors.New("eventbus: subscribe failed")
	ErrHandlerPanic    = errors.New("eventbus: handler panicked")
)
