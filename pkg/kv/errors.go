package kv

import "errors"

var (
	ErrFailedToParseConnString = errors.New("kv: failed to parse redis connection string")
	ErrNotReady                = errors.New("kv: redis did not become ready within the given time period")
	ErrUnavailable             = errors.New("kv: store unavailable")
	ErrClosed                  = errors.New("kv: store is closed")
	ErrHealthcheckFailed       = errors.New("kv: healthcheck failed")
)
