package eventbus

import (
	"log/slog"
	"time"
)

type options struct {
	logger         *slog.Logger
	publishTimeout time.Duration
	bufferSize     int
}

func defaultOptions() options {
	return options{
		logger:         slog.Default(),
		publishTimeout: 2 * time.Second,
		bufferSize:     100,
	}
}

// Option configures a bus implementation.
type Option func(*options)

// WithLogger sets the logger for handler and transport failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPublishTimeout bounds each Publish call.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

// WithBufferSize sets the per-subscription queue length.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}
