package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// Message is a single payload received on a channel.
type Message struct {
	Channel string
	Payload []byte
}

// Handler processes one message. Returned errors are logged by the bus.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends payloads to a channel. Publish is fire-and-forget: a nil
// error means the message was handed to the transport, not that anyone received it.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscriber registers handlers on channels.
type Subscriber interface {
	// Subscribe starts delivering messages from channel to h until ctx is
	// cancelled or the returned Subscription is closed.
	Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error)
}

// Subscription is an active channel registration.
type Subscription interface {
	Channel() string
	// Close stops delivery and waits for an in-flight handler to return.
	// It is idempotent.
	Close() error
}

// Bus combines both roles.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// PublishJSON encodes v as JSON and publishes it.
func PublishJSON(ctx context.Context, p Publisher, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	return p.Publish(ctx, channel, payload)
}

// dispatch runs h for msg, converting panics into errors and logging any failure.
func dispatch(ctx context.Context, log *slog.Logger, h Handler, msg Message) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, r, debug.Stack())
			}
		}()
		return h(ctx, msg)
	}()
	if err != nil {
		log.LogAttrs(ctx, slog.LevelError, "message handler failed",
			logger.Component("eventbus"),
			logger.Channel(msg.Channel),
			logger.Error(err),
		)
	}
}
