package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// RedisBus implements Bus on Redis PUBLISH/SUBSCRIBE.
// Redis pub/sub is not durable; see the package documentation.
type RedisBus struct {
	pub  redis.UniversalClient
	sub  redis.UniversalClient
	opts options

	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
	closed bool
}

// NewRedisBus builds a bus from two distinct clients: pub is used for PUBLISH,
// sub hands out the dedicated connections that sit in subscribe mode.
// The bus does not close either client.
func NewRedisBus(pub, sub redis.UniversalClient, opts ...Option) *RedisBus {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisBus{
		pub:  pub,
		sub:  sub,
		opts: o,
		subs: make(map[*redisSubscription]struct{}),
	}
}

var errPublishOnly = errors.New("bus was created without a subscriber client")

// NewRedisPublisher builds a publish-only bus; Subscribe on it fails.
func NewRedisPublisher(pub redis.UniversalClient, opts ...Option) *RedisBus {
	return NewRedisBus(pub, nil, opts...)
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if channel == "" {
		return ErrEmptyChannel
	}
	if b.isClosed() {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, b.opts.publishTimeout)
	defer cancel()

	if err := b.pub.Publish(ctx, channel, payload).Err(); err != nil {
		b.opts.logger.LogAttrs(ctx, slog.LevelWarn, "publish failed",
			logger.Component("eventbus"),
			logger.Channel(channel),
			logger.Error(err),
		)
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Subscribe issues SUBSCRIBE and waits for the server confirmation before
// returning, so a nil error means messages published afterwards are delivered.
func (b *RedisBus) Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	if b.isClosed() {
		return nil, ErrClosed
	}
	if b.sub == nil {
		return nil, errors.Join(ErrSubscribeFailed, errPublishOnly)
	}

	ps := b.sub.Subscribe(ctx, channel)
	confirmCtx, cancelConfirm := context.WithTimeout(ctx, b.opts.publishTimeout)
	_, err := ps.Receive(confirmCtx)
	cancelConfirm()
	if err != nil {
		_ = ps.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &redisSubscription{
		bus:     b,
		channel: channel,
		ps:      ps,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		_ = ps.Close()
		return nil, ErrClosed
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go s.run(subCtx, h, b.opts)
	return s, nil
}

// Close ends every subscription created by this bus.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redisSubscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	clear(b.subs)
	b.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *RedisBus) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *RedisBus) forget(s *redisSubscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

type redisSubscription struct {
	bus     *RedisBus
	channel string
	ps      *redis.PubSub
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	err     error
}

func (s *redisSubscription) Channel() string { return s.channel }

func (s *redisSubscription) run(ctx context.Context, h Handler, o options) {
	defer close(s.done)
	defer func() {
		s.err = s.ps.Close()
		s.bus.forget(s)
	}()

	// go-redis re-subscribes on its own after a dropped connection.
	msgs := s.ps.Channel(redis.WithChannelSize(o.bufferSize))
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			dispatch(ctx, o.logger, h, Message{Channel: m.Channel, Payload: []byte(m.Payload)})
		}
	}
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return s.err
}
