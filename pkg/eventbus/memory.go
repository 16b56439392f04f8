package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// MemoryBus is an in-process Bus. Each subscription owns a buffered queue
// drained by one goroutine. Publish waits up to the publish timeout for room
// in a full queue and then drops the message for that subscriber.
type MemoryBus struct {
	opts options

	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

func NewMemoryBus(opts ...Option) *MemoryBus {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryBus{
		opts: o,
		subs: make(map[string]map[*memorySubscription]struct{}),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if channel == "" {
		return ErrEmptyChannel
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*memorySubscription, 0, len(b.subs[channel]))
	for s := range b.subs[channel] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	msg := Message{Channel: channel, Payload: append([]byte(nil), payload...)}
	for _, s := range targets {
		if !s.enqueue(ctx, msg, b.opts.publishTimeout) {
			b.opts.logger.LogAttrs(ctx, slog.LevelWarn, "dropping message for slow subscriber",
				logger.Component("eventbus"),
				logger.Channel(channel),
			)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string, h Handler) (Subscription, error) {
	if channel == "" {
		return nil, ErrEmptyChannel
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &memorySubscription{
		bus:     b,
		channel: channel,
		queue:   make(chan Message, b.opts.bufferSize),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][s] = struct{}{}
	b.mu.Unlock()

	go s.run(subCtx, h, b.opts.logger)
	return s, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*memorySubscription
	for _, set := range b.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	clear(b.subs)
	b.mu.Unlock()

	for _, s := range all {
		_ = s.Close()
	}
	return nil
}

func (b *MemoryBus) forget(s *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.subs[s.channel]
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, s.channel)
	}
}

type memorySubscription struct {
	bus     *MemoryBus
	channel string
	queue   chan Message
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func (s *memorySubscription) Channel() string { return s.channel }

func (s *memorySubscription) enqueue(ctx context.Context, msg Message, timeout time.Duration) bool {
	select {
	case s.queue <- msg:
		return true
	case <-s.done:
		return false
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.queue <- msg:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

func (s *memorySubscription) run(ctx context.Context, h Handler, log *slog.Logger) {
	defer close(s.done)
	defer s.bus.forget(s)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			dispatch(ctx, log, h, msg)
		}
	}
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
