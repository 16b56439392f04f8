package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/grimoire/pkg/eventbus"
	"github.com/dmitrymomot/grimoire/pkg/logger"
)

// State is the lifecycle of one channel subscription.
type State int

const (
	StateUninitialized State = iota
	StateSubscribing
	StateActive
	// StateError means the last message failed; the next successful one
	// moves the subscription back to StateActive.
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pipeline consumes lifecycle events and records admin notifications.
type Pipeline struct {
	bus           eventbus.Subscriber
	admins        AdminResolver
	seq           *Sequence
	log           *Log
	logger        *slog.Logger
	now           func() time.Time
	handleTimeout time.Duration
	retryInterval time.Duration
	consumerID    string

	mu      sync.Mutex
	states  map[string]State
	subs    []eventbus.Subscription
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the wall clock used for notification timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithHandleTimeout bounds the store and database calls made for one message.
func WithHandleTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.handleTimeout = d
		}
	}
}

// WithRetryInterval sets the delay between subscribe attempts.
func WithRetryInterval(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.retryInterval = d
		}
	}
}

// NewPipeline wires a pipeline that records notifications for the admins
// resolved by admins. Call Start to begin consuming.
func NewPipeline(bus eventbus.Subscriber, admins AdminResolver, seq *Sequence, log *Log, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		bus:           bus,
		admins:        admins,
		seq:           seq,
		log:           log,
		logger:        slog.Default(),
		now:           time.Now,
		handleTimeout: 5 * time.Second,
		retryInterval: 5 * time.Second,
		consumerID:    uuid.NewString(),
		states:        make(map[string]State, len(Channels)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("notifications"), logger.ConsumerID(p.consumerID))
	return p
}

// Start subscribes to every lifecycle channel. Each channel gets one immediate
// attempt; channels whose subscription fails keep retrying in the background
// until ctx is cancelled or Close is called. Start does not block.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPipelineClosed
	}
	if p.started {
		p.mu.Unlock()
		return errors.New("notifications: pipeline already started")
	}
	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	for _, channel := range Channels {
		p.setState(channel, StateSubscribing)
		if p.trySubscribe(ctx, channel) {
			continue
		}

		// wg.Add must not race with the Wait in Close.
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil
		}
		p.wg.Add(1)
		p.mu.Unlock()

		go func() {
			defer p.wg.Done()
			p.retrySubscribe(ctx, channel)
		}()
	}
	return nil
}

func (p *Pipeline) trySubscribe(ctx context.Context, channel string) bool {
	sub, err := p.bus.Subscribe(ctx, channel, p.handler(channel))
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "subscribe failed, will retry",
			logger.Channel(channel),
			logger.Error(err),
		)
		return false
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if err := sub.Close(); err != nil {
			p.logger.LogAttrs(ctx, slog.LevelWarn, "close subscription after shutdown",
				logger.Channel(channel),
				logger.Error(err),
			)
		}
		return true
	}
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	p.setState(channel, StateActive)
	p.logger.LogAttrs(ctx, slog.LevelInfo, "subscribed", logger.Channel(channel))
	return true
}

func (p *Pipeline) retrySubscribe(ctx context.Context, channel string) {
	ticker := time.NewTicker(p.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.trySubscribe(ctx, channel) {
				return
			}
		}
	}
}

// State returns the current state of the subscription for channel.
func (p *Pipeline) State(channel string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[channel]
}

func (p *Pipeline) setState(channel string, s State) {
	p.mu.Lock()
	p.states[channel] = s
	p.mu.Unlock()
	subscriptionState.WithLabelValues(channel).Set(float64(s))
}

// Close stops all subscriptions and waits for in-flight handlers.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	// Retry loops may still append a subscription until they observe the cancellation.
	p.wg.Wait()

	p.mu.Lock()
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) handler(channel string) eventbus.Handler {
	return func(ctx context.Context, msg eventbus.Message) error {
		start := time.Now()
		outcome := p.process(ctx, channel, msg.Payload)
		handleDuration.WithLabelValues(channel).Observe(time.Since(start).Seconds())
		eventsProcessed.WithLabelValues(channel, outcome).Inc()

		if outcome == outcomeFailed || outcome == outcomeMalformed {
			p.setState(channel, StateError)
		} else {
			p.setState(channel, StateActive)
		}
		// Failures are fully handled here; the bus has nothing to retry.
		return nil
	}
}

// process handles one message and reports its outcome. It never panics.
func (p *Pipeline) process(ctx context.Context, channel string, payload []byte) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "panic while handling lifecycle event",
				logger.Channel(channel),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			outcome = outcomeFailed
		}
	}()

	ev, err := DecodeEvent(channel, payload)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "dropping malformed lifecycle event",
			logger.Channel(channel),
			slog.Int("payload_bytes", len(payload)),
			logger.Error(err),
		)
		return outcomeMalformed
	}

	ctx, cancel := context.WithTimeout(ctx, p.handleTimeout)
	defer cancel()

	if err := p.record(ctx, ev); err != nil {
		if errors.Is(err, errNoAdmins) {
			p.logger.LogAttrs(ctx, slog.LevelDebug, "no admins, notification not recorded",
				logger.Channel(channel),
				logger.ItemID(ev.ItemID),
			)
			return outcomeNoAdmins
		}
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to record notification",
			logger.Channel(channel),
			logger.ItemID(ev.ItemID),
			logger.UserID(ev.ActorUserID),
			logger.Error(err),
		)
		return outcomeFailed
	}
	return outcomeRecorded
}

var errNoAdmins = errors.New("no admins")

func (p *Pipeline) record(ctx context.Context, ev Event) error {
	admins, err := p.admins.AdminIDs(ctx)
	if err != nil {
		return errors.Join(ErrResolveAdmins, err)
	}
	if len(admins) == 0 {
		return errNoAdmins
	}

	id, err := p.seq.Next(ctx)
	if err != nil {
		return err
	}

	n, err := NewNotification(id, ev, p.now())
	if err != nil {
		return err
	}

	if err := p.log.Append(ctx, n); err != nil {
		return err
	}

	p.logger.LogAttrs(ctx, slog.LevelDebug, "notification recorded",
		logger.NotificationID(id),
		logger.ItemID(ev.ItemID),
		slog.String("type", string(n.Type())),
		slog.Int("audience", len(admins)),
	)
	return nil
}
