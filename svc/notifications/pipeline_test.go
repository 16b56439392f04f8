package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grimoire/pkg/eventbus"
	"github.com/dmitrymomot/grimoire/pkg/logger"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type pipelineFixture struct {
	bus      *eventbus.MemoryBus
	log      *Log
	seq      *Sequence
	pipeline *Pipeline
	pub      *Publisher
}

func newPipelineFixture(t *testing.T, admins AdminResolver, opts ...PipelineOption) *pipelineFixture {
	t.Helper()
	store, _ := newTestStore(t)
	bus := eventbus.NewMemoryBus(eventbus.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = bus.Close() })

	f := &pipelineFixture{
		bus: bus,
		log: NewLog(store, WithCapacity(10), WithLogLogger(logger.Discard())),
		seq: NewSequence(store, ""),
		pub: NewPublisher(bus),
	}
	opts = append([]PipelineOption{
		WithPipelineLogger(logger.Discard()),
		WithClock(func() time.Time { return fixedNow }),
		WithRetryInterval(10 * time.Millisecond),
	}, opts...)
	f.pipeline = NewPipeline(bus, admins, f.seq, f.log, opts...)

	require.NoError(t, f.pipeline.Start(context.Background()))
	t.Cleanup(func() { _ = f.pipeline.Close() })
	return f
}

func staticAdmins(ids ...int64) AdminResolver {
	return AdminResolverFunc(func(context.Context) ([]int64, error) { return ids, nil })
}

func (f *pipelineFixture) waitLen(t *testing.T, n int) []Notification {
	t.Helper()
	var list []Notification
	require.Eventually(t, func() bool {
		var err error
		list, err = f.log.List(context.Background())
		return err == nil && len(list) == n
	}, 2*time.Second, 5*time.Millisecond)
	return list
}

func counter(channel, outcome string) float64 {
	return testutil.ToFloat64(eventsProcessed.WithLabelValues(channel, outcome))
}

func waitCounter(t *testing.T, channel, outcome string, want float64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return counter(channel, outcome) >= want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPipeline_RecordsDeletion(t *testing.T) {
	f := newPipelineFixture(t, staticAdmins(1))
	for _, ch := range Channels {
		assert.Equal(t, StateActive, f.pipeline.State(ch))
	}

	require.NoError(t, f.bus.Publish(context.Background(), ChannelItemDeleted,
		[]byte(`{"id":42,"name":"Sword","user_id":7}`)))

	list := f.waitLen(t, 1)
	n, ok := list[0].(ItemDeleted)
	require.True(t, ok, "got %T", list[0])
	assert.Equal(t, int64(42), n.ItemID)
	assert.Equal(t, "Sword", n.ItemName)
	assert.Equal(t, int64(7), n.DeleterUserID)
	assert.Equal(t, fixedNow.UnixMilli(), n.Timestamp)
	assert.Equal(t, uint64(1), n.ID)
}

func TestPipeline_PublisherRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, staticAdmins(1, 2))

	require.NoError(t, f.pub.ItemCreated(ctx, 1, "Shield", 3))
	f.waitLen(t, 1)
	require.NoError(t, f.pub.ItemUpdated(ctx, 1, "Shield", 4, Changes{
		"rarity": {From: []byte(`"common"`), To: []byte(`"epic"`)},
	}))
	list := f.waitLen(t, 2)

	created, ok := list[0].(ItemCreated)
	require.True(t, ok)
	assert.Equal(t, int64(3), created.CreatorUserID)

	updated, ok := list[1].(ItemUpdated)
	require.True(t, ok)
	assert.Equal(t, int64(4), updated.UpdaterUserID)
	require.Contains(t, updated.Changes, "rarity")
	assert.JSONEq(t, `"epic"`, string(updated.Changes["rarity"].To))
}

func TestPipeline_NoAdminsSkipsRecording(t *testing.T) {
	f := newPipelineFixture(t, staticAdmins())
	base := counter(ChannelItemCreated, outcomeNoAdmins)

	require.NoError(t, f.bus.Publish(context.Background(), ChannelItemCreated,
		[]byte(`{"id":1,"name":"Bow","user_id":2}`)))
	waitCounter(t, ChannelItemCreated, outcomeNoAdmins, base+1)

	list, err := f.log.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, StateActive, f.pipeline.State(ChannelItemCreated))

	// The sequence is not consumed when nothing is recorded.
	next, err := f.seq.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}

func TestPipeline_MalformedMessageIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, staticAdmins(1))
	base := counter(ChannelItemUpdated, outcomeMalformed)

	require.NoError(t, f.bus.Publish(ctx, ChannelItemUpdated, []byte(`{"id":"nope"`)))
	waitCounter(t, ChannelItemUpdated, outcomeMalformed, base+1)
	assert.Equal(t, StateError, f.pipeline.State(ChannelItemUpdated))

	require.NoError(t, f.bus.Publish(ctx, ChannelItemUpdated, []byte(`{"id":5,"name":"Axe","user_id":9}`)))
	list := f.waitLen(t, 1)
	assert.Equal(t, TypeItemUpdated, list[0].Type())
	assert.Eventually(t, func() bool {
		return f.pipeline.State(ChannelItemUpdated) == StateActive
	}, time.Second, 5*time.Millisecond)
}

func TestPipeline_ResolverFailureSetsErrorState(t *testing.T) {
	ctx := context.Background()
	var fail atomic.Bool
	fail.Store(true)
	admins := AdminResolverFunc(func(context.Context) ([]int64, error) {
		if fail.Load() {
			return nil, errors.New("db down")
		}
		return []int64{1}, nil
	})
	f := newPipelineFixture(t, admins)
	base := counter(ChannelItemCreated, outcomeFailed)

	require.NoError(t, f.pub.ItemCreated(ctx, 1, "Staff", 2))
	waitCounter(t, ChannelItemCreated, outcomeFailed, base+1)
	assert.Equal(t, StateError, f.pipeline.State(ChannelItemCreated))

	fail.Store(false)
	require.NoError(t, f.pub.ItemCreated(ctx, 2, "Wand", 2))
	f.waitLen(t, 1)
	assert.Eventually(t, func() bool {
		return f.pipeline.State(ChannelItemCreated) == StateActive
	}, time.Second, 5*time.Millisecond)
}

func TestPipeline_RecoversFromPanic(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	admins := AdminResolverFunc(func(context.Context) ([]int64, error) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return []int64{1}, nil
	})
	f := newPipelineFixture(t, admins)

	require.NoError(t, f.pub.ItemDeleted(ctx, 1, "Orb", 2))
	require.NoError(t, f.pub.ItemDeleted(ctx, 2, "Ring", 2))

	list := f.waitLen(t, 1)
	assert.Equal(t, int64(2), list[0].Base().ItemID)
}

func TestPipeline_IDsIncreaseAcrossClear(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, staticAdmins(1))
	m := NewManager(f.log, WithManagerLogger(logger.Discard()))

	require.NoError(t, f.pub.ItemCreated(ctx, 1, "a", 1))
	require.NoError(t, f.pub.ItemCreated(ctx, 2, "b", 1))
	before := f.waitLen(t, 2)

	require.NoError(t, m.Clear(ctx))
	assert.Empty(t, m.List(ctx))

	require.NoError(t, f.pub.ItemCreated(ctx, 3, "c", 1))
	after := f.waitLen(t, 1)
	for _, n := range before {
		assert.Greater(t, after[0].Base().ID, n.Base().ID)
	}
}

func TestPipeline_ConcurrentChannels(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, staticAdmins(1))
	f.log.capacity = 1000

	const perChannel = 20
	var wg sync.WaitGroup
	for _, kind := range []Kind{KindCreated, KindUpdated, KindDeleted} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perChannel {
				assert.NoError(t, f.pub.Publish(ctx, Event{Kind: kind, ItemID: int64(i + 1), ItemName: "x", ActorUserID: 1}))
			}
		}()
	}
	wg.Wait()

	list := f.waitLen(t, 3*perChannel)
	seen := make(map[uint64]bool, len(list))
	for _, n := range list {
		assert.False(t, seen[n.Base().ID], "duplicate id %d", n.Base().ID)
		seen[n.Base().ID] = true
	}
}

func TestPipeline_CapacityBound(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, staticAdmins(1))

	for i := 1; i <= 15; i++ {
		require.NoError(t, f.pub.ItemCreated(ctx, int64(i), "x", 1))
	}
	// The single created subscription handles messages in order.
	require.Eventually(t, func() bool {
		list, err := f.log.List(ctx)
		return err == nil && len(list) == 10 && list[9].Base().ItemID == 15
	}, 2*time.Second, 5*time.Millisecond)

	list, err := f.log.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), list[0].Base().ItemID)
}

// flakySubscriber fails the first n subscribe attempts per channel.
type flakySubscriber struct {
	eventbus.Subscriber
	mu       sync.Mutex
	failures map[string]int
	n        int
}

func (s *flakySubscriber) Subscribe(ctx context.Context, channel string, h eventbus.Handler) (eventbus.Subscription, error) {
	s.mu.Lock()
	if s.failures[channel] < s.n {
		s.failures[channel]++
		s.mu.Unlock()
		return nil, eventbus.ErrSubscribeFailed
	}
	s.mu.Unlock()
	return s.Subscriber.Subscribe(ctx, channel, h)
}

func TestPipeline_RetriesSubscribe(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	bus := eventbus.NewMemoryBus(eventbus.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = bus.Close() })

	flaky := &flakySubscriber{Subscriber: bus, failures: map[string]int{}, n: 2}
	log := NewLog(store, WithLogLogger(logger.Discard()))
	p := NewPipeline(flaky, staticAdmins(1), NewSequence(store, ""), log,
		WithPipelineLogger(logger.Discard()),
		WithRetryInterval(10*time.Millisecond),
	)

	assert.Equal(t, StateUninitialized, p.State(ChannelItemDeleted))
	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() { _ = p.Close() })
	assert.Equal(t, StateSubscribing, p.State(ChannelItemDeleted))
	assert.Error(t, p.Start(ctx))

	require.Eventually(t, func() bool {
		for _, ch := range Channels {
			if p.State(ch) != StateActive {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, NewPublisher(bus).ItemDeleted(ctx, 1, "x", 1))
	require.Eventually(t, func() bool {
		list, err := log.List(ctx)
		return err == nil && len(list) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestPipeline_CloseStopsConsumption(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t, staticAdmins(1))
	require.NoError(t, f.pipeline.Close())

	require.NoError(t, f.pub.ItemCreated(ctx, 1, "x", 1))
	time.Sleep(50 * time.Millisecond)

	list, err := f.log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// gatedSubscriber blocks the first subscribe attempt until release is closed,
// then fails it. Later attempts are counted and delegated.
type gatedSubscriber struct {
	eventbus.Subscriber
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (s *gatedSubscriber) Subscribe(ctx context.Context, channel string, h eventbus.Handler) (eventbus.Subscription, error) {
	if s.calls.Add(1) == 1 {
		s.once.Do(func() { close(s.entered) })
		<-s.release
		return nil, eventbus.ErrSubscribeFailed
	}
	return s.Subscriber.Subscribe(ctx, channel, h)
}

func TestPipeline_CloseDuringStart(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	bus := eventbus.NewMemoryBus(eventbus.WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = bus.Close() })

	gated := &gatedSubscriber{Subscriber: bus, entered: make(chan struct{}), release: make(chan struct{})}
	log := NewLog(store, WithLogLogger(logger.Discard()))
	p := NewPipeline(gated, staticAdmins(1), NewSequence(store, ""), log,
		WithPipelineLogger(logger.Discard()),
		WithRetryInterval(5*time.Millisecond),
	)

	started := make(chan error, 1)
	go func() { started <- p.Start(ctx) }()
	<-gated.entered

	require.NoError(t, p.Close())
	close(gated.release)
	require.NoError(t, <-started)

	// No retry loop outlives Close, so no further attempts are made.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), gated.calls.Load())

	require.NoError(t, NewPublisher(bus).ItemCreated(ctx, 1, "x", 1))
	time.Sleep(20 * time.Millisecond)
	list, err := log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, p.Start(ctx), ErrPipelineClosed)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "subscribing", StateSubscribing.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "state(9)", State(9).String())
}
