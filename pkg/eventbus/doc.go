// Package eventbus is a small publish/subscribe layer over named channels.
//
// Delivery is at-least-once while a subscriber is connected and nothing is
// buffered while it is not: messages published during a subscriber outage are
// lost. Within one channel, messages published over one publisher connection
// arrive in publish order; there is no ordering across channels.
//
// Each Subscription runs its handler sequentially on a single goroutine, so a
// handler never overlaps with itself. Separate subscriptions (for example one
// per channel) run concurrently. Handler errors and panics are logged and do
// not end the subscription.
//
// RedisBus uses two distinct go-redis clients, one for PUBLISH and one for the
// SUBSCRIBE connections, because a connection in subscribe mode cannot issue
// other commands. MemoryBus is an in-process implementation for development
// and tests.
//
//	bus := eventbus.NewRedisBus(pubClient, subClient, eventbus.WithLogger(log))
//	sub, err := bus.Subscribe(ctx, "item.created", func(ctx context.Context, msg eventbus.Message) error {
//	    return handle(ctx, msg.Payload)
//	})
//	...
//	err = eventbus.PublishJSON(ctx, bus, "item.created", event)
package eventbus
