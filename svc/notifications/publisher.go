package notifications

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/grimoire/pkg/eventbus"
)

// Publisher is used by the item CRUD layer to announce lifecycle changes.
// Publishing is fire-and-forget; callers usually log the error and move on.
type Publisher struct {
	bus eventbus.Publisher
}

func NewPublisher(bus eventbus.Publisher) *Publisher {
	return &Publisher{bus: bus}
}

// Publish sends ev on the channel matching its kind.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	channel := ev.Kind.Channel()
	if channel == "" {
		return fmt.Errorf("%w: kind %q", ErrUnknownChannel, ev.Kind)
	}
	return eventbus.PublishJSON(ctx, p.bus, channel, ev)
}

func (p *Publisher) ItemCreated(ctx context.Context, itemID int64, name string, creatorID int64) error {
	return p.Publish(ctx, Event{Kind: KindCreated, ItemID: itemID, ItemName: name, ActorUserID: creatorID})
}

// ItemUpdated publishes an update. changes may be nil when no diff was computed.
func (p *Publisher) ItemUpdated(ctx context.Context, itemID int64, name string, updaterID int64, changes Changes) error {
	return p.Publish(ctx, Event{Kind: KindUpdated, ItemID: itemID, ItemName: name, ActorUserID: updaterID, Changes: changes})
}

func (p *Publisher) ItemDeleted(ctx context.Context, itemID int64, name string, deleterID int64) error {
	return p.Publish(ctx, Event{Kind: KindDeleted, ItemID: itemID, ItemName: name, ActorUserID: deleterID})
}
